package main

import (
	"fmt"
	"strconv"

	"github.com/matsen/weft/internal/config"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().StringP("action", "a", "", "Filter by action type (e.g. NODE_MOVE)")
	historyListCmd.Flags().IntP("limit", "l", 0, "Maximum number of entries (0 for all)")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyJumpCmd)
	historyCmd.AddCommand(historyClearCmd)
}

// StepResult is the response for undo, redo, and history jump.
type StepResult struct {
	Status  string           `json:"status"`
	Entries []HistorySummary `json:"entries,omitempty"`
	Index   int              `json:"index"`
	CanUndo bool             `json:"canUndo"`
	CanRedo bool             `json:"canRedo"`
}

func reportStep(ws *workspace, status string, entries []history.Entry) {
	h := ws.canvas.History()
	res := StepResult{Status: status, Index: h.Index(), CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
	for _, e := range entries {
		res.Entries = append(res.Entries, summarize(indexOf(h.Entries(), e.ID), e, false))
	}

	if !humanOutput {
		outputJSON(res)
		return
	}
	for _, e := range res.Entries {
		outputHuman("%s %s\n", styleGood.Sprint(status), e.Description)
	}
	if len(res.Entries) == 0 {
		outputHuman("%s\n", styleWarn.Sprint("nothing to "+status))
	}
}

func indexOf(entries []history.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last edit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := mustOpenWorkspace()
		var undone []history.Entry
		if e, ok := ws.canvas.Undo(); ok {
			undone = append(undone, e)
			ws.mustSave()
		}
		reportStep(ws, "undo", undone)
		return nil
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone edit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := mustOpenWorkspace()
		var redone []history.Entry
		if e, ok := ws.canvas.Redo(); ok {
			redone = append(redone, e)
			ws.mustSave()
		}
		reportStep(ws, "redo", redone)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and navigate edit history",
	Long: `Commands for the edit history. Entries are listed newest first; index 0
is the most recent edit.`,
}

// HistoryListResult is the response for the history list command.
type HistoryListResult struct {
	Entries []storage.HistoryRow `json:"entries"`
	Index   int                  `json:"index"`
	Count   int                  `json:"count"`
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	action, _ := cmd.Flags().GetString("action")
	limit, _ := cmd.Flags().GetInt("limit")

	session, err := storage.ReadSession(config.HistoryPath(repoRoot), config.SessionPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "reading history: %v", err)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	rows, err := db.ListHistory(history.ActionType(action), limit)
	if err != nil {
		exitWithError(ExitDataError, "querying history: %v", err)
	}

	if humanOutput {
		if len(rows) == 0 {
			fmt.Println("No history")
			return nil
		}
		for _, r := range rows {
			marker := "  "
			if r.Index == session.Index {
				marker = styleGood.Sprint("> ")
			}
			fmt.Printf("%s%3d  %s  %-13s %s\n", marker, r.Index,
				styleMuted.Sprint(r.Timestamp.Format("15:04:05")), r.ActionType, r.Description)
		}
		if session.Index == history.Present {
			fmt.Println(styleMuted.Sprint("(at present)"))
		}
	} else {
		if rows == nil {
			rows = []storage.HistoryRow{}
		}
		outputJSON(HistoryListResult{Entries: rows, Index: session.Index, Count: len(rows)})
	}
	return nil
}

var historyJumpCmd = &cobra.Command{
	Use:   "jump <index|present>",
	Short: "Jump to a history entry",
	Long: `Restore the canvas to the state before the given entry, undoing or
redoing every entry in between. "present" returns to the live canvas.
Jumping to the current entry is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i := history.Present
		if args[0] != "present" {
			var err error
			if i, err = strconv.Atoi(args[0]); err != nil || i < 0 {
				exitWithError(ExitError, "invalid index %q", args[0])
			}
		}

		ws := mustOpenWorkspace()
		if i >= ws.canvas.History().Len() {
			exitWithError(ExitNotFound, "history index %d out of range (have %d entries)", i, ws.canvas.History().Len())
		}
		steps, ok := ws.canvas.JumpToHistory(i)
		if ok {
			ws.mustSave()
		}
		reportStep(ws, "jump", steps)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the edit history",
	Long:  `Drop every history entry. The canvas itself is unchanged.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := mustOpenWorkspace()
		ws.canvas.ClearHistory()
		ws.mustSave()
		if humanOutput {
			outputHuman("History cleared\n")
		} else {
			outputJSON(StatusResponse{Status: "cleared"})
		}
		return nil
	},
}
