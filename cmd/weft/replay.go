package main

import (
	"os"

	"github.com/matsen/weft/internal/interaction"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func init() {
	replayCmd.Flags().Float64("rate", 0, "Maximum events per second (0 for unthrottled)")
	replayCmd.Flags().Bool("dry-run", false, "Replay without saving the result")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Replay recorded pointer and keyboard events",
	Long: `Feed a script of input events through the interaction state machine, as
a UI would. Each line is a JSON event:

  {"type":"mousedown","x":180,"y":44}
  {"type":"mousemove","x":300,"y":50}
  {"type":"mouseup","x":300,"y":50}
  {"type":"wheel","x":400,"y":300,"deltaY":-100}
  {"type":"key","key":"c","ctrl":true}

Events without an explicit "target" are hit-tested against the canvas.
Lines starting with # are comments.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

// ReplayResult is the response for the replay command.
type ReplayResult struct {
	Status     string          `json:"status"`
	Dispatched int             `json:"dispatched"`
	Nodes      int             `json:"nodes"`
	Edges      int             `json:"edges"`
	Entry      *HistorySummary `json:"entry,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		exitWithError(ExitError, "opening script: %v", err)
	}
	events, err := interaction.ReadEvents(f)
	f.Close()
	if err != nil {
		exitWithError(ExitDataError, "parsing %s: %v", args[0], err)
	}

	var limiter *rate.Limiter
	if perSecond, _ := cmd.Flags().GetFloat64("rate"); perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	ws := mustOpenWorkspace()
	n, err := ws.canvas.Controller().Replay(cmd.Context(), events, ws.canvas.Resolve, limiter)
	if err != nil {
		exitWithError(ExitDataError, "replay stopped after %d events: %v", n, err)
	}
	logger.Info("replay finished", "events", n)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		ws.mustSave()
	}

	res := ReplayResult{
		Status:     "replayed",
		Dispatched: n,
		Nodes:      len(ws.canvas.Nodes()),
		Edges:      len(ws.canvas.Edges()),
		Entry:      latestEntry(ws),
	}
	if humanOutput {
		outputHuman("%s %d events: %d nodes, %d edges\n", styleGood.Sprint("Replayed"), res.Dispatched, res.Nodes, res.Edges)
	} else {
		outputJSON(res)
	}
	return nil
}
