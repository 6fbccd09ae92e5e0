package main

import (
	"os"

	"github.com/matsen/weft/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the workflow is ready to execute",
	Long: `Check that every required input has an incoming connection. The first
offending node is reported; the full list of open required inputs is included.
Exits with code 3 when validation fails.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// ValidateResult is the response for the validate command.
type ValidateResult struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	NodeID  string                 `json:"nodeId,omitempty"`
	Missing []storage.MissingInput `json:"missing,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	res := ws.canvas.ValidateAndPrepareExecution()
	out := ValidateResult{Success: res.Success, Error: res.Error, NodeID: res.NodeID}

	if !res.Success {
		db := mustOpenDatabase(ws.root)
		defer db.Close()
		missing, err := db.MissingRequiredInputs()
		if err != nil {
			logger.Warn("listing missing inputs", "error", err)
		}
		out.Missing = missing
	}

	if humanOutput {
		if out.Success {
			outputHuman("%s\n", styleGood.Sprint("Workflow is valid"))
		} else {
			outputHuman("%s %s\n", styleBad.Sprint("invalid:"), out.Error)
			for _, m := range out.Missing {
				outputHuman("  %s.%s %s\n", styleID.Sprint(m.NodeID), m.PortID, styleMuted.Sprintf("(%s)", m.NodeName))
			}
		}
	} else {
		outputJSON(out)
	}

	if !out.Success {
		os.Exit(ExitDataError)
	}
	return nil
}
