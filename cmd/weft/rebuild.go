package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from source data",
	Long: `Rebuild the SQLite query index from workflow.json and history.jsonl.

Use this after pulling changes from git or if the index becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	IndexStats
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	stats, err := rebuildIndex(repoRoot)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt index: %d nodes, %d ports, %d edges, %d history entries\n",
			stats.Nodes, stats.Ports, stats.Edges, stats.History)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", IndexStats: stats})
	}
	return nil
}
