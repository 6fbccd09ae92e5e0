package main

import (
	"os"

	"github.com/matsen/weft/internal/config"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/storage"
	"github.com/matsen/weft/internal/workflow"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new weft repository",
	Long:  `Create a .weft directory with default config and an empty workflow in the current directory.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsRepository(cwd) {
		exitWithError(ExitConfigError, "%s already exists in %s", config.WeftDir, cwd)
	}

	if err := os.MkdirAll(config.CachePath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.WeftDir, err)
	}

	if err := config.Default().Save(cwd); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	empty := workflow.State{View: geom.DefaultView(), Nodes: []workflow.Node{}, Edges: []workflow.Edge{}}
	if err := storage.WriteState(config.WorkflowPath(cwd), empty); err != nil {
		exitWithError(ExitError, "writing workflow: %v", err)
	}
	if _, err := rebuildIndex(cwd); err != nil {
		exitWithError(ExitError, "building index: %v", err)
	}

	if humanOutput {
		outputHuman("Initialized weft repository in %s\n", config.WeftPath(cwd))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.WeftPath(cwd)})
	}
	return nil
}
