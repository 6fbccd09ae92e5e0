package main

import (
	"errors"
	"fmt"

	"github.com/matsen/weft/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change repository settings",
	Long: `Show or change the editing engine's settings in .weft/config.json.

Usage:
  weft config                        # Show all settings
  weft config get snap_distance      # Get one value
  weft config set snap_distance 30   # Set a value

Keys:
  snap_distance     Screen-pixel radius for snapping a dragged edge to a port
  zoom_sensitivity  Fraction of the current scale applied per wheel step
  min_scale         Smallest zoom
  max_scale         Largest zoom
  viewport_width    Viewport width used by 'weft center' and 'weft zoom'
  viewport_height   Viewport height
  history_size      Maximum number of history entries kept
  dedupe_window_ms  Identical edits closer than this are recorded once
  dedupe_lookback   How many recent entries the dedupe check inspects
  catalog           Path to a node catalog file (.yml or .toml)`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if !humanOutput {
		outputJSON(cfg)
		return nil
	}
	for _, key := range config.Keys() {
		v, _ := cfg.Get(key)
		fmt.Printf("%-17s %s\n", key+":", v)
	}
	return nil
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)

		v, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitConfigError, "%v\n\nValid keys: %v", err, config.Keys())
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{args[0]: v})
		}
		return nil
	},
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)

		if err := cfg.Set(args[0], args[1]); err != nil {
			code := ExitError
			if errors.Is(err, config.ErrUnknownKey) {
				code = ExitConfigError
			}
			exitWithError(code, "%v", err)
		}
		if err := cfg.Save(repoRoot); err != nil {
			exitWithError(ExitError, "%v", err)
		}

		v, _ := cfg.Get(args[0])
		if humanOutput {
			fmt.Printf("Set %s = %s\n", args[0], v)
		} else {
			outputJSON(UpdateResponse{Status: "updated", Key: args[0], Value: v})
		}
		return nil
	},
}
