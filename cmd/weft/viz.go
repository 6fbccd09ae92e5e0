package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/viz"
	"github.com/spf13/cobra"
)

var vizOutput string
var vizLayout string
var vizOffline bool
var vizTitle string

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "preset", "Layout: preset (canvas positions), force, circle, or grid")
	vizCmd.Flags().BoolVar(&vizOffline, "offline", false, "Bundle Cytoscape.js inline for offline use")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title (default: repository directory name)")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate workflow visualization",
	Long: `Generate an interactive HTML visualization of the workflow.

Nodes are drawn at their canvas positions by default. Edges are labeled with
their ports and colored by type (blue: INT, green: FLOAT, gray: other). Nodes
with unconnected required inputs are outlined in red.

Examples:
  # Generate HTML to stdout
  weft viz > workflow.html

  # Generate to file with a force-directed layout
  weft viz --layout force --output workflow.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	graph, err := viz.BuildGraphFromDatabase(db, ports.DefaultGridLayout())
	if err != nil {
		return fmt.Errorf("building graph data: %w", err)
	}

	title := vizTitle
	if title == "" {
		title = filepath.Base(repoRoot)
	}
	html, err := viz.GenerateHTML(graph, viz.HTMLOptions{
		Layout:  vizLayout,
		Offline: vizOffline,
		Title:   title,
	})
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
	} else {
		outputJSON(map[string]string{"output": vizOutput})
	}
	return nil
}
