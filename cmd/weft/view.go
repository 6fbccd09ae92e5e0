package main

import (
	"github.com/matsen/weft/internal/geom"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(centerCmd)

	zoomCmd.Flags().Float64("delta", -100, "Wheel delta; negative zooms in")
	zoomCmd.Flags().Int("steps", 1, "Number of wheel steps")
	zoomCmd.Flags().Float64("x", 0, "Cursor x (default: viewport center)")
	zoomCmd.Flags().Float64("y", 0, "Cursor y (default: viewport center)")
	zoomCmd.Flags().Bool("reset", false, "Reset to the identity view")
	rootCmd.AddCommand(zoomCmd)
}

// ViewResult is the response for camera commands.
type ViewResult struct {
	View geom.View `json:"view"`
}

func reportView(v geom.View) {
	if humanOutput {
		outputHuman("view: x=%g y=%g scale=%g\n", v.X, v.Y, v.Scale)
	} else {
		outputJSON(ViewResult{View: v})
	}
}

var centerCmd = &cobra.Command{
	Use:   "center",
	Short: "Center the camera on the workflow",
	Long: `Pan the camera so the bounding box of all nodes sits in the middle of
the configured viewport. The zoom level is kept. Camera changes are not
recorded in history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := mustOpenWorkspace()
		ws.canvas.SetView(ws.canvas.CenteredView(ws.cfg.Viewport))
		ws.mustSave()
		reportView(ws.canvas.View())
		return nil
	},
}

var zoomCmd = &cobra.Command{
	Use:   "zoom",
	Short: "Zoom the camera around a point",
	Long: `Apply wheel steps at a screen position. The world point under the
cursor stays fixed and the scale is clamped to the configured limits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := mustOpenWorkspace()

		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			ws.canvas.SetView(geom.DefaultView())
		} else {
			delta, _ := cmd.Flags().GetFloat64("delta")
			steps, _ := cmd.Flags().GetInt("steps")
			cursor := geom.Point{X: ws.cfg.Viewport.W / 2, Y: ws.cfg.Viewport.H / 2}
			if cmd.Flags().Changed("x") {
				cursor.X, _ = cmd.Flags().GetFloat64("x")
			}
			if cmd.Flags().Changed("y") {
				cursor.Y, _ = cmd.Flags().GetFloat64("y")
			}
			for i := 0; i < steps; i++ {
				ws.canvas.Controller().Wheel(cursor, delta)
			}
		}

		ws.mustSave()
		reportView(ws.canvas.View())
		return nil
	},
}
