package main

import (
	"fmt"

	"github.com/matsen/weft/internal/workflow"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(edgeCmd)

	edgeCmd.AddCommand(edgeConnectCmd)
	edgeCmd.AddCommand(edgeRemoveCmd)

	edgeListCmd.Flags().String("node", "", "Only edges touching this node")
	edgeListCmd.Flags().String("input", "", "Only edges into this input (node.port)")
	edgeCmd.AddCommand(edgeListCmd)
}

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Manage connections between ports",
	Long:  `Commands for connecting and disconnecting node ports.`,
}

var edgeConnectCmd = &cobra.Command{
	Use:   "connect <node.output> <node.input>",
	Short: "Connect an output port to an input port",
	Long: `Connect two ports under the connection rules: the ports must be of
opposite kinds on different nodes with compatible types, and the edge must not
already exist. Connecting into a single-edge input replaces its current edge.`,
	Args: cobra.ExactArgs(2),
	RunE: runEdgeConnect,
}

func runEdgeConnect(cmd *cobra.Command, args []string) error {
	src, err := parsePortRef(args[0], workflow.Output)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	dst, err := parsePortRef(args[1], workflow.Input)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ws := mustOpenWorkspace()
	e, err := ws.canvas.ConnectPorts(src, dst)
	mustEdit(err)
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "connected", Edge: &e})
	return nil
}

var edgeRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a connection",
	Args:    cobra.ExactArgs(1),
	RunE:    runEdgeRemove,
}

func runEdgeRemove(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	mustEdit(ws.canvas.DeleteEdge(args[0]))
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "removed", Removed: args})
	return nil
}

// EdgeListResult is the response for the edge list command.
type EdgeListResult struct {
	Edges []workflow.Edge `json:"edges"`
	Count int             `json:"count"`
}

var edgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connections",
	Args:  cobra.NoArgs,
	RunE:  runEdgeList,
}

func runEdgeList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	nodeID, _ := cmd.Flags().GetString("node")
	input, _ := cmd.Flags().GetString("input")

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	var edges []workflow.Edge
	var err error
	switch {
	case input != "":
		ref, perr := parsePortRef(input, workflow.Input)
		if perr != nil {
			exitWithError(ExitError, "%v", perr)
		}
		edges, err = db.GetIncoming(ref.NodeID, ref.PortID)
	case nodeID != "":
		edges, err = db.GetEdgesByNode(nodeID)
	default:
		edges, err = db.GetAllEdges()
	}
	if err != nil {
		exitWithError(ExitDataError, "querying edges: %v", err)
	}

	if humanOutput {
		if len(edges) == 0 {
			fmt.Println("No edges found")
			return nil
		}
		for _, e := range edges {
			typ := e.Source.Type
			if typ == "" {
				typ = workflow.TypeAny
			}
			fmt.Printf("%s  %s %s\n", styleID.Sprint(e.ID), formatEdge(e), styleMuted.Sprintf("[%s]", typ))
		}
		fmt.Printf("\nTotal: %d edges\n", len(edges))
	} else {
		if edges == nil {
			edges = []workflow.Edge{}
		}
		outputJSON(EdgeListResult{Edges: edges, Count: len(edges)})
	}
	return nil
}
