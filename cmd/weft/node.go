package main

import (
	"errors"
	"fmt"

	"github.com/matsen/weft/internal/clipboard"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/storage"
	"github.com/matsen/weft/internal/workflow"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(nodeCmd)

	nodeAddCmd.Flags().Float64("x", 0, "Screen x position")
	nodeAddCmd.Flags().Float64("y", 0, "Screen y position")
	nodeAddCmd.Flags().StringP("name", "n", "", "Node name (default: template name)")
	nodeCmd.AddCommand(nodeAddCmd)

	nodeCmd.AddCommand(nodeMoveCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)
	nodeCmd.AddCommand(nodeRenameCmd)
	nodeCmd.AddCommand(nodeSetCmd)
	nodeCmd.AddCommand(nodeCopyCmd)

	nodePasteCmd.Flags().Float64("x", 0, "World x position")
	nodePasteCmd.Flags().Float64("y", 0, "World y position")
	nodeCmd.AddCommand(nodePasteCmd)

	nodeCmd.AddCommand(nodeDuplicateCmd)

	nodeListCmd.Flags().StringP("type", "t", "", "Filter by node type")
	nodeCmd.AddCommand(nodeListCmd)
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage nodes on the canvas",
	Long:  `Commands for adding, moving, editing, and removing workflow nodes.`,
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Add a node from the catalog",
	Long: `Add a node built from a catalog template. The position is in screen
coordinates and is converted through the current camera, as a drop from a
palette would be.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodeAdd,
}

func runNodeAdd(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()

	tmpl, err := ws.catalog.Lookup(args[0])
	mustEdit(err)

	data := tmpl.NodeData()
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		data.NodeName = name
	}
	x, _ := cmd.Flags().GetFloat64("x")
	y, _ := cmd.Flags().GetFloat64("y")

	n := ws.canvas.AddNode(data, x, y)
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "added", Node: &n})
	return nil
}

var nodeMoveCmd = &cobra.Command{
	Use:   "move <id> <x> <y>",
	Short: "Move a node to a world position",
	Args:  cobra.ExactArgs(3),
	RunE:  runNodeMove,
}

func runNodeMove(cmd *cobra.Command, args []string) error {
	var to geom.Point
	if _, err := fmt.Sscanf(args[1]+" "+args[2], "%g %g", &to.X, &to.Y); err != nil {
		exitWithError(ExitError, "invalid position %s %s: %v", args[1], args[2], err)
	}

	ws := mustOpenWorkspace()
	mustEdit(ws.canvas.MoveNode(args[0], to))
	ws.mustSave()

	n, _ := ws.canvas.Node(args[0])
	reportEdit(ws, EditResponse{Status: "moved", Node: &n})
	return nil
}

var nodeRemoveCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Remove nodes and their connections",
	Long: `Remove one or more nodes together with every edge touching them.
Removing several nodes records a single history entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNodeRemove,
}

func runNodeRemove(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	mustEdit(ws.canvas.DeleteNodes(args))
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "removed", Removed: args})
	return nil
}

var nodeRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a node",
	Args:  cobra.ExactArgs(2),
	RunE:  runNodeRename,
}

func runNodeRename(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	mustEdit(ws.canvas.RenameNode(args[0], args[1]))
	ws.mustSave()

	n, _ := ws.canvas.Node(args[0])
	reportEdit(ws, EditResponse{Status: "renamed", Node: &n})
	return nil
}

var nodeSetCmd = &cobra.Command{
	Use:   "set <id> <parameter> <value>",
	Short: "Set a node parameter",
	Long: `Set a parameter value. Values that parse as JSON (numbers, booleans,
arrays, objects) are stored as such; anything else is stored as a string.`,
	Args: cobra.ExactArgs(3),
	RunE: runNodeSet,
}

func runNodeSet(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	mustEdit(ws.canvas.SetParameter(args[0], args[1], parseValue(args[2])))
	ws.mustSave()

	n, _ := ws.canvas.Node(args[0])
	reportEdit(ws, EditResponse{Status: "updated", Node: &n})
	return nil
}

// CopyResult is the response for the node copy command.
type CopyResult struct {
	Status    string            `json:"status"`
	Clipboard bool              `json:"clipboard"`
	Node      workflow.NodeData `json:"node"`
}

var nodeCopyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy a node to the system clipboard",
	Long: `Copy a node's data to the system clipboard so it can be pasted into
any weft repository. When no clipboard tool is available the payload is
still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodeCopy,
}

func runNodeCopy(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	n, ok := ws.canvas.Node(args[0])
	if !ok {
		exitWithError(ExitNotFound, "node %q not found", args[0])
	}

	copied := true
	if err := clipboard.CopyNode(n.Data); err != nil {
		logger.Warn("clipboard copy failed", "error", err)
		copied = false
	}

	if humanOutput {
		if copied {
			outputHuman("%s %s\n", styleGood.Sprint("copied"), formatNodeName(n.Data.NodeName))
		} else {
			text, _ := clipboard.EncodeNode(n.Data)
			outputHuman("%s\n%s\n", styleWarn.Sprint("clipboard unavailable; payload:"), text)
		}
	} else {
		outputJSON(CopyResult{Status: "copied", Clipboard: copied, Node: n.Data})
	}
	return nil
}

var nodePasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Paste a node from the system clipboard",
	Args:  cobra.NoArgs,
	RunE:  runNodePaste,
}

func runNodePaste(cmd *cobra.Command, args []string) error {
	data, err := clipboard.PasteNode()
	if err != nil {
		code := ExitError
		if errors.Is(err, clipboard.ErrNotANode) {
			code = ExitDataError
		}
		exitWithError(code, "%v", err)
	}

	ws := mustOpenWorkspace()
	var at geom.Point
	at.X, _ = cmd.Flags().GetFloat64("x")
	at.Y, _ = cmd.Flags().GetFloat64("y")

	n, err := ws.canvas.PasteNode(data, at)
	mustEdit(err)
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "pasted", Node: &n})
	return nil
}

var nodeDuplicateCmd = &cobra.Command{
	Use:     "dup <id>",
	Aliases: []string{"duplicate"},
	Short:   "Duplicate a node",
	Long:    `Insert a copy of a node offset down and to the right of the original.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNodeDuplicate,
}

func runNodeDuplicate(cmd *cobra.Command, args []string) error {
	ws := mustOpenWorkspace()
	n, err := ws.canvas.DuplicateNode(args[0])
	mustEdit(err)
	ws.mustSave()
	reportEdit(ws, EditResponse{Status: "duplicated", Node: &n})
	return nil
}

// NodeListResult is the response for the node list command.
type NodeListResult struct {
	Nodes []storage.NodeSummary `json:"nodes"`
	Count int                   `json:"count"`
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List nodes",
	Args:  cobra.NoArgs,
	RunE:  runNodeList,
}

func runNodeList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	nodeType, _ := cmd.Flags().GetString("type")

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	nodes, err := db.ListNodes(nodeType)
	if err != nil {
		exitWithError(ExitDataError, "querying nodes: %v", err)
	}

	if humanOutput {
		if len(nodes) == 0 {
			fmt.Println("No nodes found")
			return nil
		}
		for _, n := range nodes {
			fmt.Printf("%s  %s %s  (%g, %g)  in:%d out:%d\n",
				styleID.Sprint(n.ID), formatNodeName(n.Name), styleMuted.Sprintf("[%s]", n.Type),
				n.Position.X, n.Position.Y, n.Inputs, n.Outputs)
		}
		fmt.Printf("\nTotal: %d nodes\n", len(nodes))
	} else {
		if nodes == nil {
			nodes = []storage.NodeSummary{}
		}
		outputJSON(NodeListResult{Nodes: nodes, Count: len(nodes)})
	}
	return nil
}
