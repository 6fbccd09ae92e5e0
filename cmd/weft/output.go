package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/workflow"
)

// Human output styles.
var (
	styleID    = color.New(color.FgCyan)
	styleGood  = color.New(color.FgGreen)
	styleWarn  = color.New(color.FgYellow)
	styleBad   = color.New(color.FgRed, color.Bold)
	styleMuted = color.New(color.FgHiBlack)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "%s %s\n", styleBad.Sprint("error:"), msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// EditResponse reports the result of an edit command.
type EditResponse struct {
	Status  string          `json:"status"`
	Node    *workflow.Node  `json:"node,omitempty"`
	Edge    *workflow.Edge  `json:"edge,omitempty"`
	Entry   *HistorySummary `json:"entry,omitempty"`
	Removed []string        `json:"removed,omitempty"`
}

// HistorySummary is a history entry without its snapshot.
type HistorySummary struct {
	Index       int                `json:"index"`
	ID          string             `json:"id"`
	ActionType  history.ActionType `json:"actionType"`
	Description string             `json:"description"`
	Current     bool               `json:"current,omitempty"`
}

func summarize(i int, e history.Entry, current bool) HistorySummary {
	return HistorySummary{
		Index:       i,
		ID:          e.ID,
		ActionType:  e.ActionType,
		Description: e.Description,
		Current:     current,
	}
}

// latestEntry returns the newest entry as a summary, or nil.
func latestEntry(ws *workspace) *HistorySummary {
	entries := ws.canvas.Entries()
	if len(entries) == 0 {
		return nil
	}
	s := summarize(0, entries[0], ws.canvas.History().Index() == 0)
	return &s
}

// reportEdit prints the outcome of an edit in the selected format.
func reportEdit(ws *workspace, resp EditResponse) {
	if resp.Entry == nil {
		resp.Entry = latestEntry(ws)
	}
	if !humanOutput {
		outputJSON(resp)
		return
	}
	switch {
	case resp.Node != nil:
		outputHuman("%s %s %s\n", styleGood.Sprint(resp.Status), formatNodeName(resp.Node.Data.NodeName), styleID.Sprint(resp.Node.ID))
	case resp.Edge != nil:
		outputHuman("%s %s %s\n", styleGood.Sprint(resp.Status), formatEdge(*resp.Edge), styleID.Sprint(resp.Edge.ID))
	case len(resp.Removed) > 0:
		outputHuman("%s %s\n", styleGood.Sprint(resp.Status), strings.Join(resp.Removed, ", "))
	default:
		outputHuman("%s\n", styleGood.Sprint(resp.Status))
	}
}

func formatNodeName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// formatEdge formats an edge as "node.port -> node.port".
func formatEdge(e workflow.Edge) string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.Source.NodeID, e.Source.PortID, e.Target.NodeID, e.Target.PortID)
}

// parsePortRef parses "node.port" into a port reference of the given kind.
// Port ids may themselves contain dots; the node id ends at the first dot.
func parsePortRef(s string, kind workflow.PortKind) (workflow.PortRef, error) {
	nodeID, portID, ok := strings.Cut(s, ".")
	if !ok || nodeID == "" || portID == "" {
		return workflow.PortRef{}, fmt.Errorf("invalid port reference %q: expected node.port", s)
	}
	return workflow.PortRef{NodeID: nodeID, PortID: portID, Kind: kind}, nil
}

// parseValue interprets a command-line value as JSON when it parses, and as
// a plain string otherwise.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
