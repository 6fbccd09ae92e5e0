package viz

import (
	"fmt"

	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/storage"
	"github.com/matsen/weft/internal/workflow"
)

// BuildGraph converts a canvas state into GraphData. Card geometry comes
// from layout and positions are card centers in world coordinates.
func BuildGraph(state workflow.State, layout ports.GridLayout) *GraphData {
	missing := make(map[string][]string)
	for _, n := range state.Nodes {
		for _, p := range n.Data.Inputs {
			if p.Required && len(workflow.Incoming(state.Edges, n.ID, p.ID)) == 0 {
				missing[n.ID] = append(missing[n.ID], portLabel(p.Name, p.ID))
			}
		}
	}
	return assemble(state.Nodes, state.Edges, missing, layout)
}

// BuildGraphFromDatabase queries the index and constructs GraphData,
// including the missing-input report computed by SQL.
func BuildGraphFromDatabase(db *storage.DB, layout ports.GridLayout) (*GraphData, error) {
	summaries, err := db.ListNodes("")
	if err != nil {
		return nil, err
	}

	nodes := make([]workflow.Node, 0, len(summaries))
	for _, s := range summaries {
		n, err := db.GetNode(s.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieving node %s: %w", s.ID, err)
		}
		if n == nil {
			return nil, fmt.Errorf("data integrity error: listed node %s has no row", s.ID)
		}
		nodes = append(nodes, *n)
	}

	edges, err := db.GetAllEdges()
	if err != nil {
		return nil, err
	}

	rows, err := db.MissingRequiredInputs()
	if err != nil {
		return nil, err
	}
	missing := make(map[string][]string)
	for _, m := range rows {
		missing[m.NodeID] = append(missing[m.NodeID], portLabel(m.PortName, m.PortID))
	}

	return assemble(nodes, edges, missing, layout), nil
}

func assemble(nodes []workflow.Node, edges []workflow.Edge, missing map[string][]string, layout ports.GridLayout) *GraphData {
	counts := make(map[string]int)
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		counts[e.Source.NodeID]++
		counts[e.Target.NodeID]++
		out = append(out, Edge{
			ID:         e.ID,
			Source:     e.Source.NodeID,
			Target:     e.Target.NodeID,
			SourcePort: e.Source.PortID,
			TargetPort: e.Target.PortID,
			PortType:   e.Source.Type,
		})
	}

	vnodes := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		vnodes = append(vnodes, newNode(n, layout, counts[n.ID], missing[n.ID]))
	}

	return &GraphData{Nodes: vnodes, Edges: out}
}

func newNode(n workflow.Node, layout ports.GridLayout, connections int, missing []string) Node {
	label := n.Data.NodeName
	if label == "" {
		label = n.ID
	}
	return Node{
		ID:              n.ID,
		NodeType:        n.Data.Type,
		Label:           label,
		Inputs:          describePorts(n.Data.Inputs),
		Outputs:         describePorts(n.Data.Outputs),
		Missing:         missing,
		ConnectionCount: connections,
		Position:        layout.NodeRect(n).Center(),
	}
}

func describePorts(ps []workflow.Port) []string {
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		s := portLabel(p.Name, p.ID)
		if p.Type != "" {
			s += ": " + p.Type
		}
		out = append(out, s)
	}
	return out
}

func portLabel(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
