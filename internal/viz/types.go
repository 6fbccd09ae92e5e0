// Package viz renders a workflow as a standalone Cytoscape.js page.
package viz

import "github.com/matsen/weft/internal/geom"

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one workflow node card.
type Node struct {
	ID       string `json:"id"`
	NodeType string `json:"nodeType,omitempty"`
	Label    string `json:"label"`

	// Port listings for tooltips, formatted "name: TYPE".
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`

	// Required inputs with no incoming edge.
	Missing []string `json:"missing,omitempty"`

	ConnectionCount int `json:"connectionCount"`

	// Center of the card in world coordinates; used by the preset layout.
	Position geom.Point `json:"-"`
}

// Edge is a connection between two ports.
type Edge struct {
	ID         string `json:"-"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort string `json:"sourcePort"`
	TargetPort string `json:"targetPort"`
	PortType   string `json:"portType,omitempty"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
