// Package workflow defines the core domain types for the node graph: nodes,
// typed ports, edges, and the canvas state exchanged with persistence.
package workflow

import (
	"github.com/matsen/weft/internal/geom"
)

// PortKind distinguishes input ports from output ports.
type PortKind string

const (
	Input  PortKind = "input"
	Output PortKind = "output"
)

// Well-known port type tags. Any other non-empty string is a custom type.
const (
	TypeInt   = "INT"
	TypeFloat = "FLOAT"
	TypeAny   = "ANY"
)

// Port is a typed, named connection point on a node.
type Port struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
	Multi    bool   `json:"multi,omitempty"`  // more than one edge may terminate here
	Stream   bool   `json:"stream,omitempty"` // outputs only
}

// Parameter is an editable value on a node.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

// NodeData is the user-visible payload of a node.
type NodeData struct {
	NodeName   string      `json:"nodeName"`
	Type       string      `json:"type,omitempty"`
	Inputs     []Port      `json:"inputs"`
	Outputs    []Port      `json:"outputs"`
	Parameters []Parameter `json:"parameters"`
}

// Node is a positioned node on the canvas. Position is in world coordinates.
type Node struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
	Data     NodeData   `json:"data"`
}

// Port returns the port with the given id and kind.
func (n *Node) Port(id string, kind PortKind) (Port, bool) {
	ports := n.Data.Inputs
	if kind == Output {
		ports = n.Data.Outputs
	}
	for _, p := range ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Parameter returns a pointer to the named parameter, or nil.
func (n *Node) Parameter(name string) *Parameter {
	for i := range n.Data.Parameters {
		if n.Data.Parameters[i].Name == name {
			return &n.Data.Parameters[i]
		}
	}
	return nil
}

// PortRef addresses a single port on a node.
type PortRef struct {
	NodeID string   `json:"nodeId"`
	PortID string   `json:"portId"`
	Kind   PortKind `json:"portType"`
}

// Endpoint is one end of an edge. Sources carry the output's type tag.
type Endpoint struct {
	NodeID string   `json:"nodeId"`
	PortID string   `json:"portId"`
	Kind   PortKind `json:"portType"`
	Type   string   `json:"type,omitempty"`
}

// Ref strips the type tag.
func (e Endpoint) Ref() PortRef {
	return PortRef{NodeID: e.NodeID, PortID: e.PortID, Kind: e.Kind}
}

// Edge is a directed connection from an output port to an input port.
type Edge struct {
	ID     string   `json:"id"`
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
}

// EdgeKey is the connection signature of an edge. No two edges on a canvas
// share a key.
type EdgeKey struct {
	SourceNode string
	SourcePort string
	TargetNode string
	TargetPort string
}

// Key returns the connection signature of e.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{
		SourceNode: e.Source.NodeID,
		SourcePort: e.Source.PortID,
		TargetNode: e.Target.NodeID,
		TargetPort: e.Target.PortID,
	}
}

// Touches reports whether either end of e is on the given node.
func (e *Edge) Touches(nodeID string) bool {
	return e.Source.NodeID == nodeID || e.Target.NodeID == nodeID
}

// Snapshot is the undoable part of the canvas: nodes and edges, no camera.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// State is the load/save contract: a snapshot plus the camera.
type State struct {
	View  geom.View `json:"view"`
	Nodes []Node    `json:"nodes"`
	Edges []Edge    `json:"edges"`
}

// Snapshot returns the undoable part of s.
func (s State) Snapshot() Snapshot {
	return Snapshot{Nodes: s.Nodes, Edges: s.Edges}.Clone()
}

// ValidationResult reports whether a canvas is ready to execute.
type ValidationResult struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	NodeID  string `json:"nodeId,omitempty"`
}
