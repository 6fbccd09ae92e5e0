package workflow

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrEmptyNodeID      = errors.New("node id is required")
	ErrDuplicateNodeID  = errors.New("duplicate node id")
	ErrEmptyEdgeID      = errors.New("edge id is required")
	ErrSelfEdge         = errors.New("source and target cannot be the same node")
	ErrDanglingEdge     = errors.New("edge references a missing node or port")
	ErrPortKindMismatch = errors.New("edge must run from an output to an input")
	ErrDuplicateEdge    = errors.New("duplicate edge signature")
	ErrInputOccupied    = errors.New("single-edge input has more than one incoming edge")
)

// ValidateForCreate checks the structural invariants of a single edge.
func (e *Edge) ValidateForCreate() error {
	if e.ID == "" {
		return ErrEmptyEdgeID
	}
	if e.Source.Kind != Output || e.Target.Kind != Input {
		return ErrPortKindMismatch
	}
	if e.Source.NodeID == e.Target.NodeID {
		return ErrSelfEdge
	}
	return nil
}

// Validate checks that s satisfies the graph invariants: unique node ids,
// edges between existing ports running output to input, unique signatures,
// and at most one incoming edge per single-edge input.
func (s *State) Validate() error {
	nodes := make(map[string]*Node, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID == "" {
			return ErrEmptyNodeID
		}
		if _, exists := nodes[n.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		nodes[n.ID] = n
	}

	seen := make(map[EdgeKey]bool, len(s.Edges))
	occupied := make(map[PortRef]bool)
	for i := range s.Edges {
		e := &s.Edges[i]
		if err := e.ValidateForCreate(); err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
		src, ok := nodes[e.Source.NodeID]
		if !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDanglingEdge)
		}
		if _, ok := src.Port(e.Source.PortID, Output); !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDanglingEdge)
		}
		dst, ok := nodes[e.Target.NodeID]
		if !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDanglingEdge)
		}
		in, ok := dst.Port(e.Target.PortID, Input)
		if !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDanglingEdge)
		}
		if seen[e.Key()] {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateEdge)
		}
		seen[e.Key()] = true
		ref := e.Target.Ref()
		if !in.Multi && occupied[ref] {
			return fmt.Errorf("edge %s: %w", e.ID, ErrInputOccupied)
		}
		occupied[ref] = true
	}
	return nil
}

// OrphanedEdgeInfo describes an edge with a missing endpoint node.
type OrphanedEdgeInfo struct {
	EdgeID string `json:"edge_id"`
	Reason string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// DetectOrphanedEdges finds edges whose endpoint nodes are not in nodes.
// Returns orphaned edges with their reasons and the list of valid edges.
func DetectOrphanedEdges(edges []Edge, nodes []Node) (orphaned []OrphanedEdgeInfo, valid []Edge) {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for _, e := range edges {
		sourceOK := ids[e.Source.NodeID]
		targetOK := ids[e.Target.NodeID]
		switch {
		case sourceOK && targetOK:
			valid = append(valid, e)
		case !sourceOK && !targetOK:
			orphaned = append(orphaned, OrphanedEdgeInfo{EdgeID: e.ID, Reason: "missing_both"})
		case !sourceOK:
			orphaned = append(orphaned, OrphanedEdgeInfo{EdgeID: e.ID, Reason: "missing_source"})
		default:
			orphaned = append(orphaned, OrphanedEdgeInfo{EdgeID: e.ID, Reason: "missing_target"})
		}
	}
	return orphaned, valid
}

// FindDuplicateEdges finds signatures that appear more than once in edges.
func FindDuplicateEdges(edges []Edge) map[EdgeKey]int {
	counts := make(map[EdgeKey]int)
	for _, e := range edges {
		counts[e.Key()]++
	}

	duplicates := make(map[EdgeKey]int)
	for key, count := range counts {
		if count > 1 {
			duplicates[key] = count
		}
	}
	return duplicates
}
