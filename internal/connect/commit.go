package connect

import (
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// Result describes a committed connection.
type Result struct {
	Edges    []workflow.Edge // the new edge collection
	Created  workflow.Edge
	Replaced []workflow.Edge // edges evicted from a single-edge input
}

// Commit applies the drop of an edge drag rooted at source onto the port
// dropped. It rejects a missing source, same-kind ports, same-node
// connections, unknown ports, incompatible types, and duplicate signatures.
// When the target input is not multi, any edge already terminating there is
// removed before the new edge is appended. edges is never modified.
func Commit(edges []workflow.Edge, lookup workflow.PortLookup, source *workflow.Endpoint, dropped ports.Key, newID string) (Result, error) {
	if source == nil {
		return Result{}, ErrNoSource
	}
	if dropped.Kind == source.Kind {
		return Result{}, ErrSamePortKind
	}
	if dropped.NodeID == source.NodeID {
		return Result{}, ErrSameNode
	}

	// Normalize so src is always the output end.
	src, dst := *source, workflow.Endpoint{NodeID: dropped.NodeID, PortID: dropped.PortID, Kind: dropped.Kind}
	if src.Kind == workflow.Input {
		src, dst = dst, src
	}
	out, ok := lookup(src.Ref())
	if !ok {
		return Result{}, ErrUnknownPort
	}
	in, ok := lookup(dst.Ref())
	if !ok {
		return Result{}, ErrUnknownPort
	}
	src.Type = out.Type
	dst.Type = ""
	if !Compatible(out.Type, in.Type) {
		return Result{}, ErrIncompatible
	}

	created := workflow.Edge{ID: newID, Source: src, Target: dst}
	key := created.Key()
	for i := range edges {
		if edges[i].Key() == key {
			return Result{}, ErrDuplicateEdge
		}
	}

	res := Result{Created: created, Edges: make([]workflow.Edge, 0, len(edges)+1)}
	for _, e := range edges {
		if !in.Multi && e.Target.NodeID == dst.NodeID && e.Target.PortID == dst.PortID {
			res.Replaced = append(res.Replaced, e)
			continue
		}
		res.Edges = append(res.Edges, e)
	}
	res.Edges = append(res.Edges, created)
	return res, nil
}

// Lifted is the outcome of picking up an existing edge by its target end.
type Lifted struct {
	Edges  []workflow.Edge // the collection without the lifted edge
	Edge   workflow.Edge   // the edge that was removed
	Source workflow.Endpoint
}

// Lift detaches the edge terminating at an occupied single-edge input so
// the user can drag it elsewhere. It returns false when the port is multi,
// unknown, or has no incoming edge.
func Lift(edges []workflow.Edge, lookup workflow.PortLookup, input workflow.PortRef) (Lifted, bool) {
	if input.Kind != workflow.Input {
		return Lifted{}, false
	}
	p, ok := lookup(input)
	if !ok || p.Multi {
		return Lifted{}, false
	}
	for i, e := range edges {
		if e.Target.NodeID != input.NodeID || e.Target.PortID != input.PortID {
			continue
		}
		rest := make([]workflow.Edge, 0, len(edges)-1)
		rest = append(rest, edges[:i]...)
		rest = append(rest, edges[i+1:]...)
		return Lifted{Edges: rest, Edge: e, Source: e.Source}, true
	}
	return Lifted{}, false
}
