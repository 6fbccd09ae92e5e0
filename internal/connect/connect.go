// Package connect implements the edge connection protocol: port type
// compatibility, snap-target search during an edge drag, and the commit and
// reconnection rules that keep the edge set consistent.
package connect

import (
	"errors"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// SnapDistance is the default capture radius in world units.
const SnapDistance = 40.0

// Policy rejections. Callers drop these silently; they are not faults.
var (
	ErrNoSource      = errors.New("no edge preview source")
	ErrSamePortKind  = errors.New("ports are of the same kind")
	ErrSameNode      = errors.New("cannot connect a node to itself")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrIncompatible  = errors.New("port types are incompatible")
	ErrUnknownPort   = errors.New("port not found")
)

// Compatible reports whether an output of type source may feed an input of
// type target. An absent type on either side is compatible, as is equality,
// an ANY target, and INT widening to FLOAT. The relation is not symmetric.
func Compatible(source, target string) bool {
	switch {
	case source == "" || target == "":
		return true
	case source == target:
		return true
	case target == workflow.TypeAny:
		return true
	case source == workflow.TypeInt && target == workflow.TypeFloat:
		return true
	}
	return false
}

// Snap is the nearest input port to the pointer during an edge drag.
type Snap struct {
	Key      ports.Key  `json:"key"`
	Position geom.Point `json:"position"`
	Distance float64    `json:"distance"`
	Invalid  bool       `json:"invalid"` // type mismatch; shown, not enforced here
}

// Portal resolves the type of a registered port. It returns false when the
// port is unknown, which makes the candidate ineligible.
type Portal func(k ports.Key) (string, bool)

// FindSnap searches the registry for the closest input port on another node
// strictly within radius of pointer. Ties go to the first port in registry
// order. A snap is returned even when its type is incompatible with source;
// Invalid carries that verdict for visual feedback.
func FindSnap(reg *ports.Registry, typeOf Portal, source workflow.Endpoint, pointer geom.Point, radius float64) (Snap, bool) {
	var best Snap
	found := false
	reg.Each(func(k ports.Key, p geom.Point) {
		if k.Kind != workflow.Input || k.NodeID == source.NodeID {
			return
		}
		d := pointer.Dist(p)
		if d >= radius {
			return
		}
		if !found || d < best.Distance {
			best = Snap{Key: k, Position: p, Distance: d}
			found = true
		}
	})
	if !found {
		return Snap{}, false
	}

	targetType := ""
	if typeOf != nil {
		if t, ok := typeOf(best.Key); ok {
			targetType = t
		}
	}
	best.Invalid = !Compatible(source.Type, targetType)
	return best, true
}
