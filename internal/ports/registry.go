// Package ports tracks the world-space position of every connectable port on
// the canvas.
//
// The registry is rewritten by Sync after every layout pass (node set change,
// node move, zoom). Sync is synchronous so that snap searches during a live
// edge drag always see the geometry of the most recent layout. The registry is
// owned by the canvas and is not safe for concurrent use.
package ports

import (
	"fmt"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/workflow"
)

// Key identifies a registered port.
type Key struct {
	NodeID string
	PortID string
	Kind   workflow.PortKind
}

// KeyOf returns the registry key for a port reference.
func KeyOf(ref workflow.PortRef) Key {
	return Key{NodeID: ref.NodeID, PortID: ref.PortID, Kind: ref.Kind}
}

// Ref converts k back into a port reference.
func (k Key) Ref() workflow.PortRef {
	return workflow.PortRef{NodeID: k.NodeID, PortID: k.PortID, Kind: k.Kind}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.NodeID, k.PortID, k.Kind)
}

// Registry maps port keys to world positions, preserving insertion order.
// Iteration order decides ties in snap searches.
type Registry struct {
	order []Key
	pos   map[Key]geom.Point
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pos: make(map[Key]geom.Point)}
}

// Set registers or moves a port. New keys are appended to the iteration order.
func (r *Registry) Set(k Key, p geom.Point) {
	if _, ok := r.pos[k]; !ok {
		r.order = append(r.order, k)
	}
	r.pos[k] = p
}

// Get returns the registered position of k.
func (r *Registry) Get(k Key) (geom.Point, bool) {
	p, ok := r.pos[k]
	return p, ok
}

// Remove deregisters k.
func (r *Registry) Remove(k Key) {
	if _, ok := r.pos[k]; !ok {
		return
	}
	delete(r.pos, k)
	for i, o := range r.order {
		if o == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RemoveNode deregisters every port of a node.
func (r *Registry) RemoveNode(nodeID string) {
	kept := r.order[:0]
	for _, k := range r.order {
		if k.NodeID == nodeID {
			delete(r.pos, k)
			continue
		}
		kept = append(kept, k)
	}
	r.order = kept
}

// Len returns the number of registered ports.
func (r *Registry) Len() int {
	return len(r.order)
}

// Keys returns the registered keys in iteration order.
func (r *Registry) Keys() []Key {
	out := make([]Key, len(r.order))
	copy(out, r.order)
	return out
}

// Each calls fn for every registered port in iteration order.
func (r *Registry) Each(fn func(Key, geom.Point)) {
	for _, k := range r.order {
		fn(k, r.pos[k])
	}
}

// Reset deregisters everything.
func (r *Registry) Reset() {
	r.order = nil
	r.pos = make(map[Key]geom.Point)
}

// Box is the on-screen bounding box of a rendered port element.
type Box struct {
	Key    Key
	Screen geom.Rect
}

// Sync recomputes world positions from a layout pass. container is the
// screen origin of the transformed content container, so a port's world
// center is its box center relative to container divided by scale. Ports
// missing from boxes are deregistered.
func (r *Registry) Sync(container geom.Point, boxes []Box, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	live := make(map[Key]bool, len(boxes))
	for _, b := range boxes {
		live[b.Key] = true
		r.Set(b.Key, b.Screen.Center().Sub(container).Scale(1/scale))
	}
	for _, k := range r.Keys() {
		if !live[k] {
			r.Remove(k)
		}
	}
}
