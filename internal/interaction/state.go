// Package interaction is the pointer and keyboard state machine of the
// canvas. It turns mouse and key events into pans, node drags, edge drags,
// selection changes, and clipboard operations on an Editor.
//
// Exactly one Drag is live at a time. Mouse up and mouse leave always return
// the machine to DragNone and clear any edge preview.
package interaction

import (
	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// Drag is the live gesture. Implementations: DragNone, DragCanvas, DragNode, DragEdge.
type Drag interface {
	isDrag()
}

// DragNone means no gesture is in progress.
type DragNone struct{}

// DragCanvas pans the camera. Anchor is the pointer offset from the view
// translation at drag start.
type DragCanvas struct {
	Anchor geom.Point
}

// DragNode moves a node. Offset is the world offset of the pointer from the
// node origin; From is where the node started.
type DragNode struct {
	NodeID string
	Offset geom.Point
	From   geom.Point
}

// DragEdge draws an edge; its geometry lives in the EdgePreview.
type DragEdge struct{}

func (DragNone) isDrag()   {}
func (DragCanvas) isDrag() {}
func (DragNode) isDrag()   {}
func (DragEdge) isDrag()   {}

// EdgePreview is the rubber-band edge shown during a DragEdge. Positions are
// in world coordinates.
type EdgePreview struct {
	Source workflow.Endpoint
	Start  geom.Point
	Target geom.Point
	Snap   *connect.Snap
}

// Invalid reports whether the current snap target rejects the source type.
func (p *EdgePreview) Invalid() bool {
	return p != nil && p.Snap != nil && p.Snap.Invalid
}

// Target is what sits under the pointer on mouse down or up.
type Target interface {
	isTarget()
}

// Background is empty canvas.
type Background struct{}

// Control is a form control inside a node (parameter input, name field).
// Pressing on it never starts a drag.
type Control struct{}

// NodeBody is a node's card outside of its ports.
type NodeBody struct {
	NodeID string
}

// PortHandle is a port's connection handle.
type PortHandle struct {
	Key ports.Key
}

// EdgeLine is a rendered edge.
type EdgeLine struct {
	EdgeID string
}

func (Background) isTarget() {}
func (Control) isTarget()    {}
func (NodeBody) isTarget()   {}
func (PortHandle) isTarget() {}
func (EdgeLine) isTarget()   {}

// Selection holds at most one of a node or an edge.
type Selection struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.NodeID == "" && s.EdgeID == ""
}
