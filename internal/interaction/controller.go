package interaction

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// PasteOffset is how far a pasted clone lands from the copied node, in world units.
var PasteOffset = geom.Point{X: 50, Y: 50}

// Controller is the interaction state machine. Pointer positions are screen
// coordinates relative to the canvas element.
type Controller struct {
	editor    Editor
	drag      Drag
	preview   *EdgePreview
	selection Selection
	clipboard *copied
	logger    *slog.Logger
}

type copied struct {
	data     workflow.NodeData
	position geom.Point
}

// NewController creates an idle controller for editor.
func NewController(editor Editor, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{editor: editor, drag: DragNone{}, logger: logger}
}

// Drag returns the live gesture.
func (c *Controller) Drag() Drag {
	return c.drag
}

// Preview returns the edge preview, or nil outside of an edge drag.
func (c *Controller) Preview() *EdgePreview {
	return c.preview
}

// Selection returns the current selection.
func (c *Controller) Selection() Selection {
	return c.selection
}

// SelectNode selects a node and clears any edge selection.
func (c *Controller) SelectNode(id string) {
	c.selection = Selection{NodeID: id}
}

// SelectEdge selects an edge and clears any node selection.
func (c *Controller) SelectEdge(id string) {
	c.selection = Selection{EdgeID: id}
}

// ClearSelection deselects everything.
func (c *Controller) ClearSelection() {
	c.selection = Selection{}
}

// Forget drops references to a node or edge that no longer exists, such as
// after an undo replaced the canvas.
func (c *Controller) Forget(exists func(nodeID, edgeID string) bool) {
	if c.selection.Empty() {
		return
	}
	if !exists(c.selection.NodeID, c.selection.EdgeID) {
		c.selection = Selection{}
	}
}

func (c *Controller) world(p geom.Point) geom.Point {
	return geom.ScreenToWorld(p, c.editor.View())
}

// MouseDown starts a gesture according to what is under the pointer. It is
// ignored while another gesture is live.
func (c *Controller) MouseDown(p geom.Point, target Target) {
	if _, idle := c.drag.(DragNone); !idle {
		c.logger.Debug("mousedown ignored during drag", "drag", dragName(c.drag))
		return
	}

	switch t := target.(type) {
	case Background:
		c.selection = Selection{}
		c.drag = DragCanvas{Anchor: geom.PanAnchor(p, c.editor.View())}
	case Control:
		// Form controls keep the pointer.
	case NodeBody:
		n, ok := c.editor.Node(t.NodeID)
		if !ok {
			return
		}
		c.SelectNode(n.ID)
		c.drag = DragNode{
			NodeID: n.ID,
			Offset: c.world(p).Sub(n.Position),
			From:   n.Position,
		}
	case PortHandle:
		c.startEdge(p, t.Key)
	case EdgeLine:
		c.SelectEdge(t.EdgeID)
	case nil:
	}
}

func (c *Controller) startEdge(p geom.Point, k ports.Key) {
	var source workflow.Endpoint
	switch k.Kind {
	case workflow.Output:
		typ, ok := c.editor.PortType(k)
		if !ok {
			return
		}
		source = workflow.Endpoint{NodeID: k.NodeID, PortID: k.PortID, Kind: workflow.Output, Type: typ}
	case workflow.Input:
		lifted, ok := c.editor.LiftEdge(k.Ref())
		if !ok {
			return
		}
		source = lifted
	default:
		return
	}

	start, ok := c.editor.Ports().Get(ports.KeyOf(source.Ref()))
	if !ok {
		start = c.world(p)
	}
	c.drag = DragEdge{}
	c.preview = &EdgePreview{Source: source, Start: start, Target: c.world(p)}
	c.updateSnap()
}

func (c *Controller) updateSnap() {
	snap, ok := connect.FindSnap(c.editor.Ports(), c.editor.PortType, c.preview.Source, c.preview.Target, c.editor.SnapRadius())
	if !ok {
		c.preview.Snap = nil
		return
	}
	c.preview.Snap = &snap
}

// MouseMove advances the live gesture.
func (c *Controller) MouseMove(p geom.Point) {
	switch d := c.drag.(type) {
	case DragNone:
	case DragCanvas:
		c.editor.SetView(geom.Pan(p, d.Anchor, c.editor.View()))
	case DragNode:
		c.editor.SetNodePosition(d.NodeID, c.world(p).Sub(d.Offset))
	case DragEdge:
		if c.preview == nil {
			return
		}
		c.preview.Target = c.world(p)
		c.updateSnap()
	}
}

// MouseUp finishes the live gesture. A node drag that moved records
// NODE_MOVE; an edge drag commits to the snap target or the port under the
// pointer. The machine always returns to DragNone.
func (c *Controller) MouseUp(p geom.Point, target Target) {
	switch d := c.drag.(type) {
	case DragNone, DragCanvas:
	case DragNode:
		c.finishNode(d)
	case DragEdge:
		if c.preview != nil {
			c.preview.Target = c.world(p)
			c.updateSnap()
			c.dropEdge(target)
		}
	}
	c.reset()
}

// MouseLeave abandons the live gesture. A node that was dragged keeps its
// new position and the move is recorded; an edge preview is discarded.
func (c *Controller) MouseLeave() {
	if d, ok := c.drag.(DragNode); ok {
		c.finishNode(d)
	}
	c.reset()
}

func (c *Controller) reset() {
	c.drag = DragNone{}
	c.preview = nil
}

func (c *Controller) finishNode(d DragNode) {
	n, ok := c.editor.Node(d.NodeID)
	if !ok || n.Position == d.From {
		return
	}
	c.editor.RecordMove(d.NodeID, d.From, n.Position)
}

func (c *Controller) dropEdge(target Target) {
	var dropped ports.Key
	switch {
	case c.preview.Snap != nil:
		dropped = c.preview.Snap.Key
	default:
		h, ok := target.(PortHandle)
		if !ok {
			c.logger.Debug("edge dropped on empty space", "source", c.preview.Source.NodeID)
			return
		}
		dropped = h.Key
	}

	edge, err := c.editor.Connect(c.preview.Source, dropped)
	if err != nil {
		if isPolicy(err) {
			c.logger.Debug("connection rejected", "target", dropped.String(), "reason", err)
			return
		}
		c.logger.Warn("connection failed", "target", dropped.String(), "error", err)
		return
	}
	c.logger.Debug("edge connected", "edge", edge.ID)
}

func isPolicy(err error) bool {
	for _, p := range []error{
		connect.ErrNoSource, connect.ErrSamePortKind, connect.ErrSameNode,
		connect.ErrDuplicateEdge, connect.ErrIncompatible, connect.ErrUnknownPort,
	} {
		if errors.Is(err, p) {
			return true
		}
	}
	return false
}

// Wheel zooms around the pointer. Camera changes are not historized.
func (c *Controller) Wheel(p geom.Point, deltaY float64) {
	v, changed := geom.Zoom(c.editor.View(), deltaY, p, c.editor.ZoomLimits())
	if !changed {
		return
	}
	c.editor.SetView(v)
}

// KeyEvent is a key press. Key uses DOM key names ("c", "v", "Delete", "Backspace").
type KeyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl,omitempty"`
	Meta bool   `json:"meta,omitempty"`
}

// Key handles clipboard and delete shortcuts. It reports whether the key was
// consumed.
func (c *Controller) Key(ev KeyEvent) bool {
	mod := ev.Ctrl || ev.Meta
	switch {
	case mod && strings.EqualFold(ev.Key, "c"):
		return c.Copy()
	case mod && strings.EqualFold(ev.Key, "v"):
		_, ok := c.Paste()
		return ok
	case ev.Key == "Delete" || ev.Key == "Backspace":
		return c.DeleteSelection()
	}
	return false
}

// Copy snapshots the selected node's data.
func (c *Controller) Copy() bool {
	if c.selection.NodeID == "" {
		return false
	}
	n, ok := c.editor.Node(c.selection.NodeID)
	if !ok {
		return false
	}
	c.clipboard = &copied{data: n.Data.Clone(), position: n.Position}
	return true
}

// Copied returns the clipboard contents.
func (c *Controller) Copied() (workflow.NodeData, bool) {
	if c.clipboard == nil {
		return workflow.NodeData{}, false
	}
	return c.clipboard.data.Clone(), true
}

// Paste inserts a clone of the copied node offset by PasteOffset and selects it.
func (c *Controller) Paste() (workflow.Node, bool) {
	if c.clipboard == nil {
		return workflow.Node{}, false
	}
	n, err := c.editor.PasteNode(c.clipboard.data.Clone(), c.clipboard.position.Add(PasteOffset))
	if err != nil {
		c.logger.Warn("paste failed", "error", err)
		return workflow.Node{}, false
	}
	c.SelectNode(n.ID)
	return n, true
}

// DeleteSelection removes the selected node (with its edges) or edge.
func (c *Controller) DeleteSelection() bool {
	sel := c.selection
	var err error
	switch {
	case sel.NodeID != "":
		err = c.editor.DeleteNode(sel.NodeID)
	case sel.EdgeID != "":
		err = c.editor.DeleteEdge(sel.EdgeID)
	default:
		return false
	}
	c.selection = Selection{}
	if err != nil {
		c.logger.Warn("delete failed", "selection", sel, "error", err)
		return false
	}
	return true
}

func dragName(d Drag) string {
	switch d.(type) {
	case DragNone:
		return "none"
	case DragCanvas:
		return "canvas"
	case DragNode:
		return "node"
	case DragEdge:
		return "edge"
	}
	return "unknown"
}
