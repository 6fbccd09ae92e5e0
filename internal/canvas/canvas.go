// Package canvas owns a workflow's nodes, edges, and camera and wires the
// port registry, connection protocol, history engine, and interaction
// controller together behind an imperative API.
//
// Every mutating operation records a history entry before it changes the
// canvas, so each entry's snapshot is the canvas the edit started from.
// Node moves are recorded after the drag and patched back by the history
// engine. After any change to the node set, a node position, or the camera
// the port registry is resynchronized before the call returns.
package canvas

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/interaction"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// Errors returned by canvas operations.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrNoParameter  = errors.New("parameter not found")
)

var _ interaction.Editor = (*Canvas)(nil)

// EdgeHitTolerance is how close, in screen pixels, a point must be to an
// edge's line to hit it.
const EdgeHitTolerance = 6.0

// Canvas is the editing session for one workflow. It is not safe for
// concurrent use.
type Canvas struct {
	view  geom.View
	nodes []workflow.Node
	edges []workflow.Edge

	registry *ports.Registry
	layout   ports.GridLayout
	history  *history.Engine
	ctl      *interaction.Controller

	newID   func() string
	snap    float64
	zoom    geom.ZoomLimits
	logger  *slog.Logger
	histOpt []history.Option
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithLogger sets the logger shared by the canvas, its controller, and its
// history engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDs replaces the node and edge id generator.
func WithIDs(newID func() string) Option {
	return func(c *Canvas) { c.newID = newID }
}

// WithSnapRadius sets the edge snap capture radius in world units.
func WithSnapRadius(r float64) Option {
	return func(c *Canvas) {
		if r > 0 {
			c.snap = r
		}
	}
}

// WithZoomLimits sets the scale bounds and wheel sensitivity.
func WithZoomLimits(l geom.ZoomLimits) Option {
	return func(c *Canvas) { c.zoom = l }
}

// WithLayout replaces the card geometry used to place ports.
func WithLayout(l ports.GridLayout) Option {
	return func(c *Canvas) { c.layout = l }
}

// WithHistory passes options through to the history engine.
func WithHistory(opts ...history.Option) Option {
	return func(c *Canvas) { c.histOpt = append(c.histOpt, opts...) }
}

// New creates an empty canvas at the identity view.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		view:     geom.DefaultView(),
		registry: ports.NewRegistry(),
		layout:   ports.DefaultGridLayout(),
		newID:    uuid.NewString,
		snap:     connect.SnapDistance,
		zoom:     geom.DefaultZoomLimits(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	hopts := append([]history.Option{history.WithLogger(c.logger)}, c.histOpt...)
	c.history = history.New(c.capture, c.restore, hopts...)
	c.ctl = interaction.NewController(c, c.logger)
	return c
}

// Controller returns the interaction state machine bound to this canvas.
func (c *Canvas) Controller() *interaction.Controller {
	return c.ctl
}

// History returns the history engine.
func (c *Canvas) History() *history.Engine {
	return c.history
}

// State returns a deep copy of the canvas for persistence.
func (c *Canvas) State() workflow.State {
	return workflow.State{
		View:  c.view,
		Nodes: workflow.CloneNodes(c.nodes),
		Edges: workflow.CloneEdges(c.edges),
	}
}

// Load replaces nodes, edges, and view wholesale. Edges whose nodes are
// missing are dropped with a warning; any other invariant violation rejects
// the state and leaves the canvas unchanged. Undoable history is kept, but
// the loaded state becomes the present and any redo branch is dropped.
func (c *Canvas) Load(state workflow.State) error {
	state = state.Clone()
	orphaned, valid := workflow.DetectOrphanedEdges(state.Edges, state.Nodes)
	for _, o := range orphaned {
		c.logger.Warn("dropping orphaned edge", "edge", o.EdgeID, "reason", o.Reason)
	}
	state.Edges = valid
	if err := state.Validate(); err != nil {
		return fmt.Errorf("loading canvas: %w", err)
	}

	if state.View.Scale <= 0 {
		state.View = geom.DefaultView()
	}
	state.View.Scale = geom.Clamp(state.View.Scale, c.zoom.Min, c.zoom.Max)

	c.view = state.View
	c.nodes = state.Nodes
	c.edges = state.Edges
	c.history.DiscardRedo()
	c.sync()
	c.ctl.Forget(c.exists)
	c.logger.Debug("canvas loaded", "nodes", len(c.nodes), "edges", len(c.edges))
	return nil
}

// LoadWorkflow loads state as a different workflow: history is cleared and
// the selection dropped.
func (c *Canvas) LoadWorkflow(state workflow.State) error {
	if err := c.Load(state); err != nil {
		return err
	}
	c.history.Clear()
	c.ctl.ClearSelection()
	return nil
}

// Nodes returns a copy of the nodes in insertion order.
func (c *Canvas) Nodes() []workflow.Node {
	return workflow.CloneNodes(c.nodes)
}

// Edges returns a copy of the edges in insertion order.
func (c *Canvas) Edges() []workflow.Edge {
	return workflow.CloneEdges(c.edges)
}

// CenteredView returns a view at the current scale that centers the
// bounding box of every node card in viewport. It falls back to the
// identity view when the canvas is empty or the viewport has no extent.
func (c *Canvas) CenteredView(viewport geom.Size) geom.View {
	rects := make([]geom.Rect, len(c.nodes))
	for i, n := range c.nodes {
		rects[i] = c.layout.NodeRect(n)
	}
	return geom.CenteredView(viewport, geom.Bounds(rects), c.view.Scale)
}

// ValidateAndPrepareExecution checks that every required input has at least
// one incoming edge. The first offending node is selected and reported;
// on success the selection is cleared.
func (c *Canvas) ValidateAndPrepareExecution() workflow.ValidationResult {
	for _, n := range c.nodes {
		for _, p := range n.Data.Inputs {
			if !p.Required || len(workflow.Incoming(c.edges, n.ID, p.ID)) > 0 {
				continue
			}
			c.ctl.SelectNode(n.ID)
			name := p.Name
			if name == "" {
				name = p.ID
			}
			return workflow.ValidationResult{
				Error:  fmt.Sprintf("Node %q is missing required input %q", n.Data.NodeName, name),
				NodeID: n.ID,
			}
		}
	}
	c.ctl.ClearSelection()
	return workflow.ValidationResult{Success: true}
}

// Resolve hit-tests a screen point: ports first, then node bodies, then
// edges, falling back to the background.
func (c *Canvas) Resolve(p geom.Point) interaction.Target {
	world := geom.ScreenToWorld(p, c.view)
	key, nodeID, ok := c.layout.HitTest(c.nodes, world)
	switch {
	case ok && key.PortID != "":
		return interaction.PortHandle{Key: key}
	case ok:
		return interaction.NodeBody{NodeID: nodeID}
	}

	tol := EdgeHitTolerance / c.view.Scale
	for i := len(c.edges) - 1; i >= 0; i-- {
		e := c.edges[i]
		a, okA := c.registry.Get(ports.KeyOf(e.Source.Ref()))
		b, okB := c.registry.Get(ports.KeyOf(e.Target.Ref()))
		if okA && okB && segmentDist(world, a, b) <= tol {
			return interaction.EdgeLine{EdgeID: e.ID}
		}
	}
	return interaction.Background{}
}

func segmentDist(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}

// sync rewrites the port registry from a layout pass.
func (c *Canvas) sync() {
	container, boxes := c.layout.Measure(c.nodes, c.view)
	c.registry.Sync(container, boxes, c.view.Scale)
}

func (c *Canvas) capture() workflow.Snapshot {
	return workflow.Snapshot{Nodes: c.nodes, Edges: c.edges}.Clone()
}

func (c *Canvas) restore(s workflow.Snapshot) {
	c.nodes = s.Nodes
	c.edges = s.Edges
	c.sync()
	c.ctl.Forget(c.exists)
}

func (c *Canvas) exists(nodeID, edgeID string) bool {
	if nodeID != "" {
		return workflow.IndexOfNode(c.nodes, nodeID) >= 0
	}
	return workflow.IndexOfEdge(c.edges, edgeID) >= 0
}

// Editor implementation.

// View returns the camera.
func (c *Canvas) View() geom.View {
	return c.view
}

// SetView moves the camera. The scale is clamped to the zoom limits.
func (c *Canvas) SetView(v geom.View) {
	v.Scale = geom.Clamp(v.Scale, c.zoom.Min, c.zoom.Max)
	c.view = v
	c.sync()
}

// ZoomLimits returns the configured zoom bounds.
func (c *Canvas) ZoomLimits() geom.ZoomLimits {
	return c.zoom
}

// SnapRadius returns the edge snap capture radius.
func (c *Canvas) SnapRadius() float64 {
	return c.snap
}

// Node returns a copy of the node with the given id.
func (c *Canvas) Node(id string) (workflow.Node, bool) {
	i := workflow.IndexOfNode(c.nodes, id)
	if i < 0 {
		return workflow.Node{}, false
	}
	return c.nodes[i].Clone(), true
}

// Ports returns the port registry.
func (c *Canvas) Ports() *ports.Registry {
	return c.registry
}

// PortType returns the type tag of a registered port.
func (c *Canvas) PortType(k ports.Key) (string, bool) {
	p, ok := workflow.LookupIn(c.nodes)(k.Ref())
	if !ok {
		return "", false
	}
	return p.Type, true
}

// Endpoint resolves a port reference into an edge endpoint carrying the
// port's type tag.
func (c *Canvas) Endpoint(ref workflow.PortRef) (workflow.Endpoint, bool) {
	p, ok := workflow.LookupIn(c.nodes)(ref)
	if !ok {
		return workflow.Endpoint{}, false
	}
	return workflow.Endpoint{NodeID: ref.NodeID, PortID: ref.PortID, Kind: ref.Kind, Type: p.Type}, true
}

// SetNodePosition moves a node without recording history. Drags call it on
// every pointer move and record a single NODE_MOVE on release.
func (c *Canvas) SetNodePosition(id string, p geom.Point) {
	i := workflow.IndexOfNode(c.nodes, id)
	if i < 0 {
		return
	}
	c.nodes[i].Position = p
	c.sync()
}

// RecordMove records a completed drag of a node.
func (c *Canvas) RecordMove(id string, from, to geom.Point) {
	c.history.Record(history.NodeMove, "Moved "+c.nodeName(id), history.MoveDetails{NodeID: id, From: from, To: to})
}

func (c *Canvas) nodeName(id string) string {
	if i := workflow.IndexOfNode(c.nodes, id); i >= 0 && c.nodes[i].Data.NodeName != "" {
		return c.nodes[i].Data.NodeName
	}
	return id
}
