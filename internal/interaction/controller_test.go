package interaction

import (
	"fmt"
	"testing"

	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

type recorded struct {
	action string
	id     string
}

// fakeEditor keeps nodes and edges in slices and registers each port at a
// fixed offset from its node so snap geometry is predictable.
type fakeEditor struct {
	view   geom.View
	nodes  []workflow.Node
	edges  []workflow.Edge
	reg    *ports.Registry
	log    []recorded
	nextID int
}

func newFakeEditor() *fakeEditor {
	f := &fakeEditor{view: geom.DefaultView(), reg: ports.NewRegistry()}
	f.nodes = []workflow.Node{
		{ID: "a", Position: geom.Point{X: 0, Y: 0}, Data: workflow.NodeData{
			NodeName: "A",
			Outputs:  []workflow.Port{{ID: "out", Type: "INT"}},
		}},
		{ID: "b", Position: geom.Point{X: 200, Y: 0}, Data: workflow.NodeData{
			NodeName: "B",
			Inputs:   []workflow.Port{{ID: "in", Type: "FLOAT"}, {ID: "int", Type: "INT"}},
		}},
		{ID: "c", Position: geom.Point{X: 0, Y: 200}, Data: workflow.NodeData{
			NodeName: "C",
			Outputs:  []workflow.Port{{ID: "out", Type: "FLOAT"}},
		}},
	}
	f.sync()
	return f
}

// sync places inputs at (x, y+10*i) and outputs at (x+100, y+10*i).
func (f *fakeEditor) sync() {
	f.reg.Reset()
	for _, n := range f.nodes {
		for i, p := range n.Data.Inputs {
			f.reg.Set(ports.Key{NodeID: n.ID, PortID: p.ID, Kind: workflow.Input}, n.Position.Add(geom.Point{Y: 10 * float64(i)}))
		}
		for i, p := range n.Data.Outputs {
			f.reg.Set(ports.Key{NodeID: n.ID, PortID: p.ID, Kind: workflow.Output}, n.Position.Add(geom.Point{X: 100, Y: 10 * float64(i)}))
		}
	}
}

func (f *fakeEditor) View() geom.View { return f.view }
func (f *fakeEditor) SetView(v geom.View) { f.view = v; f.sync() }
func (f *fakeEditor) ZoomLimits() geom.ZoomLimits { return geom.DefaultZoomLimits() }
func (f *fakeEditor) SnapRadius() float64 { return connect.SnapDistance }
func (f *fakeEditor) Ports() *ports.Registry { return f.reg }
func (f *fakeEditor) lookup() workflow.PortLookup { return workflow.LookupIn(f.nodes) }
func (f *fakeEditor) record(action, id string) { f.log = append(f.log, recorded{action, id}) }
func (f *fakeEditor) RecordMove(id string, _, _ geom.Point) { f.record("move", id) }

func (f *fakeEditor) Node(id string) (workflow.Node, bool) {
	i := workflow.IndexOfNode(f.nodes, id)
	if i < 0 {
		return workflow.Node{}, false
	}
	return f.nodes[i], true
}

func (f *fakeEditor) SetNodePosition(id string, p geom.Point) {
	if i := workflow.IndexOfNode(f.nodes, id); i >= 0 {
		f.nodes[i].Position = p
		f.sync()
	}
}

func (f *fakeEditor) PortType(k ports.Key) (string, bool) {
	p, ok := f.lookup()(k.Ref())
	return p.Type, ok
}

func (f *fakeEditor) LiftEdge(input workflow.PortRef) (workflow.Endpoint, bool) {
	lifted, ok := connect.Lift(f.edges, f.lookup(), input)
	if !ok {
		return workflow.Endpoint{}, false
	}
	f.record("edge-delete", lifted.Edge.ID)
	f.edges = lifted.Edges
	return lifted.Source, true
}

func (f *fakeEditor) Connect(source workflow.Endpoint, target ports.Key) (workflow.Edge, error) {
	f.nextID++
	res, err := connect.Commit(f.edges, f.lookup(), &source, target, fmt.Sprintf("e%d", f.nextID))
	if err != nil {
		return workflow.Edge{}, err
	}
	f.record("edge-create", res.Created.ID)
	f.edges = res.Edges
	return res.Created, nil
}

func (f *fakeEditor) PasteNode(data workflow.NodeData, at geom.Point) (workflow.Node, error) {
	f.nextID++
	n := workflow.Node{ID: fmt.Sprintf("n%d", f.nextID), Position: at, Data: data}
	f.nodes = append(f.nodes, n)
	f.record("node-create", n.ID)
	f.sync()
	return n, nil
}

func (f *fakeEditor) DeleteNode(id string) error {
	i := workflow.IndexOfNode(f.nodes, id)
	if i < 0 {
		return fmt.Errorf("node %s not found", id)
	}
	f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
	f.edges, _ = workflow.WithoutNode(f.edges, id)
	f.record("node-delete", id)
	f.sync()
	return nil
}

func (f *fakeEditor) DeleteEdge(id string) error {
	i := workflow.IndexOfEdge(f.edges, id)
	if i < 0 {
		return fmt.Errorf("edge %s not found", id)
	}
	f.edges = append(f.edges[:i], f.edges[i+1:]...)
	f.record("edge-delete", id)
	return nil
}

func outKey(node string) ports.Key {
	return ports.Key{NodeID: node, PortID: "out", Kind: workflow.Output}
}

func inKey(node, port string) ports.Key {
	return ports.Key{NodeID: node, PortID: port, Kind: workflow.Input}
}

func TestController_PanBackground(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.SelectNode("a")

	c.MouseDown(geom.Point{X: 10, Y: 10}, Background{})
	if _, ok := c.Drag().(DragCanvas); !ok {
		t.Fatalf("drag = %T, want DragCanvas", c.Drag())
	}
	if !c.Selection().Empty() {
		t.Error("background mousedown should clear selection")
	}
	c.MouseMove(geom.Point{X: 40, Y: -5})
	if f.view.X != 30 || f.view.Y != -15 {
		t.Errorf("view = %v, want (30,-15)", f.view)
	}
	c.MouseUp(geom.Point{X: 40, Y: -5}, Background{})
	if _, ok := c.Drag().(DragNone); !ok {
		t.Errorf("drag = %T after mouseup", c.Drag())
	}
	if len(f.log) != 0 {
		t.Errorf("panning must not record history: %v", f.log)
	}
}

func TestController_ControlDoesNotDrag(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.SelectNode("a")
	c.MouseDown(geom.Point{}, Control{})
	if _, ok := c.Drag().(DragNone); !ok {
		t.Errorf("drag = %T", c.Drag())
	}
	if c.Selection().NodeID != "a" {
		t.Error("pressing a control keeps the selection")
	}
}

func TestController_NodeDragScalesByView(t *testing.T) {
	f := newFakeEditor()
	f.view = geom.View{X: 0, Y: 0, Scale: 2}
	c := NewController(f, nil)

	c.MouseDown(geom.Point{X: 420, Y: 20}, NodeBody{NodeID: "b"})
	if c.Selection().NodeID != "b" {
		t.Error("node mousedown selects the node")
	}
	c.MouseMove(geom.Point{X: 520, Y: 60})
	b, _ := f.Node("b")
	if b.Position != (geom.Point{X: 250, Y: 20}) {
		t.Errorf("position = %v, want (250,20)", b.Position)
	}
	c.MouseUp(geom.Point{X: 520, Y: 60}, NodeBody{NodeID: "b"})
	if len(f.log) != 1 || f.log[0] != (recorded{"move", "b"}) {
		t.Errorf("log = %v, want one move", f.log)
	}
}

func TestController_NodeClickWithoutMoveRecordsNothing(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.MouseDown(geom.Point{X: 210, Y: 5}, NodeBody{NodeID: "b"})
	c.MouseUp(geom.Point{X: 210, Y: 5}, NodeBody{NodeID: "b"})
	if len(f.log) != 0 {
		t.Errorf("a click must not record a move: %v", f.log)
	}
}

func TestController_EdgeDragSnapsAndCommits(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)

	c.MouseDown(geom.Point{X: 100, Y: 0}, PortHandle{Key: outKey("a")})
	if _, ok := c.Drag().(DragEdge); !ok {
		t.Fatalf("drag = %T, want DragEdge", c.Drag())
	}
	if c.Preview() == nil || c.Preview().Start != (geom.Point{X: 100, Y: 0}) {
		t.Fatalf("preview = %+v", c.Preview())
	}

	c.MouseMove(geom.Point{X: 190, Y: 3})
	snap := c.Preview().Snap
	if snap == nil || snap.Key != inKey("b", "in") {
		t.Fatalf("snap = %+v, want b.in", snap)
	}
	if c.Preview().Invalid() {
		t.Error("INT -> FLOAT is valid")
	}

	// Dropping on background still commits to the snap target.
	c.MouseUp(geom.Point{X: 190, Y: 3}, Background{})
	if len(f.edges) != 1 || f.edges[0].Target.PortID != "in" {
		t.Fatalf("edges = %+v", f.edges)
	}
	if c.Preview() != nil {
		t.Error("preview must be cleared after mouseup")
	}
}

func TestController_InvalidSnapIsFlaggedAndRejected(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)

	c.MouseDown(geom.Point{X: 100, Y: 200}, PortHandle{Key: outKey("c")})
	c.MouseMove(geom.Point{X: 201, Y: 11})
	if c.Preview().Snap == nil || c.Preview().Snap.Key != inKey("b", "int") {
		t.Fatalf("snap = %+v, want b.int", c.Preview().Snap)
	}
	if !c.Preview().Invalid() {
		t.Error("FLOAT -> INT must be flagged invalid")
	}
	if _, ok := c.Drag().(DragEdge); !ok {
		t.Error("an invalid target must not end the drag")
	}
	c.MouseUp(geom.Point{X: 201, Y: 11}, Background{})
	if len(f.edges) != 0 {
		t.Errorf("incompatible drop created %v", f.edges)
	}
}

func TestController_DropOnEmptySpace(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.MouseDown(geom.Point{X: 100, Y: 0}, PortHandle{Key: outKey("a")})
	c.MouseMove(geom.Point{X: 600, Y: 600})
	c.MouseUp(geom.Point{X: 600, Y: 600}, Background{})
	if len(f.edges) != 0 || len(f.log) != 0 {
		t.Errorf("edges=%v log=%v", f.edges, f.log)
	}
}

func TestController_ReconnectLiftsEdge(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	if _, err := f.Connect(workflow.Endpoint{NodeID: "a", PortID: "out", Kind: workflow.Output, Type: "INT"}, inKey("b", "in")); err != nil {
		t.Fatal(err)
	}
	f.log = nil

	c.MouseDown(geom.Point{X: 200, Y: 0}, PortHandle{Key: inKey("b", "in")})
	if len(f.edges) != 0 {
		t.Fatal("lifting must remove the edge from the live collection")
	}
	p := c.Preview()
	if p == nil || p.Source.NodeID != "a" || p.Source.Kind != workflow.Output {
		t.Fatalf("preview should be rooted at the original source, got %+v", p)
	}
	if p.Start != (geom.Point{X: 100, Y: 0}) {
		t.Errorf("preview start = %v, want a.out position", p.Start)
	}

	// Dropping back onto the same port recreates it: delete + create.
	c.MouseUp(geom.Point{X: 200, Y: 0}, PortHandle{Key: inKey("b", "in")})
	if len(f.edges) != 1 {
		t.Fatalf("edges = %v", f.edges)
	}
	if len(f.log) != 2 || f.log[0].action != "edge-delete" || f.log[1].action != "edge-create" {
		t.Errorf("log = %v, want delete then create", f.log)
	}
}

func TestController_ReconnectReleasedOnEmptySpaceDeletes(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	f.Connect(workflow.Endpoint{NodeID: "a", PortID: "out", Kind: workflow.Output}, inKey("b", "in"))

	c.MouseDown(geom.Point{X: 200, Y: 0}, PortHandle{Key: inKey("b", "in")})
	c.MouseMove(geom.Point{X: 900, Y: 900})
	c.MouseUp(geom.Point{X: 900, Y: 900}, Background{})
	if len(f.edges) != 0 {
		t.Errorf("edges = %v, want none", f.edges)
	}
}

func TestController_EmptyInputDoesNotStartDrag(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.MouseDown(geom.Point{X: 200, Y: 0}, PortHandle{Key: inKey("b", "in")})
	if _, ok := c.Drag().(DragNone); !ok {
		t.Errorf("drag = %T", c.Drag())
	}
}

func TestController_IgnoresReentrantMouseDown(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.MouseDown(geom.Point{X: 10, Y: 10}, NodeBody{NodeID: "a"})
	c.MouseDown(geom.Point{X: 10, Y: 10}, Background{})
	if _, ok := c.Drag().(DragNode); !ok {
		t.Errorf("drag = %T, want the original DragNode", c.Drag())
	}
}

func TestController_MouseLeaveResets(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	c.MouseDown(geom.Point{X: 100, Y: 0}, PortHandle{Key: outKey("a")})
	c.MouseLeave()
	if _, ok := c.Drag().(DragNone); !ok || c.Preview() != nil {
		t.Errorf("drag=%T preview=%v", c.Drag(), c.Preview())
	}
}

func TestController_WheelZoomsAroundCursor(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	cursor := geom.Point{X: 300, Y: 150}
	before := geom.ScreenToWorld(cursor, f.view)

	c.Wheel(cursor, -120)
	if f.view.Scale <= 1 {
		t.Fatalf("scale = %v, want zoom in", f.view.Scale)
	}
	after := geom.WorldToScreen(before, f.view)
	if after.Dist(cursor) > 1e-9 {
		t.Errorf("cursor drifted to %v", after)
	}
	if len(f.log) != 0 {
		t.Error("zoom must not record history")
	}
}

func TestController_CopyPasteDelete(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)

	if c.Key(KeyEvent{Key: "c", Ctrl: true}) {
		t.Error("copy without selection should not be consumed")
	}
	c.SelectNode("a")
	if !c.Key(KeyEvent{Key: "c", Ctrl: true}) {
		t.Fatal("copy failed")
	}
	if !c.Key(KeyEvent{Key: "v", Meta: true}) {
		t.Fatal("paste failed")
	}
	pasted := f.nodes[len(f.nodes)-1]
	if pasted.ID == "a" || pasted.Position != (geom.Point{X: 50, Y: 50}) {
		t.Errorf("pasted = %+v", pasted)
	}
	if pasted.Data.NodeName != "A" {
		t.Errorf("pasted data = %+v", pasted.Data)
	}
	if c.Selection().NodeID != pasted.ID {
		t.Error("paste selects the new node")
	}

	if !c.Key(KeyEvent{Key: "Delete"}) {
		t.Fatal("delete failed")
	}
	if workflow.IndexOfNode(f.nodes, pasted.ID) >= 0 {
		t.Error("selected node still present")
	}
	if !c.Selection().Empty() {
		t.Error("delete clears selection")
	}
}

func TestController_DeleteSelectedEdge(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	edge, _ := f.Connect(workflow.Endpoint{NodeID: "a", PortID: "out", Kind: workflow.Output}, inKey("b", "in"))

	c.MouseDown(geom.Point{}, EdgeLine{EdgeID: edge.ID})
	if c.Selection().EdgeID != edge.ID || c.Selection().NodeID != "" {
		t.Fatalf("selection = %+v", c.Selection())
	}
	c.Key(KeyEvent{Key: "Backspace"})
	if len(f.edges) != 0 {
		t.Error("selected edge not deleted")
	}
}

func TestController_Dispatch(t *testing.T) {
	f := newFakeEditor()
	c := NewController(f, nil)
	events := []Event{
		{Type: EventMouseDown, X: 100, Y: 0, Target: &TargetSpec{Kind: "port", NodeID: "a", PortID: "out", PortKind: workflow.Output}},
		{Type: EventMouseMove, X: 195, Y: 2},
		{Type: EventMouseUp, X: 195, Y: 2},
	}
	for _, ev := range events {
		if err := c.Dispatch(ev, nil); err != nil {
			t.Fatalf("Dispatch(%s): %v", ev.Type, err)
		}
	}
	if len(f.edges) != 1 {
		t.Errorf("edges = %v", f.edges)
	}
	if err := c.Dispatch(Event{Type: "bogus"}, nil); err == nil {
		t.Error("unknown event types are errors")
	}
	if err := c.Dispatch(Event{Type: EventMouseDown, Target: &TargetSpec{Kind: "bogus"}}, nil); err == nil {
		t.Error("unknown target kinds are errors")
	}
}
