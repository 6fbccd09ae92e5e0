package canvas

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/interaction"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

func newTestCanvas(t *testing.T) *Canvas {
	t.Helper()
	n := 0
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return New(
		WithIDs(func() string { n++; return fmt.Sprintf("id%d", n) }),
		WithHistory(history.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		})),
	)
}

func template(name string) workflow.NodeData {
	return workflow.NodeData{
		NodeName:   name,
		Type:       "Scale",
		Inputs:     []workflow.Port{{ID: "in", Name: "value", Type: workflow.TypeFloat, Required: true}},
		Outputs:    []workflow.Port{{ID: "out", Name: "result", Type: workflow.TypeInt}},
		Parameters: []workflow.Parameter{{Name: "factor", Type: "number", Value: 1.0}},
	}
}

func out(n workflow.Node) workflow.PortRef {
	return workflow.PortRef{NodeID: n.ID, PortID: "out", Kind: workflow.Output}
}

func in(n workflow.Node) workflow.PortRef {
	return workflow.PortRef{NodeID: n.ID, PortID: "in", Kind: workflow.Input}
}

func TestCanvas_UndoRedoScenario(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 100, 100)
	b := c.AddNode(template("B"), 300, 100)
	if _, err := c.ConnectPorts(out(a), in(b)); err != nil {
		t.Fatalf("ConnectPorts: %v", err)
	}

	c.Undo()
	if len(c.Edges()) != 0 || len(c.Nodes()) != 2 {
		t.Fatalf("after undo 1: nodes=%d edges=%d", len(c.Nodes()), len(c.Edges()))
	}
	c.Undo()
	if _, ok := c.Node(b.ID); ok || len(c.Nodes()) != 1 {
		t.Fatal("after undo 2: node B should be gone")
	}
	c.Redo()
	got, ok := c.Node(b.ID)
	if !ok || got.Position != (geom.Point{X: 300, Y: 100}) {
		t.Fatalf("after redo 1: B = %+v, %v", got, ok)
	}
	c.Redo()
	if len(c.Edges()) != 1 {
		t.Fatal("after redo 2: edge should reappear")
	}
	if c.History().CanRedo() {
		t.Error("redo should be exhausted")
	}
}

func TestCanvas_NUndoNRedo(t *testing.T) {
	c := newTestCanvas(t)
	initial := c.State()

	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 400, 0)
	if _, err := c.ConnectPorts(out(a), in(b)); err != nil {
		t.Fatal(err)
	}
	steps := []func() error{
		func() error { return c.MoveNode(a.ID, geom.Point{X: 10, Y: 20}) },
		func() error { return c.RenameNode(b.ID, "Bee") },
		func() error { return c.SetParameter(a.ID, "factor", 2.5) },
		func() error { _, err := c.DuplicateNode(a.ID); return err },
		func() error { return c.DeleteNode(a.ID) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	final := c.State()
	n := c.History().Len()
	if n != 8 {
		t.Fatalf("history len = %d, want 8", n)
	}

	for i := 0; i < n; i++ {
		if _, ok := c.Undo(); !ok {
			t.Fatalf("undo %d failed", i)
		}
	}
	if len(c.Nodes()) != len(initial.Nodes) || len(c.Edges()) != len(initial.Edges) {
		t.Errorf("after %d undos: %+v", n, c.State())
	}
	if c.Ports().Len() != 0 {
		t.Errorf("registry should be empty, has %d ports", c.Ports().Len())
	}

	for i := 0; i < n; i++ {
		if _, ok := c.Redo(); !ok {
			t.Fatalf("redo %d failed", i)
		}
	}
	if !reflect.DeepEqual(c.State(), final) {
		t.Errorf("after redos:\n got %+v\nwant %+v", c.State(), final)
	}
}

func TestCanvas_MoveUndoRestoresPosition(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	if err := c.MoveNode(a.ID, geom.Point{X: 70, Y: 80}); err != nil {
		t.Fatal(err)
	}
	c.Undo()
	got, _ := c.Node(a.ID)
	if got.Position != (geom.Point{}) {
		t.Errorf("position after undo = %v", got.Position)
	}
	pos, ok := c.Ports().Get(ports.KeyOf(out(a)))
	if !ok || pos != (geom.Point{X: 180, Y: 44}) {
		t.Errorf("registry not resynced on restore: %v %v", pos, ok)
	}
}

func TestCanvas_AddNodeUsesView(t *testing.T) {
	c := newTestCanvas(t)
	c.SetView(geom.View{X: 50, Y: -20, Scale: 2})
	n := c.AddNode(template("A"), 250, 180)
	if n.Position != (geom.Point{X: 100, Y: 100}) {
		t.Errorf("position = %v, want (100,100)", n.Position)
	}
}

func TestCanvas_SingleSlotReplacementAndMulti(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 0, 200)
	sink := workflow.NodeData{
		NodeName: "Sink",
		Inputs: []workflow.Port{
			{ID: "in", Type: workflow.TypeFloat},
			{ID: "all", Type: workflow.TypeAny, Multi: true},
		},
	}
	s := c.AddNode(sink, 400, 0)

	first, err := c.ConnectPorts(out(a), in(s))
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.ConnectPorts(out(b), in(s))
	if err != nil {
		t.Fatal(err)
	}
	incoming := workflow.Incoming(c.Edges(), s.ID, "in")
	if len(incoming) != 1 || incoming[0].ID != second.ID {
		t.Errorf("incoming = %+v, want only %s", incoming, second.ID)
	}
	d, ok := c.Entries()[0].Details.(history.EdgeDetails)
	if !ok || !reflect.DeepEqual(d.Replaced, []string{first.ID}) {
		t.Errorf("details = %+v", c.Entries()[0].Details)
	}

	all := workflow.PortRef{NodeID: s.ID, PortID: "all", Kind: workflow.Input}
	for _, src := range []workflow.Node{a, b} {
		if _, err := c.ConnectPorts(out(src), all); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(workflow.Incoming(c.Edges(), s.ID, "all")); got != 2 {
		t.Errorf("multi port has %d edges, want 2", got)
	}
}

func TestCanvas_ConnectRejections(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 400, 0)
	intSink := c.AddNode(workflow.NodeData{NodeName: "I", Inputs: []workflow.Port{{ID: "in", Type: workflow.TypeInt}}}, 0, 400)
	floatSrc := c.AddNode(workflow.NodeData{NodeName: "F", Outputs: []workflow.Port{{ID: "out", Type: workflow.TypeFloat}}}, 400, 400)
	if _, err := c.ConnectPorts(out(a), in(b)); err != nil {
		t.Fatal(err)
	}
	before := c.History().Len()

	tests := []struct {
		name   string
		source workflow.PortRef
		target workflow.PortRef
		want   error
	}{
		{"duplicate", out(a), in(b), connect.ErrDuplicateEdge},
		{"same node", out(a), in(a), connect.ErrSameNode},
		{"same kind", out(a), out(b), connect.ErrSamePortKind},
		{"float to int", out(floatSrc), in(intSink), connect.ErrIncompatible},
		{"unknown source", workflow.PortRef{NodeID: "nope", PortID: "out", Kind: workflow.Output}, in(b), connect.ErrUnknownPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ConnectPorts(tt.source, tt.target)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if c.History().Len() != before || len(c.Edges()) != 1 {
		t.Error("rejections must not mutate the canvas or history")
	}
}

func TestCanvas_DeleteNodesIgnoresRepeatedIDs(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 400, 0)

	if err := c.DeleteNodes([]string{a.ID, a.ID}); err != nil {
		t.Fatal(err)
	}
	latest := c.Entries()[0]
	if latest.ActionType != history.NodeDelete || latest.Description != "Deleted node A" {
		t.Errorf("entry = %s %q, want a single NODE_DELETE", latest.ActionType, latest.Description)
	}

	c.Undo()
	if err := c.DeleteNodes([]string{a.ID, b.ID, a.ID}); err != nil {
		t.Fatal(err)
	}
	latest = c.Entries()[0]
	if latest.Description != "Deleted 2 nodes" {
		t.Errorf("description = %q", latest.Description)
	}
	if steps := latest.Details.(history.MultiDetails).Steps; len(steps) != 2 {
		t.Errorf("steps = %+v, want 2", steps)
	}
}

func TestCanvas_DeleteNodes(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 400, 0)
	d := c.AddNode(template("D"), 800, 0)
	c.ConnectPorts(out(a), in(b))
	c.ConnectPorts(out(b), in(d))

	if err := c.DeleteNodes([]string{a.ID, "missing"}); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(c.Nodes()) != 3 {
		t.Fatal("failed delete must not remove anything")
	}

	if err := c.DeleteNodes([]string{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	if len(c.Nodes()) != 1 || len(c.Edges()) != 0 {
		t.Errorf("nodes=%d edges=%d", len(c.Nodes()), len(c.Edges()))
	}
	latest := c.Entries()[0]
	if latest.ActionType != history.MultiAction {
		t.Errorf("action = %s, want MULTI_ACTION", latest.ActionType)
	}
	if steps := latest.Details.(history.MultiDetails).Steps; len(steps) != 2 {
		t.Errorf("steps = %+v", steps)
	}
	for _, k := range c.Ports().Keys() {
		if k.NodeID != d.ID {
			t.Errorf("stale port %s left in registry", k)
		}
	}

	if err := c.DeleteNode(d.ID); err != nil {
		t.Fatal(err)
	}
	if c.Entries()[0].ActionType != history.NodeDelete {
		t.Errorf("single delete action = %s", c.Entries()[0].ActionType)
	}
}

func TestCanvas_UpdatesAreNoOpsWhenUnchanged(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	n := c.History().Len()
	c.RenameNode(a.ID, "A")
	c.SetParameter(a.ID, "factor", 1.0)
	c.MoveNode(a.ID, a.Position)
	if c.History().Len() != n {
		t.Error("no-op edits must not record history")
	}
	if err := c.SetParameter(a.ID, "missing", 3); !errors.Is(err, ErrNoParameter) {
		t.Errorf("err = %v", err)
	}
	if err := c.DeleteEdge("missing"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestCanvas_ValidateAndPrepareExecution(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(workflow.NodeData{NodeName: "Source", Outputs: []workflow.Port{{ID: "out", Type: workflow.TypeInt}}}, 0, 0)
	b := c.AddNode(template("B"), 400, 0)

	res := c.ValidateAndPrepareExecution()
	if res.Success || res.NodeID != b.ID || res.Error == "" {
		t.Fatalf("result = %+v", res)
	}
	if c.Controller().Selection().NodeID != b.ID {
		t.Error("offending node should be selected")
	}

	c.ConnectPorts(out(a), in(b))
	res = c.ValidateAndPrepareExecution()
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !c.Controller().Selection().Empty() {
		t.Error("success clears the selection")
	}
}

func TestCanvas_CenteredView(t *testing.T) {
	c := newTestCanvas(t)
	if v := c.CenteredView(geom.Size{W: 800, H: 600}); v != geom.DefaultView() {
		t.Errorf("empty canvas view = %v", v)
	}
	c.AddNode(workflow.NodeData{NodeName: "A"}, 0, 0)
	v := c.CenteredView(geom.Size{W: 800, H: 600})
	// One 180x32 card centered at (90,16).
	if v.X != 310 || v.Y != 284 || v.Scale != 1 {
		t.Errorf("view = %v", v)
	}
	if v := c.CenteredView(geom.Size{}); v != geom.DefaultView() {
		t.Errorf("zero viewport view = %v", v)
	}
}

func TestCanvas_LoadWhileRewoundBecomesPresent(t *testing.T) {
	c := newTestCanvas(t)
	c.AddNode(template("A"), 0, 0)
	c.Undo()

	x := workflow.Node{ID: "x", Data: template("X")}
	if err := c.Load(workflow.State{View: geom.DefaultView(), Nodes: []workflow.Node{x}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.History().CanRedo() || c.History().Index() != history.Present {
		t.Errorf("index = %d, want Present with nothing to redo", c.History().Index())
	}
	if _, ok := c.Redo(); ok {
		t.Error("Redo after Load should be a no-op")
	}
	nodes := c.Nodes()
	if len(nodes) != 1 || nodes[0].ID != "x" {
		t.Errorf("nodes = %+v, want only the loaded node", nodes)
	}
}

func TestCanvas_Load(t *testing.T) {
	c := newTestCanvas(t)
	a := workflow.Node{ID: "a", Data: template("A")}
	b := workflow.Node{ID: "b", Position: geom.Point{X: 400}, Data: template("B")}
	state := workflow.State{
		View:  geom.View{X: 5, Y: 5, Scale: 100},
		Nodes: []workflow.Node{a, b},
		Edges: []workflow.Edge{
			{ID: "e1", Source: workflow.Endpoint{NodeID: "a", PortID: "out", Kind: workflow.Output}, Target: workflow.Endpoint{NodeID: "b", PortID: "in", Kind: workflow.Input}},
			{ID: "e2", Source: workflow.Endpoint{NodeID: "gone", PortID: "out", Kind: workflow.Output}, Target: workflow.Endpoint{NodeID: "b", PortID: "in", Kind: workflow.Input}},
		},
	}
	c.AddNode(template("old"), 0, 0)

	if err := c.Load(state); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Edges()) != 1 || c.Edges()[0].ID != "e1" {
		t.Errorf("orphaned edge not dropped: %+v", c.Edges())
	}
	if c.View().Scale != geom.MaxScale {
		t.Errorf("scale = %v, want clamped to %v", c.View().Scale, geom.MaxScale)
	}
	if c.Ports().Len() != 4 {
		t.Errorf("registry has %d ports, want 4", c.Ports().Len())
	}
	if c.History().Len() != 1 {
		t.Error("Load keeps history")
	}

	bad := state
	bad.Nodes = []workflow.Node{a, a}
	if err := c.Load(bad); !errors.Is(err, workflow.ErrDuplicateNodeID) {
		t.Errorf("err = %v", err)
	}
	if len(c.Nodes()) != 2 {
		t.Error("rejected load must leave the canvas unchanged")
	}

	if err := c.LoadWorkflow(state); err != nil {
		t.Fatal(err)
	}
	if c.History().Len() != 0 {
		t.Error("LoadWorkflow clears history")
	}
}

func TestCanvas_StateIsACopy(t *testing.T) {
	c := newTestCanvas(t)
	c.AddNode(template("A"), 0, 0)
	s := c.State()
	s.Nodes[0].Data.NodeName = "mutated"
	if c.Nodes()[0].Data.NodeName != "A" {
		t.Error("State must not alias live nodes")
	}
}

func TestCanvas_PortsFollowLayoutNotCamera(t *testing.T) {
	c := newTestCanvas(t)
	b := c.AddNode(template("B"), 300, 0)
	key := ports.KeyOf(in(b))
	before, _ := c.Ports().Get(key)
	c.Controller().Wheel(geom.Point{X: 123, Y: 45}, -100)
	after, _ := c.Ports().Get(key)
	if before.Dist(after) > 1e-9 || before != (geom.Point{X: 300, Y: 44}) {
		t.Errorf("before=%v after=%v", before, after)
	}
	if c.History().Len() != 1 {
		t.Error("zoom must not record history")
	}
}

func TestCanvas_DragConnectThroughResolver(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 300, 0)
	ctl := c.Controller()

	events := []interaction.Event{
		{Type: interaction.EventMouseDown, X: 180, Y: 44},
		{Type: interaction.EventMouseMove, X: 250, Y: 45},
		{Type: interaction.EventMouseMove, X: 295, Y: 46},
		{Type: interaction.EventMouseUp, X: 295, Y: 46},
	}
	for _, ev := range events {
		if err := ctl.Dispatch(ev, c.Resolve); err != nil {
			t.Fatal(err)
		}
	}
	edges := c.Edges()
	if len(edges) != 1 || edges[0].Source.NodeID != a.ID || edges[0].Target.NodeID != b.ID {
		t.Fatalf("edges = %+v", edges)
	}
	if edges[0].Source.Type != workflow.TypeInt {
		t.Errorf("source type = %q", edges[0].Source.Type)
	}
	if c.Entries()[0].ActionType != history.EdgeCreate {
		t.Errorf("latest action = %s", c.Entries()[0].ActionType)
	}

	// The edge runs from (180,44) to (300,44); click its midpoint.
	if got := c.Resolve(geom.Point{X: 240, Y: 46}); got != (interaction.EdgeLine{EdgeID: edges[0].ID}) {
		t.Errorf("Resolve = %#v", got)
	}
	if got := c.Resolve(geom.Point{X: 240, Y: 300}); got != (interaction.Background{}) {
		t.Errorf("Resolve = %#v", got)
	}
}

func TestCanvas_NodeDragRecordsOneMove(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	ctl := c.Controller()

	ctl.MouseDown(geom.Point{X: 90, Y: 10}, c.Resolve(geom.Point{X: 90, Y: 10}))
	for x := 100.0; x <= 150; x += 10 {
		ctl.MouseMove(geom.Point{X: x, Y: 10})
	}
	ctl.MouseUp(geom.Point{X: 150, Y: 10}, interaction.Background{})

	got, _ := c.Node(a.ID)
	if got.Position != (geom.Point{X: 60, Y: 0}) {
		t.Errorf("position = %v", got.Position)
	}
	if c.History().Len() != 2 || c.Entries()[0].ActionType != history.NodeMove {
		t.Fatalf("entries = %+v", c.Entries())
	}
	c.Undo()
	got, _ = c.Node(a.ID)
	if got.Position != (geom.Point{}) {
		t.Errorf("undo position = %v", got.Position)
	}
}

func TestCanvas_CopyPasteKeys(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 20, 30)
	ctl := c.Controller()
	ctl.SelectNode(a.ID)
	ctl.Key(interaction.KeyEvent{Key: "c", Ctrl: true})
	ctl.Key(interaction.KeyEvent{Key: "v", Ctrl: true})

	nodes := c.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d", len(nodes))
	}
	p := nodes[1]
	if p.ID == a.ID || p.Position != (geom.Point{X: 70, Y: 80}) {
		t.Errorf("pasted = %+v", p)
	}
	if c.Entries()[0].ActionType != history.NodeCreate || c.Entries()[0].Description != "Pasted node A" {
		t.Errorf("entry = %+v", c.Entries()[0])
	}

	c.Undo()
	if !ctl.Selection().Empty() {
		t.Error("undo of the paste should drop the dangling selection")
	}
}

func TestCanvas_ReconnectRecordsDeleteThenCreate(t *testing.T) {
	c := newTestCanvas(t)
	a := c.AddNode(template("A"), 0, 0)
	b := c.AddNode(template("B"), 300, 0)
	c.ConnectPorts(out(a), in(b))
	ctl := c.Controller()

	ctl.MouseDown(geom.Point{X: 300, Y: 44}, c.Resolve(geom.Point{X: 300, Y: 44}))
	if len(c.Edges()) != 0 {
		t.Fatal("pressing an occupied input lifts its edge")
	}
	ctl.MouseUp(geom.Point{X: 301, Y: 44}, interaction.Background{})

	entries := c.Entries()
	if len(c.Edges()) != 1 || entries[0].ActionType != history.EdgeCreate || entries[1].ActionType != history.EdgeDelete {
		t.Errorf("edges=%d entries=%s,%s", len(c.Edges()), entries[0].ActionType, entries[1].ActionType)
	}
}
