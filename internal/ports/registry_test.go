package ports

import (
	"math"
	"testing"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/workflow"
)

func key(node, port string, kind workflow.PortKind) Key {
	return Key{NodeID: node, PortID: port, Kind: kind}
}

func TestRegistry_SetPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Set(key("a", "in", workflow.Input), geom.Point{X: 1})
	r.Set(key("b", "in", workflow.Input), geom.Point{X: 2})
	r.Set(key("a", "in", workflow.Input), geom.Point{X: 3})

	keys := r.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].NodeID != "a" || keys[1].NodeID != "b" {
		t.Errorf("order = %v", keys)
	}
	if p, _ := r.Get(keys[0]); p.X != 3 {
		t.Errorf("update lost, got %v", p)
	}
}

func TestRegistry_RemoveNode(t *testing.T) {
	r := NewRegistry()
	r.Set(key("a", "in", workflow.Input), geom.Point{})
	r.Set(key("a", "out", workflow.Output), geom.Point{})
	r.Set(key("b", "in", workflow.Input), geom.Point{})

	r.RemoveNode("a")
	if r.Len() != 1 {
		t.Fatalf("expected 1 port left, got %d", r.Len())
	}
	if _, ok := r.Get(key("a", "in", workflow.Input)); ok {
		t.Error("stale port of removed node still registered")
	}
	if _, ok := r.Get(key("b", "in", workflow.Input)); !ok {
		t.Error("unrelated port was removed")
	}
}

func TestRegistry_SyncComputesWorldCenters(t *testing.T) {
	r := NewRegistry()
	container := geom.Point{X: 50, Y: 20}
	scale := 2.0
	boxes := []Box{
		// world center (100, 40) -> screen center (250, 100)
		{Key: key("a", "out", workflow.Output), Screen: geom.Rect{X: 240, Y: 90, W: 20, H: 20}},
	}
	r.Sync(container, boxes, scale)

	p, ok := r.Get(key("a", "out", workflow.Output))
	if !ok {
		t.Fatal("port not registered")
	}
	if p != (geom.Point{X: 100, Y: 40}) {
		t.Errorf("world center = %v, want (100,40)", p)
	}
}

func TestRegistry_SyncDeregistersMissing(t *testing.T) {
	r := NewRegistry()
	r.Set(key("gone", "in", workflow.Input), geom.Point{})
	r.Sync(geom.Point{}, []Box{{Key: key("kept", "in", workflow.Input)}}, 1)

	if _, ok := r.Get(key("gone", "in", workflow.Input)); ok {
		t.Error("port absent from layout should be deregistered")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestGridLayout_SyncIsViewIndependent(t *testing.T) {
	g := DefaultGridLayout()
	g.Origin = geom.Point{X: 13, Y: 7}
	nodes := []workflow.Node{{
		ID:       "n",
		Position: geom.Point{X: 100, Y: 50},
		Data: workflow.NodeData{
			Inputs:  []workflow.Port{{ID: "i0"}, {ID: "i1"}},
			Outputs: []workflow.Port{{ID: "o0"}},
		},
	}}

	views := []geom.View{{Scale: 1}, {X: -300, Y: 45, Scale: 3.5}, {X: 10, Y: 10, Scale: 0.6}}
	var first map[Key]geom.Point
	for _, v := range views {
		r := NewRegistry()
		container, boxes := g.Measure(nodes, v)
		r.Sync(container, boxes, v.Scale)

		got := map[Key]geom.Point{}
		r.Each(func(k Key, p geom.Point) { got[k] = p })
		if first == nil {
			first = got
			continue
		}
		for k, p := range first {
			q := got[k]
			if math.Abs(p.X-q.X) > 1e-9 || math.Abs(p.Y-q.Y) > 1e-9 {
				t.Errorf("view %v moved port %v from %v to %v", v, k, p, q)
			}
		}
	}

	want := geom.Point{X: 100, Y: 50 + g.HeaderHeight + g.RowHeight/2}
	if p := first[key("n", "i0", workflow.Input)]; math.Abs(p.X-want.X) > 1e-9 || math.Abs(p.Y-want.Y) > 1e-9 {
		t.Errorf("first input at %v, want %v", p, want)
	}
	wantOut := geom.Point{X: 100 + g.NodeWidth, Y: want.Y}
	if p := first[key("n", "o0", workflow.Output)]; math.Abs(p.X-wantOut.X) > 1e-9 || math.Abs(p.Y-wantOut.Y) > 1e-9 {
		t.Errorf("output at %v, want %v", p, wantOut)
	}
}

func TestGridLayout_HitTest(t *testing.T) {
	g := DefaultGridLayout()
	nodes := []workflow.Node{{
		ID:       "n",
		Position: geom.Point{X: 0, Y: 0},
		Data: workflow.NodeData{
			Inputs:  []workflow.Port{{ID: "in"}},
			Outputs: []workflow.Port{{ID: "out"}},
		},
	}}
	rowY := g.HeaderHeight + g.RowHeight/2

	k, node, ok := g.HitTest(nodes, geom.Point{X: 0, Y: rowY})
	if !ok || k.PortID != "in" || node != "n" {
		t.Errorf("input hit = %v %q %v", k, node, ok)
	}
	k, _, ok = g.HitTest(nodes, geom.Point{X: g.NodeWidth + 2, Y: rowY})
	if !ok || k.PortID != "out" || k.Kind != workflow.Output {
		t.Errorf("output hit = %v %v", k, ok)
	}
	k, node, ok = g.HitTest(nodes, geom.Point{X: 90, Y: 10})
	if !ok || k.PortID != "" || node != "n" {
		t.Errorf("body hit = %v %q %v", k, node, ok)
	}
	if _, _, ok := g.HitTest(nodes, geom.Point{X: 900, Y: 900}); ok {
		t.Error("background should not hit")
	}
}
