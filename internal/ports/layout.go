package ports

import (
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/workflow"
)

// Layout measures rendered port elements. It stands in for the renderer's
// layout pass: given nodes and the camera it reports the screen origin of the
// content container and the screen box of every port.
type Layout interface {
	Measure(nodes []workflow.Node, view geom.View) (container geom.Point, boxes []Box)
}

// GridLayout is a headless Layout. Nodes are fixed-width cards with a header;
// inputs stack down the left edge and outputs down the right edge, one row
// per port.
type GridLayout struct {
	Origin       geom.Point // screen position of the canvas element
	NodeWidth    float64
	HeaderHeight float64
	RowHeight    float64
	PortSize     float64
}

// DefaultGridLayout returns the stock card geometry.
func DefaultGridLayout() GridLayout {
	return GridLayout{
		NodeWidth:    180,
		HeaderHeight: 32,
		RowHeight:    24,
		PortSize:     12,
	}
}

// Measure implements Layout.
func (g GridLayout) Measure(nodes []workflow.Node, view geom.View) (geom.Point, []Box) {
	container := g.Origin.Add(geom.Point{X: view.X, Y: view.Y})
	var boxes []Box
	for _, n := range nodes {
		for i, p := range n.Data.Inputs {
			boxes = append(boxes, g.box(container, view.Scale, n, workflow.Input, p.ID, i, 0))
		}
		for i, p := range n.Data.Outputs {
			boxes = append(boxes, g.box(container, view.Scale, n, workflow.Output, p.ID, i, g.NodeWidth))
		}
	}
	return container, boxes
}

func (g GridLayout) box(container geom.Point, scale float64, n workflow.Node, kind workflow.PortKind, portID string, row int, edgeX float64) Box {
	center := geom.Point{
		X: n.Position.X + edgeX,
		Y: n.Position.Y + g.HeaderHeight + g.RowHeight*float64(row) + g.RowHeight/2,
	}
	half := g.PortSize / 2
	return Box{
		Key: Key{NodeID: n.ID, PortID: portID, Kind: kind},
		Screen: geom.Rect{
			X: container.X + (center.X-half)*scale,
			Y: container.Y + (center.Y-half)*scale,
			W: g.PortSize * scale,
			H: g.PortSize * scale,
		},
	}
}

// NodeRect returns the world-space card rectangle for n.
func (g GridLayout) NodeRect(n workflow.Node) geom.Rect {
	rows := len(n.Data.Inputs)
	if len(n.Data.Outputs) > rows {
		rows = len(n.Data.Outputs)
	}
	return geom.Rect{
		X: n.Position.X,
		Y: n.Position.Y,
		W: g.NodeWidth,
		H: g.HeaderHeight + g.RowHeight*float64(rows),
	}
}

// HitTest reports which port or node body sits under a world point. Ports
// take precedence over node bodies; later nodes are on top.
func (g GridLayout) HitTest(nodes []workflow.Node, world geom.Point) (Key, string, bool) {
	half := g.PortSize / 2
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		for row, p := range n.Data.Inputs {
			if g.portRect(n, 0, row, half).Contains(world) {
				return Key{NodeID: n.ID, PortID: p.ID, Kind: workflow.Input}, n.ID, true
			}
		}
		for row, p := range n.Data.Outputs {
			if g.portRect(n, g.NodeWidth, row, half).Contains(world) {
				return Key{NodeID: n.ID, PortID: p.ID, Kind: workflow.Output}, n.ID, true
			}
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if g.NodeRect(nodes[i]).Contains(world) {
			return Key{}, nodes[i].ID, true
		}
	}
	return Key{}, "", false
}

func (g GridLayout) portRect(n workflow.Node, edgeX float64, row int, half float64) geom.Rect {
	cy := n.Position.Y + g.HeaderHeight + g.RowHeight*float64(row) + g.RowHeight/2
	return geom.Rect{X: n.Position.X + edgeX - half, Y: cy - half, W: g.PortSize, H: g.PortSize}
}
