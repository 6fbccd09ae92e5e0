package interaction

import (
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// Editor is the canvas surface the controller drives. Mutating methods
// record their own history entries.
type Editor interface {
	View() geom.View
	// SetView moves the camera and resyncs port geometry. Not historized.
	SetView(v geom.View)
	ZoomLimits() geom.ZoomLimits
	SnapRadius() float64

	Node(id string) (workflow.Node, bool)
	// SetNodePosition moves a node during a drag without recording history.
	SetNodePosition(id string, p geom.Point)
	// RecordMove records a finished drag as NODE_MOVE.
	RecordMove(id string, from, to geom.Point)

	Ports() *ports.Registry
	PortType(k ports.Key) (string, bool)

	// LiftEdge detaches the edge on an occupied single-edge input and returns
	// its source.
	LiftEdge(input workflow.PortRef) (workflow.Endpoint, bool)
	// Connect commits a new edge. Rejections are policy errors.
	Connect(source workflow.Endpoint, target ports.Key) (workflow.Edge, error)

	PasteNode(data workflow.NodeData, at geom.Point) (workflow.Node, error)
	DeleteNode(id string) error
	DeleteEdge(id string) error
}
