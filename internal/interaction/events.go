package interaction

import (
	"fmt"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// Event types accepted by Dispatch.
const (
	EventMouseDown  = "mousedown"
	EventMouseMove  = "mousemove"
	EventMouseUp    = "mouseup"
	EventMouseLeave = "mouseleave"
	EventWheel      = "wheel"
	EventKey        = "key"
)

// TargetSpec is the serialized form of a Target.
type TargetSpec struct {
	Kind     string            `json:"kind"` // background, control, node, port, edge
	NodeID   string            `json:"nodeId,omitempty"`
	PortID   string            `json:"portId,omitempty"`
	PortKind workflow.PortKind `json:"portType,omitempty"`
	EdgeID   string            `json:"edgeId,omitempty"`
}

// Target converts the spec into a Target.
func (s TargetSpec) Target() (Target, error) {
	switch s.Kind {
	case "background":
		return Background{}, nil
	case "control":
		return Control{}, nil
	case "node":
		return NodeBody{NodeID: s.NodeID}, nil
	case "port":
		return PortHandle{Key: ports.Key{NodeID: s.NodeID, PortID: s.PortID, Kind: s.PortKind}}, nil
	case "edge":
		return EdgeLine{EdgeID: s.EdgeID}, nil
	}
	return nil, fmt.Errorf("unknown target kind %q", s.Kind)
}

// Event is one recorded input event, as read from a replay script.
type Event struct {
	Type   string      `json:"type"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	DeltaY float64     `json:"deltaY,omitempty"`
	Target *TargetSpec `json:"target,omitempty"`
	Key    string      `json:"key,omitempty"`
	Ctrl   bool        `json:"ctrl,omitempty"`
	Meta   bool        `json:"meta,omitempty"`
}

// Resolver hit-tests a screen point when an event carries no explicit target.
type Resolver func(p geom.Point) Target

// Dispatch feeds one event to the controller.
func (c *Controller) Dispatch(ev Event, resolve Resolver) error {
	p := geom.Point{X: ev.X, Y: ev.Y}
	target := func() (Target, error) {
		if ev.Target != nil {
			return ev.Target.Target()
		}
		if resolve != nil {
			return resolve(p), nil
		}
		return Background{}, nil
	}

	switch ev.Type {
	case EventMouseDown:
		t, err := target()
		if err != nil {
			return err
		}
		c.MouseDown(p, t)
	case EventMouseMove:
		c.MouseMove(p)
	case EventMouseUp:
		t, err := target()
		if err != nil {
			return err
		}
		c.MouseUp(p, t)
	case EventMouseLeave:
		c.MouseLeave()
	case EventWheel:
		c.Wheel(p, ev.DeltaY)
	case EventKey:
		c.Key(KeyEvent{Key: ev.Key, Ctrl: ev.Ctrl, Meta: ev.Meta})
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
