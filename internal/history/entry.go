// Package history records canvas edits as full snapshots and walks them for
// undo, redo, and jump-to-entry.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/workflow"
)

// ActionType tags the kind of edit an entry records.
type ActionType string

const (
	NodeMove    ActionType = "NODE_MOVE"
	NodeCreate  ActionType = "NODE_CREATE"
	NodeDelete  ActionType = "NODE_DELETE"
	EdgeCreate  ActionType = "EDGE_CREATE"
	EdgeDelete  ActionType = "EDGE_DELETE"
	NodeUpdate  ActionType = "NODE_UPDATE"
	EdgeUpdate  ActionType = "EDGE_UPDATE"
	MultiAction ActionType = "MULTI_ACTION"
)

// Details is the action-specific payload of an entry. The concrete type is
// determined by the entry's ActionType.
type Details interface {
	isDetails()
}

// MoveDetails accompanies NODE_MOVE.
type MoveDetails struct {
	NodeID string     `json:"nodeId"`
	From   geom.Point `json:"fromPosition"`
	To     geom.Point `json:"toPosition"`
}

// NodeDetails accompanies NODE_CREATE and NODE_DELETE. EdgeIDs lists edges
// removed along with a deleted node.
type NodeDetails struct {
	NodeID   string   `json:"nodeId"`
	NodeName string   `json:"nodeName,omitempty"`
	EdgeIDs  []string `json:"edgeIds,omitempty"`
}

// EdgeDetails accompanies EDGE_CREATE and EDGE_DELETE. Replaced lists edges
// evicted from a single-edge input by the new connection.
type EdgeDetails struct {
	EdgeID   string            `json:"edgeId"`
	Source   workflow.Endpoint `json:"source"`
	Target   workflow.Endpoint `json:"target"`
	Replaced []string          `json:"replaced,omitempty"`
}

// UpdateDetails accompanies NODE_UPDATE.
type UpdateDetails struct {
	NodeID string `json:"nodeId"`
	Field  string `json:"field"`
	From   any    `json:"from,omitempty"`
	To     any    `json:"to,omitempty"`
}

// EdgeUpdateDetails accompanies EDGE_UPDATE.
type EdgeUpdateDetails struct {
	EdgeID string        `json:"edgeId"`
	From   workflow.Edge `json:"from"`
	To     workflow.Edge `json:"to"`
}

// Step is one component of a MULTI_ACTION.
type Step struct {
	ActionType  ActionType `json:"actionType"`
	Description string     `json:"description"`
}

// MultiDetails accompanies MULTI_ACTION.
type MultiDetails struct {
	Steps []Step `json:"steps"`
}

func (MoveDetails) isDetails()       {}
func (NodeDetails) isDetails()       {}
func (EdgeDetails) isDetails()       {}
func (UpdateDetails) isDetails()     {}
func (EdgeUpdateDetails) isDetails() {}
func (MultiDetails) isDetails()      {}

// Entry is an immutable history record. CanvasState is the snapshot restored
// when the cursor lands on this entry.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	ActionType  ActionType        `json:"actionType"`
	Description string            `json:"description"`
	Details     Details           `json:"details,omitempty"`
	CanvasState workflow.Snapshot `json:"canvasState"`
}

type entryJSON struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	ActionType  ActionType        `json:"actionType"`
	Description string            `json:"description"`
	Details     json.RawMessage   `json:"details,omitempty"`
	CanvasState workflow.Snapshot `json:"canvasState"`
}

// UnmarshalJSON decodes details into the type implied by actionType.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	details, err := decodeDetails(raw.ActionType, raw.Details)
	if err != nil {
		return fmt.Errorf("decoding %s details: %w", raw.ActionType, err)
	}
	*e = Entry{
		ID:          raw.ID,
		Timestamp:   raw.Timestamp,
		ActionType:  raw.ActionType,
		Description: raw.Description,
		Details:     details,
		CanvasState: raw.CanvasState,
	}
	return nil
}

func decodeDetails(action ActionType, raw json.RawMessage) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var d Details
	switch action {
	case NodeMove:
		d = &MoveDetails{}
	case NodeCreate, NodeDelete:
		d = &NodeDetails{}
	case EdgeCreate, EdgeDelete:
		d = &EdgeDetails{}
	case NodeUpdate:
		d = &UpdateDetails{}
	case EdgeUpdate:
		d = &EdgeUpdateDetails{}
	case MultiAction:
		d = &MultiDetails{}
	default:
		return nil, fmt.Errorf("unknown action type %q", action)
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case *MoveDetails:
		return *v, nil
	case *NodeDetails:
		return *v, nil
	case *EdgeDetails:
		return *v, nil
	case *UpdateDetails:
		return *v, nil
	case *EdgeUpdateDetails:
		return *v, nil
	case *MultiDetails:
		return *v, nil
	}
	return nil, fmt.Errorf("unhandled details type %T", d)
}
