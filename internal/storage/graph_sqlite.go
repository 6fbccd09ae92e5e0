package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/workflow"
)

const selectEdgeFields = `id, source_node, source_port, source_type, target_node, target_port`

// GetNode retrieves a node by its ID. It returns nil when absent.
func (d *DB) GetNode(id string) (*workflow.Node, error) {
	var n workflow.Node
	var dataJSON string
	err := d.db.QueryRow(`SELECT id, x, y, data_json FROM nodes WHERE id = ?`, id).
		Scan(&n.ID, &n.Position.X, &n.Position.Y, &dataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying node: %w", err)
	}
	if err := json.Unmarshal([]byte(dataJSON), &n.Data); err != nil {
		return nil, fmt.Errorf("parsing data JSON for %s: %w", n.ID, err)
	}
	return &n, nil
}

// NodeSummary is a row of the node listing.
type NodeSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     string     `json:"type,omitempty"`
	Position geom.Point `json:"position"`
	Inputs   int        `json:"inputs"`
	Outputs  int        `json:"outputs"`
}

// ListNodes returns nodes in canvas order, optionally filtered by type.
func (d *DB) ListNodes(nodeType string) ([]NodeSummary, error) {
	query := `
		SELECT n.id, n.name, n.type, n.x, n.y,
			(SELECT COUNT(*) FROM ports p WHERE p.node_id = n.id AND p.kind = 'input'),
			(SELECT COUNT(*) FROM ports p WHERE p.node_id = n.id AND p.kind = 'output')
		FROM nodes n`
	var args []any
	if nodeType != "" {
		query += " WHERE n.type = ?"
		args = append(args, nodeType)
	}
	query += " ORDER BY n.seq"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeSummary
	for rows.Next() {
		var s NodeSummary
		var typ sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &typ, &s.Position.X, &s.Position.Y, &s.Inputs, &s.Outputs); err != nil {
			return nil, err
		}
		s.Type = typ.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetAllEdges returns all edges in canvas order.
func (d *DB) GetAllEdges() ([]workflow.Edge, error) {
	rows, err := d.db.Query(`SELECT ` + selectEdgeFields + ` FROM edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying all edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// GetEdgesByNode returns all edges touching the given node.
func (d *DB) GetEdgesByNode(nodeID string) ([]workflow.Edge, error) {
	rows, err := d.db.Query(`
		SELECT `+selectEdgeFields+`
		FROM edges
		WHERE source_node = ? OR target_node = ?
		ORDER BY seq
	`, nodeID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("querying edges by node: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// GetIncoming returns the edges terminating at an input port.
func (d *DB) GetIncoming(nodeID, portID string) ([]workflow.Edge, error) {
	rows, err := d.db.Query(`
		SELECT `+selectEdgeFields+`
		FROM edges
		WHERE target_node = ? AND target_port = ?
		ORDER BY seq
	`, nodeID, portID)
	if err != nil {
		return nil, fmt.Errorf("querying incoming edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// MissingInput is a required input with no incoming edge.
type MissingInput struct {
	NodeID   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	PortID   string `json:"portId"`
	PortName string `json:"portName,omitempty"`
}

// MissingRequiredInputs lists every unconnected required input in canvas
// order.
func (d *DB) MissingRequiredInputs() ([]MissingInput, error) {
	rows, err := d.db.Query(`
		SELECT n.id, n.name, p.port_id, p.name
		FROM ports p
		JOIN nodes n ON n.id = p.node_id
		WHERE p.kind = 'input' AND p.required = 1
			AND NOT EXISTS (
				SELECT 1 FROM edges e
				WHERE e.target_node = p.node_id AND e.target_port = p.port_id
			)
		ORDER BY n.seq, p.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying missing inputs: %w", err)
	}
	defer rows.Close()

	var out []MissingInput
	for rows.Next() {
		var m MissingInput
		var name sql.NullString
		if err := rows.Scan(&m.NodeID, &m.NodeName, &m.PortID, &name); err != nil {
			return nil, err
		}
		m.PortName = name.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// HistoryRow is a history entry without its snapshot.
type HistoryRow struct {
	Index       int                `json:"index"`
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	ActionType  history.ActionType `json:"actionType"`
	Description string             `json:"description"`
	Nodes       int                `json:"nodes"`
	Edges       int                `json:"edges"`
}

// ListHistory returns history rows newest first, optionally filtered by
// action type and limited.
func (d *DB) ListHistory(action history.ActionType, limit int) ([]HistoryRow, error) {
	query := `SELECT position, id, timestamp, action_type, description, node_count, edge_count FROM history`
	var args []any
	if action != "" {
		query += " WHERE action_type = ?"
		args = append(args, string(action))
	}
	query += " ORDER BY position"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		var ts, act string
		if err := rows.Scan(&r.Index, &r.ID, &ts, &act, &r.Description, &r.Nodes, &r.Edges); err != nil {
			return nil, err
		}
		r.ActionType = history.ActionType(act)
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts returns the number of indexed nodes and edges.
func (d *DB) Counts() (nodes, edges int, err error) {
	if err := d.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes); err != nil {
		return 0, 0, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges); err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}

// scanEdges scans rows into a slice of edges.
func scanEdges(rows *sql.Rows) ([]workflow.Edge, error) {
	var edges []workflow.Edge
	for rows.Next() {
		var e workflow.Edge
		var sourceType sql.NullString
		err := rows.Scan(&e.ID, &e.Source.NodeID, &e.Source.PortID, &sourceType, &e.Target.NodeID, &e.Target.PortID)
		if err != nil {
			return nil, err
		}
		e.Source.Kind = workflow.Output
		e.Source.Type = sourceType.String
		e.Target.Kind = workflow.Input
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
