package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/workflow"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection. It is a disposable index over
// workflow.json and history.jsonl.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT,
			x REAL NOT NULL,
			y REAL NOT NULL,
			data_json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ports (
			node_id TEXT NOT NULL,
			port_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT,
			type TEXT,
			required INTEGER NOT NULL DEFAULT 0,
			multi INTEGER NOT NULL DEFAULT 0,
			stream INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (node_id, port_id, kind)
		);

		CREATE TABLE IF NOT EXISTS edges (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			source_node TEXT NOT NULL,
			source_port TEXT NOT NULL,
			source_type TEXT,
			target_node TEXT NOT NULL,
			target_port TEXT NOT NULL,
			UNIQUE (source_node, source_port, target_node, target_port)
		);

		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_node);
		CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_node, target_port);
		CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);

		CREATE TABLE IF NOT EXISTS history (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			action_type TEXT NOT NULL,
			description TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildStats reports what a rebuild indexed.
type RebuildStats struct {
	Nodes int `json:"nodes"`
	Ports int `json:"ports"`
	Edges int `json:"edges"`
}

// RebuildFromState clears the graph tables and rebuilds them from a canvas
// state in one transaction.
func (d *DB) RebuildFromState(s workflow.State) (RebuildStats, error) {
	var stats RebuildStats
	tx, err := d.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "ports", "edges"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return stats, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes (id, seq, name, type, x, y, data_json) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing nodes insert: %w", err)
	}
	defer nodeStmt.Close()

	portStmt, err := tx.Prepare(`
		INSERT INTO ports (node_id, port_id, kind, name, type, required, multi, stream)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return stats, fmt.Errorf("preparing ports insert: %w", err)
	}
	defer portStmt.Close()

	edgeStmt, err := tx.Prepare(`
		INSERT INTO edges (id, seq, source_node, source_port, source_type, target_node, target_port)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return stats, fmt.Errorf("preparing edges insert: %w", err)
	}
	defer edgeStmt.Close()

	for i, n := range s.Nodes {
		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return stats, fmt.Errorf("marshaling data for %s: %w", n.ID, err)
		}
		if _, err := nodeStmt.Exec(n.ID, i, n.Data.NodeName, nullableStringValue(n.Data.Type), n.Position.X, n.Position.Y, string(dataJSON)); err != nil {
			return stats, fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
		stats.Nodes++

		for _, group := range []struct {
			kind  workflow.PortKind
			ports []workflow.Port
		}{{workflow.Input, n.Data.Inputs}, {workflow.Output, n.Data.Outputs}} {
			for _, p := range group.ports {
				_, err := portStmt.Exec(n.ID, p.ID, string(group.kind), p.Name, nullableStringValue(p.Type), p.Required, p.Multi, p.Stream)
				if err != nil {
					return stats, fmt.Errorf("inserting port %s.%s: %w", n.ID, p.ID, err)
				}
				stats.Ports++
			}
		}
	}

	for i, e := range s.Edges {
		_, err := edgeStmt.Exec(e.ID, i, e.Source.NodeID, e.Source.PortID, nullableStringValue(e.Source.Type), e.Target.NodeID, e.Target.PortID)
		if err != nil {
			return stats, fmt.Errorf("inserting edge %s: %w", e.ID, err)
		}
		stats.Edges++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing rebuild: %w", err)
	}
	return stats, nil
}

// RebuildHistory replaces the history table with entries, newest first.
func (d *DB) RebuildHistory(entries []history.Entry) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning history rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM history"); err != nil {
		return 0, fmt.Errorf("clearing history table: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO history (position, id, timestamp, action_type, description, node_count, edge_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		_, err := stmt.Exec(i, e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.ActionType), e.Description,
			len(e.CanvasState.Nodes), len(e.CanvasState.Edges))
		if err != nil {
			return 0, fmt.Errorf("inserting history entry %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing history rebuild: %w", err)
	}
	return len(entries), nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
