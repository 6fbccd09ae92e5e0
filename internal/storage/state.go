package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/workflow"
)

func dirOf(path string) string {
	return filepath.Dir(path)
}

// ReadState reads a canvas state file. A missing file is an empty canvas at
// the identity view.
func ReadState(path string) (workflow.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return workflow.State{View: geom.DefaultView()}, nil
		}
		return workflow.State{}, fmt.Errorf("reading workflow: %w", err)
	}

	var s workflow.State
	if err := json.Unmarshal(data, &s); err != nil {
		return workflow.State{}, fmt.Errorf("parsing workflow: %w", err)
	}
	if s.View.Scale == 0 {
		s.View = geom.DefaultView()
	}
	return s, nil
}

// WriteState writes a canvas state file.
func WriteState(path string, s workflow.State) error {
	return writeJSON(path, s)
}

// sessionFile is the on-disk form of the history cursor. Entries live in
// history.jsonl.
type sessionFile struct {
	Index   int                `json:"index"`
	Present *workflow.Snapshot `json:"present,omitempty"`
}

// ReadSession loads history entries and the cursor. Missing files give an
// empty session at the present.
func ReadSession(historyPath, sessionPath string) (history.Session, error) {
	entries, err := ReadAllHistory(historyPath)
	if err != nil {
		return history.Session{}, err
	}
	s := history.Session{Entries: entries, Index: history.Present}

	data, err := os.ReadFile(sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return history.Session{}, fmt.Errorf("reading session: %w", err)
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return history.Session{}, fmt.Errorf("parsing session: %w", err)
	}
	s.Index = sf.Index
	s.Present = sf.Present
	return s, nil
}

// WriteSession persists history entries and the cursor.
func WriteSession(historyPath, sessionPath string, s history.Session) error {
	if err := WriteAllHistory(historyPath, s.Entries); err != nil {
		return err
	}
	return writeJSON(sessionPath, sessionFile{Index: s.Index, Present: s.Present})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return atomicWrite(path, func(w io.Writer) error {
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}
