// Package storage handles workflow persistence: JSON and JSONL files as the
// source of truth and a SQLite query cache rebuilt from them.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matsen/weft/internal/history"
)

// MaxJSONLLineCapacity is the longest history line accepted (64MB). Every
// line carries a full canvas snapshot.
const MaxJSONLLineCapacity = 64 * 1024 * 1024

// ErrEntryTooLarge is returned when an encoded history entry would exceed
// the line limit and could not be read back.
var ErrEntryTooLarge = errors.New("history entry too large")

// lineLimit is the enforced limit; tests lower it.
var lineLimit = MaxJSONLLineCapacity

// ReadAllHistory reads history entries, newest first, from a JSONL file.
func ReadAllHistory(path string) ([]history.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var entries []history.Entry
	scanner := bufio.NewScanner(f)

	// Snapshots make for long lines
	scanner.Buffer(make([]byte, 0, 64*1024), lineLimit)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var e history.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	return entries, nil
}

// writeJSONL marshals v to JSON and writes it as a JSONL line.
func writeJSONL(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding line: %w", err)
	}
	if len(data) >= lineLimit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrEntryTooLarge, len(data), lineLimit)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	return nil
}

// WriteAllHistory writes history entries to a JSONL file, replacing existing
// content. An entry too large to read back fails the whole write with
// ErrEntryTooLarge and leaves the existing file untouched.
func WriteAllHistory(path string, entries []history.Entry) error {
	return atomicWrite(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for i, e := range entries {
			if err := writeJSONL(bw, e); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
		}
		return bw.Flush()
	})
}

// atomicWrite writes through a temporary file in the same directory and
// renames it over path.
func atomicWrite(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(dirOf(path), ".weft-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
