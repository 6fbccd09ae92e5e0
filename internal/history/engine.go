package history

import (
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/weft/internal/workflow"
)

// Defaults for the engine's bounds and duplicate suppression.
const (
	MaxHistorySize = 50
	DedupeWindow   = 100 * time.Millisecond
	DedupeLookback = 5
)

// Present is the cursor value for the live canvas.
const Present = -1

// CaptureFunc returns the live canvas, camera excluded.
type CaptureFunc func() workflow.Snapshot

// RestoreFunc replaces the live canvas wholesale.
type RestoreFunc func(workflow.Snapshot)

// Engine is an undo/redo stack of canvas snapshots, newest first.
//
// index is Present (-1) while the user edits the live canvas, otherwise it
// points at the entry whose snapshot is on screen. The live canvas is
// stashed the first time the cursor leaves Present so that redo can return
// to it exactly. Engine is not safe for concurrent use.
type Engine struct {
	entries []Entry
	index   int
	present *workflow.Snapshot

	capture CaptureFunc
	restore RestoreFunc

	now      func() time.Time
	newID    func() string
	maxSize  int
	window   time.Duration
	lookback int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs replaces the entry id generator.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithMaxSize caps the number of retained entries.
func WithMaxSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSize = n
		}
	}
}

// WithDedupe sets the duplicate suppression window and how many recent
// entries are compared.
func WithDedupe(window time.Duration, lookback int) Option {
	return func(e *Engine) {
		e.window = window
		if lookback >= 0 {
			e.lookback = lookback
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an empty engine bound to the canvas through capture and restore.
func New(capture CaptureFunc, restore RestoreFunc, opts ...Option) *Engine {
	e := &Engine{
		index:    Present,
		capture:  capture,
		restore:  restore,
		now:      time.Now,
		newID:    uuid.NewString,
		maxSize:  MaxHistorySize,
		window:   DedupeWindow,
		lookback: DedupeLookback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanUndo reports whether an older snapshot is available.
func (e *Engine) CanUndo() bool {
	return len(e.entries) > 0 && e.index < len(e.entries)-1
}

// CanRedo reports whether the cursor is behind the present.
func (e *Engine) CanRedo() bool {
	return e.index > Present
}

// Index returns the cursor; Present means the live canvas.
func (e *Engine) Index() int {
	return e.index
}

// Len returns the number of entries.
func (e *Engine) Len() int {
	return len(e.entries)
}

// Entries returns a copy of the entries, newest first.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Record adds an entry for an edit about to be applied to (or, for moves,
// just applied to) the canvas. It returns false when the entry is suppressed
// as a duplicate of one recorded within the dedupe window.
//
// The snapshot comes from the capture callback at record time. For
// NODE_MOVE the moved node is patched back to its starting position, since
// the drag has already moved it on the live canvas.
func (e *Engine) Record(action ActionType, description string, details Details) (Entry, bool) {
	now := e.now()
	if dup, ok := e.findDuplicate(action, description, details, now); ok {
		e.logger.Debug("history entry suppressed as duplicate",
			"action", action, "description", description, "duplicate_of", dup.ID)
		return Entry{}, false
	}

	snap := e.capture().Clone()
	if move, ok := details.(MoveDetails); ok && action == NodeMove {
		if i := workflow.IndexOfNode(snap.Nodes, move.NodeID); i >= 0 {
			snap.Nodes[i].Position = move.From
		}
	}

	entry := Entry{
		ID:          e.newID(),
		Timestamp:   now,
		ActionType:  action,
		Description: description,
		Details:     details,
		CanvasState: snap,
	}

	kept := e.entries
	if e.index > Present {
		// Entries 0..index have been undone and form the redo branch.
		pruned := e.index + 1
		kept = e.entries[e.index+1:]
		e.logger.Debug("pruned redo branch", "entries", pruned)
	}
	next := make([]Entry, 0, len(kept)+1)
	next = append(next, entry)
	next = append(next, kept...)
	if len(next) > e.maxSize {
		next = next[:e.maxSize]
	}

	e.entries = next
	e.index = Present
	e.present = nil
	e.logger.Debug("history entry recorded", "action", action, "description", description, "size", len(e.entries))
	return entry, true
}

func (e *Engine) findDuplicate(action ActionType, description string, details Details, now time.Time) (Entry, bool) {
	n := e.lookback
	if n > len(e.entries) {
		n = len(e.entries)
	}
	for _, prev := range e.entries[:n] {
		if prev.ActionType != action || prev.Description != description {
			continue
		}
		if !reflect.DeepEqual(prev.Details, details) {
			continue
		}
		gap := now.Sub(prev.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		if gap < e.window {
			return prev, true
		}
	}
	return Entry{}, false
}

// Undo steps one entry back and restores its snapshot. It returns the entry
// undone, or false when there is nothing to undo.
func (e *Engine) Undo() (Entry, bool) {
	if !e.CanUndo() {
		return Entry{}, false
	}
	e.stashPresent()
	e.index++
	entry := e.entries[e.index]
	e.restore(entry.CanvasState.Clone())
	return entry, true
}

// Redo steps one entry forward, restoring the stashed live canvas when the
// cursor returns to Present. It returns the entry redone.
func (e *Engine) Redo() (Entry, bool) {
	if !e.CanRedo() {
		return Entry{}, false
	}
	redone := e.entries[e.index]
	e.index--
	if e.index == Present {
		if e.present != nil {
			e.restore(e.present.Clone())
		}
		return redone, true
	}
	e.restore(e.entries[e.index].CanvasState.Clone())
	return redone, true
}

// Jump moves the cursor to index i (Present for the live canvas) and
// restores that snapshot. It returns entries 0..i, or nil when jumping to
// Present. Out-of-range indices and jumps to the current position are
// no-ops reported as false.
func (e *Engine) Jump(i int) ([]Entry, bool) {
	if i < Present || i >= len(e.entries) || i == e.index {
		return nil, false
	}
	if i == Present {
		e.index = Present
		if e.present != nil {
			e.restore(e.present.Clone())
		}
		return nil, true
	}
	e.stashPresent()
	e.index = i
	e.restore(e.entries[i].CanvasState.Clone())
	out := make([]Entry, i+1)
	copy(out, e.entries[:i+1])
	return out, true
}

// DiscardRedo makes the live canvas the present without restoring anything:
// the redo branch and the stashed live canvas are dropped, older entries
// stay undoable.
func (e *Engine) DiscardRedo() {
	if e.index > Present {
		e.entries = e.entries[e.index+1:]
		e.logger.Debug("discarded redo branch", "entries", e.index+1)
	}
	e.index = Present
	e.present = nil
}

// Clear drops every entry and the stashed live canvas.
func (e *Engine) Clear() {
	e.entries = nil
	e.index = Present
	e.present = nil
}

func (e *Engine) stashPresent() {
	if e.index != Present {
		return
	}
	snap := e.capture().Clone()
	e.present = &snap
}
