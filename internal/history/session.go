package history

import "github.com/matsen/weft/internal/workflow"

// Session is the persistable state of an engine: its entries, cursor, and
// stashed live canvas.
type Session struct {
	Entries []Entry            `json:"entries"`
	Index   int                `json:"index"`
	Present *workflow.Snapshot `json:"present,omitempty"`
}

// Export returns a copy of the engine's state.
func (e *Engine) Export() Session {
	s := Session{Entries: e.Entries(), Index: e.index}
	if e.present != nil {
		p := e.present.Clone()
		s.Present = &p
	}
	return s
}

// Import replaces the engine's state with s. Entries beyond the size cap are
// dropped and an out-of-range cursor, or a rewound cursor without a stashed
// live canvas, falls back to Present.
func (e *Engine) Import(s Session) {
	entries := s.Entries
	if len(entries) > e.maxSize {
		entries = entries[:e.maxSize]
	}
	e.entries = make([]Entry, len(entries))
	copy(e.entries, entries)

	e.index = s.Index
	if e.index < Present || e.index >= len(e.entries) {
		e.index = Present
	}
	e.present = nil
	if s.Present != nil && e.index != Present {
		p := s.Present.Clone()
		e.present = &p
	}
	if e.index != Present && e.present == nil {
		e.index = Present
	}
}
