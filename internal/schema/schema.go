// Package schema provides the persisted data structures for sidenote's
// review store: the mutable index document and the append-only comment log.
//
// The log (review.jsonl) is the source of truth for comment content.
// The index (index.json) is a derived, rebuildable cache of thread
// identity, anchor, lifecycle state, and rollup statistics. State and
// range are the exception: they exist only in the index.
package schema

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// IndexVersion is the current schema version tag for the index document.
const IndexVersion = 1

// ThreadState is the lifecycle state of a review thread.
type ThreadState string

const (
	// StateOpen marks a thread as unresolved.
	StateOpen ThreadState = "open"
	// StateClosed marks a thread as resolved.
	StateClosed ThreadState = "closed"
)

// Valid reports whether s is a recognized thread state.
func (s ThreadState) Valid() bool {
	return s == StateOpen || s == StateClosed
}

// Position is a zero-based line/character location in a text file.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Cmp compares two positions lexicographically (line first, then
// character). It returns -1, 0, or 1.
func (p Position) Cmp(o Position) int {
	if p.Line != o.Line {
		if p.Line < o.Line {
			return -1
		}
		return 1
	}
	if p.Character != o.Character {
		if p.Character < o.Character {
			return -1
		}
		return 1
	}
	return 0
}

// Range is a half-open [Start, End) span of text. Start must not come
// after End.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Equal reports whether both endpoints match exactly. Thread identity
// depends on exact equality of all four coordinates; overlapping or
// adjacent ranges are distinct identities.
func (r Range) Equal(o Range) bool {
	return r.Start == o.Start && r.End == o.End
}

// Validate checks coordinate sanity: non-negative fields and Start <= End.
func (r Range) Validate() error {
	if r.Start.Line < 0 || r.Start.Character < 0 || r.End.Line < 0 || r.End.Character < 0 {
		return fmt.Errorf("range coordinates must be non-negative: %s", r)
	}
	if r.Start.Cmp(r.End) > 0 {
		return fmt.Errorf("range start must not come after end: %s", r)
	}
	return nil
}

// String renders the range as start-end, e.g. "3:0-5:12".
func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// LocationKey normalizes a file location for use as a byUri key.
// Paths are cleaned and use forward slashes regardless of platform so
// that an index written on Windows resolves on Linux and vice versa.
func LocationKey(location string) string {
	return filepath.ToSlash(filepath.Clean(location))
}

// ThreadEntry is one logical review thread in the index.
type ThreadEntry struct {
	ThreadID string      `json:"threadId"`
	Location string      `json:"location"`
	Range    Range       `json:"range"`
	State    ThreadState `json:"state"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Rollup statistics derived from the log. CommentCount equals the
	// number of log rows carrying this ThreadID; FirstSeq is set once on
	// the first append and LastSeq follows the most recent.
	CommentCount int   `json:"commentCount"`
	FirstSeq     int64 `json:"firstSeq,omitempty"`
	LastSeq      int64 `json:"lastSeq,omitempty"`

	// Anchors holds surrounding-text snippets reserved for future
	// re-anchoring. Round-tripped untouched, never interpreted.
	Anchors json.RawMessage `json:"anchors,omitempty"`
}

// Validate checks that the entry is internally consistent enough to
// restore. Entries failing validation are skipped at restore time rather
// than aborting the whole restoration.
func (e *ThreadEntry) Validate() error {
	if e.ThreadID == "" {
		return fmt.Errorf("threadId is required")
	}
	if e.Location == "" {
		return fmt.Errorf("location is required")
	}
	if err := e.Range.Validate(); err != nil {
		return err
	}
	if !e.State.Valid() {
		return fmt.Errorf("unrecognized state %q", e.State)
	}
	if e.CommentCount < 0 {
		return fmt.Errorf("commentCount must be non-negative (got %d)", e.CommentCount)
	}
	return nil
}

// IndexDocument is the full persisted index: thread identity, anchors,
// state, and rollup statistics, plus the global sequence cursor.
type IndexDocument struct {
	Version int   `json:"version"`
	LastSeq int64 `json:"lastSeq"`

	// Threads maps threadId to its entry.
	Threads map[string]*ThreadEntry `json:"threads"`

	// ByURI is the reverse index: location key to the threadIds anchored
	// there. A single location may host many threads.
	ByURI map[string][]string `json:"byUri"`
}

// NewIndexDocument returns the default empty document. A missing or
// corrupted index file degrades to this shape.
func NewIndexDocument() *IndexDocument {
	return &IndexDocument{
		Version: IndexVersion,
		Threads: make(map[string]*ThreadEntry),
		ByURI:   make(map[string][]string),
	}
}

// AddThread inserts a new entry into both the forward and reverse maps.
// The caller is responsible for not inserting a duplicate (location,
// range) identity.
func (d *IndexDocument) AddThread(e *ThreadEntry) {
	key := LocationKey(e.Location)
	d.Threads[e.ThreadID] = e
	d.ByURI[key] = append(d.ByURI[key], e.ThreadID)
}

// FindThread scans the reverse index for an entry at the given location
// whose range matches exactly. Returns the first match in stored order,
// or nil.
func (d *IndexDocument) FindThread(location string, r Range) *ThreadEntry {
	for _, id := range d.ByURI[LocationKey(location)] {
		entry, ok := d.Threads[id]
		if !ok {
			continue
		}
		if entry.Range.Equal(r) {
			return entry
		}
	}
	return nil
}

// CommentLogRow is one immutable line in the append-only log.
type CommentLogRow struct {
	ThreadID  string    `json:"threadId"`
	CommentID string    `json:"commentId"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
}
