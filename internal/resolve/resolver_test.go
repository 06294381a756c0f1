package resolve

import (
	"testing"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

// fakeThread is a minimal live-thread handle for resolver tests.
type fakeThread struct {
	location string
	rng      schema.Range
}

func (t *fakeThread) Location() string    { return t.location }
func (t *fakeThread) Range() schema.Range { return t.rng }

func seedDoc(t *testing.T) *schema.IndexDocument {
	t.Helper()
	doc := schema.NewIndexDocument()
	doc.AddThread(&schema.ThreadEntry{
		ThreadID: "th-stored",
		Location: "src/main.go",
		Range:    schema.Range{Start: schema.Position{Line: 0, Character: 0}, End: schema.Position{Line: 0, Character: 5}},
		State:    schema.StateOpen,
	})
	return doc
}

func TestResolve_ExactMatch(t *testing.T) {
	doc := seedDoc(t)
	r := NewResolver()

	thread := &fakeThread{
		location: "src/main.go",
		rng:      schema.Range{Start: schema.Position{Line: 0, Character: 0}, End: schema.Position{Line: 0, Character: 5}},
	}

	id, ok := r.Resolve(thread, doc)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if id != "th-stored" {
		t.Errorf("Resolve() = %q, want th-stored", id)
	}
}

func TestResolve_ShiftedRangeDoesNotMatch(t *testing.T) {
	doc := seedDoc(t)
	r := NewResolver()

	// One character off in any coordinate must resolve to none, never to
	// the nearest stored entry.
	shifts := []schema.Range{
		{Start: schema.Position{Line: 0, Character: 1}, End: schema.Position{Line: 0, Character: 5}},
		{Start: schema.Position{Line: 1, Character: 0}, End: schema.Position{Line: 1, Character: 5}},
		{Start: schema.Position{Line: 0, Character: 0}, End: schema.Position{Line: 0, Character: 6}},
		{Start: schema.Position{Line: 0, Character: 0}, End: schema.Position{Line: 0, Character: 4}},
	}
	for _, rng := range shifts {
		thread := &fakeThread{location: "src/main.go", rng: rng}
		if id, ok := r.Resolve(thread, doc); ok {
			t.Errorf("Resolve(%v) = %q, want no match", rng, id)
		}
	}
}

func TestResolve_CacheTierWinsOverIndexScan(t *testing.T) {
	doc := seedDoc(t)
	r := NewResolver()

	thread := &fakeThread{
		location: "src/main.go",
		rng:      schema.Range{Start: schema.Position{Line: 0, Character: 0}, End: schema.Position{Line: 0, Character: 5}},
	}

	if _, ok := r.Resolve(thread, doc); !ok {
		t.Fatal("First Resolve() failed")
	}

	// Empty the index; the session cache must still resolve this handle.
	empty := schema.NewIndexDocument()
	id, ok := r.Resolve(thread, empty)
	if !ok {
		t.Fatal("Cached Resolve() ok = false, want true")
	}
	if id != "th-stored" {
		t.Errorf("Cached Resolve() = %q, want th-stored", id)
	}

	// A distinct handle with the same anchor is a cache miss and falls
	// back to the (now empty) index.
	other := &fakeThread{location: thread.location, rng: thread.rng}
	if id, ok := r.Resolve(other, empty); ok {
		t.Errorf("Resolve() for distinct handle = %q, want no match", id)
	}
}

func TestBindAndForget(t *testing.T) {
	r := NewResolver()
	doc := schema.NewIndexDocument()
	thread := &fakeThread{location: "src/a.go"}

	r.Bind(thread, "th-bound")
	if id, ok := r.Resolve(thread, doc); !ok || id != "th-bound" {
		t.Errorf("Resolve() after Bind = (%q, %v), want (th-bound, true)", id, ok)
	}

	r.Forget(thread)
	if id, ok := r.Resolve(thread, doc); ok {
		t.Errorf("Resolve() after Forget = %q, want no match", id)
	}
}
