// Package engine implements the write and read paths over a review
// directory: reconciling live comment threads with the index and the
// append-only log, and restoring all threads at startup.
//
// The engine is the single in-process writer for its review directory.
// Every operation that reads-modifies-writes the index runs under one
// mutex, so overlapping calls cannot observe the same sequence cursor
// and clobber each other's index update.
package engine

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sidenote-dev/sidenote/internal/resolve"
	"github.com/sidenote-dev/sidenote/internal/schema"
	"github.com/sidenote-dev/sidenote/internal/store"
)

// ThreadView is a live thread handle whose visible state the engine can
// synchronize after a state transition. Handles that do not implement it
// are still fully supported; the caller then mirrors state itself.
type ThreadView interface {
	resolve.Thread
	// SetResolved mirrors the thread's resolved/unresolved indicator.
	SetResolved(resolved bool)
	// SetContextTag sets the free-form tag used externally to choose
	// which action buttons are shown.
	SetContextTag(tag string)
}

// Config configures an Engine.
type Config struct {
	// Author is the identity recorded on appended comments.
	Author string

	// Now supplies timestamps. Defaults to time.Now. Injected so tests
	// control time.
	Now func() time.Time

	// Logger receives restoration warnings and debug output.
	// Defaults to stderr.
	Logger *log.Logger
}

// UpsertResult reports the outcome of an UpsertComment call.
type UpsertResult struct {
	// ThreadID is the durable identifier the comment was recorded under.
	ThreadID string
	// NewThread is true when this call originated the thread's identity.
	NewThread bool
	// Row is the log row that was appended. The caller appends its body
	// to the live thread's visible content.
	Row schema.CommentLogRow
}

// RestoredThread is one thread emitted by RestoreAll: its index entry
// plus its log rows ordered by sequence number.
type RestoredThread struct {
	ThreadID string
	Entry    schema.ThreadEntry
	Comments []schema.CommentLogRow
}

// Engine reconciles live threads with the index and log stores.
type Engine struct {
	mu       sync.Mutex
	index    *store.IndexStore
	log      *store.LogStore
	resolver *resolve.Resolver
	author   string
	now      func() time.Time
	logger   *log.Logger
}

// New creates an engine over the given review directory.
//
// The resolver must be the one shared with any other component that
// resolves identity for the same directory, so the session cache stays
// coherent.
func New(dir string, resolver *resolve.Resolver, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	return &Engine{
		index:    store.NewIndexStore(dir),
		log:      store.NewLogStore(dir),
		resolver: resolver,
		author:   cfg.Author,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
}

// IndexStore exposes the engine's index store for derived consumers
// (cache rebuild, export). Writes stay with the engine.
func (e *Engine) IndexStore() *store.IndexStore {
	return e.index
}

// LogStore exposes the engine's log store for derived consumers.
func (e *Engine) LogStore() *store.LogStore {
	return e.log
}

// ResolveIdentity reports the durable identifier for a live thread, or
// ok=false when it has none. It never mutates the stores.
func (e *Engine) ResolveIdentity(t resolve.Thread) (threadID string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.index.Load()
	return e.resolver.Resolve(t, doc)
}

// UpsertComment records one authored comment against the thread t,
// assigning durable identity first when t has none.
//
// The log row is appended before the index is written: a crash between
// the two leaves the log (source of truth for content) ahead of the
// index (derived cache), so recovery undercounts rather than fabricates.
//
// Any I/O failure is returned with its cause and leaves no partial
// in-memory state behind; the caller must not update the live thread's
// visible content unless the call succeeds.
func (e *Engine) UpsertComment(t resolve.Thread, body string) (UpsertResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.EnsureExists(); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to bootstrap review store: %w", err)
	}

	doc := e.index.Load()
	now := e.now()

	entry, isNew, err := e.resolveOrMint(t, doc, now)
	if err != nil {
		return UpsertResult{}, err
	}

	nextSeq := doc.LastSeq + 1
	row := schema.CommentLogRow{
		ThreadID:  entry.ThreadID,
		CommentID: schema.NewCommentID(),
		Seq:       nextSeq,
		CreatedAt: now,
		Author:    e.author,
		Body:      body,
	}

	if err := e.log.Append(row); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to append comment: %w", err)
	}

	entry.CommentCount++
	entry.UpdatedAt = now
	if entry.FirstSeq == 0 {
		entry.FirstSeq = nextSeq
	}
	entry.LastSeq = nextSeq
	doc.LastSeq = nextSeq

	if err := e.index.Save(doc); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to save index: %w", err)
	}

	e.resolver.Bind(t, entry.ThreadID)

	return UpsertResult{ThreadID: entry.ThreadID, NewThread: isNew, Row: row}, nil
}

// SetState transitions a thread's lifecycle state. A state change can
// itself originate identity: a thread with no prior identity gets a
// fresh entry with zero comments. No log row is written; state lives
// only in the index.
//
// When t implements ThreadView, its resolved indicator and context tag
// are synchronized after the index write succeeds.
func (e *Engine) SetState(t resolve.Thread, state schema.ThreadState) error {
	if !state.Valid() {
		return fmt.Errorf("unrecognized thread state %q", state)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.EnsureExists(); err != nil {
		return fmt.Errorf("failed to bootstrap review store: %w", err)
	}

	doc := e.index.Load()
	now := e.now()

	entry, _, err := e.resolveOrMint(t, doc, now)
	if err != nil {
		return err
	}

	entry.State = state
	entry.UpdatedAt = now

	if err := e.index.Save(doc); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	e.resolver.Bind(t, entry.ThreadID)

	if view, ok := t.(ThreadView); ok {
		view.SetResolved(state == schema.StateClosed)
		view.SetContextTag(string(state))
	}

	return nil
}

// resolveOrMint resolves t's identity against doc, minting a fresh
// open entry when none exists. Caller holds the engine mutex.
func (e *Engine) resolveOrMint(t resolve.Thread, doc *schema.IndexDocument, now time.Time) (*schema.ThreadEntry, bool, error) {
	if id, ok := e.resolver.Resolve(t, doc); ok {
		if entry, found := doc.Threads[id]; found {
			return entry, false, nil
		}
		// The session cache can outlive an index that was rebuilt from
		// scratch underneath us (external corruption recovery). Drop the
		// stale binding and fall back to the content scan.
		e.resolver.Forget(t)
		if id, ok = e.resolver.Resolve(t, doc); ok {
			return doc.Threads[id], false, nil
		}
	}

	if err := t.Range().Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid thread range: %w", err)
	}

	entry := &schema.ThreadEntry{
		ThreadID:  schema.NewThreadID(),
		Location:  schema.LocationKey(t.Location()),
		Range:     t.Range(),
		State:     schema.StateOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.AddThread(entry)

	return entry, true, nil
}

// RestoreAll loads the index and the full log, groups log rows by
// thread, orders each group by sequence number, and emits every indexed
// thread with its ordered comments. Threads present in the index but
// absent from the log restore with an empty comment list.
//
// A per-thread validation failure is logged as a warning and that single
// thread is skipped; restoration of the remaining threads continues.
//
// Output order is deterministic (location, then range, then threadId),
// so restoring the same on-disk state twice yields identical results.
func (e *Engine) RestoreAll() ([]RestoredThread, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.index.Load()
	rows, err := e.log.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read comment log: %w", err)
	}

	byThread := make(map[string][]schema.CommentLogRow)
	for _, row := range rows {
		byThread[row.ThreadID] = append(byThread[row.ThreadID], row)
	}
	for id := range byThread {
		group := byThread[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Seq < group[j].Seq })
	}

	restored := make([]RestoredThread, 0, len(doc.Threads))
	for id, entry := range doc.Threads {
		if err := entry.Validate(); err != nil {
			e.logger.Printf("Warning: skipping thread %s: %v", id, err)
			continue
		}
		restored = append(restored, RestoredThread{
			ThreadID: id,
			Entry:    *entry,
			Comments: byThread[id],
		})
	}

	sort.Slice(restored, func(i, j int) bool {
		a, b := restored[i].Entry, restored[j].Entry
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if c := a.Range.Start.Cmp(b.Range.Start); c != 0 {
			return c < 0
		}
		if c := a.Range.End.Cmp(b.Range.End); c != 0 {
			return c < 0
		}
		return restored[i].ThreadID < restored[j].ThreadID
	})

	return restored, nil
}
