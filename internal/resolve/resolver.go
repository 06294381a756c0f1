// Package resolve maps live review threads to durable thread identifiers.
//
// Identity is defined purely by (location, exact range): the system does
// not re-anchor ranges when surrounding code shifts, so a moved range is
// a new logical thread. That is a documented limitation, not a bug.
package resolve

import (
	"sync"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

// Thread is the live, in-memory thread handle supplied by the UI
// collaborator. Only its anchor is consumed here; content and display
// state stay with the caller.
type Thread interface {
	// Location returns a stable reference to the anchored file
	// (workspace-relative path or URI string).
	Location() string
	// Range returns the anchored character range.
	Range() schema.Range
}

// Resolver resolves live threads to durable identifiers using two tiers:
//
//  1. A non-persistent cache keyed by the handle's runtime identity,
//     valid only for the current session. A miss here means "not yet
//     cached", never "does not exist".
//  2. An exact-match scan of the index's reverse lookup table. All four
//     range coordinates must match; overlapping or nearest entries never
//     resolve.
//
// Construct one Resolver per review directory and pass it explicitly to
// the components that need it; the handle association is deliberately
// not process-global.
type Resolver struct {
	mu    sync.Mutex
	byRef map[Thread]string
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{byRef: make(map[Thread]string)}
}

// Resolve returns the durable identifier for t, or ok=false when the
// thread has no durable identity yet and the caller must treat it as new.
func (r *Resolver) Resolve(t Thread, doc *schema.IndexDocument) (threadID string, ok bool) {
	r.mu.Lock()
	if id, hit := r.byRef[t]; hit {
		r.mu.Unlock()
		return id, true
	}
	r.mu.Unlock()

	entry := doc.FindThread(t.Location(), t.Range())
	if entry == nil {
		return "", false
	}

	r.Bind(t, entry.ThreadID)
	return entry.ThreadID, true
}

// Bind associates a live handle with a durable identifier for the rest
// of the session. Callers bind after the identity has been persisted so
// the fast tier never claims an identity the stores do not hold.
func (r *Resolver) Bind(t Thread, threadID string) {
	r.mu.Lock()
	r.byRef[t] = threadID
	r.mu.Unlock()
}

// Forget drops the cached association for a handle, if any. Used when a
// live handle is discarded by the collaborator.
func (r *Resolver) Forget(t Thread) {
	r.mu.Lock()
	delete(r.byRef, t)
	r.mu.Unlock()
}
