package schema

import "github.com/google/uuid"

// NewThreadID mints an opaque thread identifier. Assigned once when a
// live thread first gains durable identity, immutable thereafter.
func NewThreadID() string {
	return "th-" + uuid.NewString()
}

// NewCommentID mints an opaque comment identifier.
func NewCommentID() string {
	return "cm-" + uuid.NewString()
}
