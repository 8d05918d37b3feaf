// Package honeycomb is the hive's shared persistence area. It provides
// pluggable byte-level stores (local files, Redis) and, on top of them, the
// signed state manager that makes the shared state document tamper-evident.
package honeycomb

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Read when the named document does not
// exist yet. Callers treat this as "empty", not as a failure.
var ErrNotFound = errors.New("honeycomb: document not found")

// Store reads and writes whole named documents. Implementations must make
// Write atomic with respect to concurrent readers: a reader never observes a
// partially written document.
//
// Methods take a context for symmetry across backends even though the file
// backend completes without suspension.
type Store interface {
	// Read returns the full content of the named document, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write atomically replaces the named document.
	Write(ctx context.Context, name string, data []byte) error
}
