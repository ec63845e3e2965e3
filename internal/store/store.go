// Package store persists document snapshots with optimistic concurrency.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
)

var (
	// ErrNotFound is returned when a document id has never been saved.
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict is returned by Save when the stored version moved
	// past the caller's base version.
	ErrVersionConflict = errors.New("document version conflict")

	// ErrInvalidDocID is returned for ids that are not safe as file names.
	ErrInvalidDocID = errors.New("invalid document id")
)

// Version counts the saves of a document. A document that was never saved
// is at version 0.
type Version int64

// Store loads and saves whole document snapshots.
type Store interface {
	// Load returns the latest snapshot of doc and its version.
	Load(ctx context.Context, doc string) (*dom.Dom, Version, error)
	// Save stores d as the next version of doc. base must equal the stored
	// version (0 for a new document), otherwise ErrVersionConflict.
	Save(ctx context.Context, doc string, d *dom.Dom, base Version) (Version, error)
	// List returns the stored document ids, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes doc.
	Delete(ctx context.Context, doc string) error
	Close() error
}

var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func checkDocID(doc string) error {
	if !docIDPattern.MatchString(doc) {
		return fmt.Errorf("%w: %q", ErrInvalidDocID, doc)
	}
	return nil
}

// Open returns the store for a backend name: "sqlite" opens path as a
// database, "file" keeps one JSON file per document under the directory
// path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "sqlite":
		return OpenSQLite(path)
	case "file":
		return OpenDir(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
