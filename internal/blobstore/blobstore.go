// Package blobstore stores raw content bytes under opaque, path-shaped
// pointers. Pointers are always relative and are validated against directory
// traversal before touching the backend. Two backends are provided: a local
// filesystem store and an S3-compatible object store.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store is a path-addressed byte store.
type Store interface {
	// Put writes size bytes from r under pointer, overwriting any existing
	// content at that pointer.
	Put(ctx context.Context, pointer string, r io.Reader, size int64) error

	// Get opens the content at pointer. A missing pointer yields
	// common.ErrNotFound.
	Get(ctx context.Context, pointer string) (io.ReadCloser, error)

	// Delete removes the content at pointer. Deleting an absent pointer is
	// not an error; the bool reports whether anything was removed.
	Delete(ctx context.Context, pointer string) (bool, error)

	// Exists reports whether pointer resolves to stored content.
	Exists(ctx context.Context, pointer string) (bool, error)
}

// validatePointer rejects absolute paths and any traversal sequences so a
// digest- or filename-derived pointer can never escape the store root.
func validatePointer(pointer string) error {
	if pointer == "" {
		return fmt.Errorf("empty blob pointer")
	}
	if strings.HasPrefix(pointer, "/") || strings.Contains(pointer, "\\") {
		return fmt.Errorf("invalid blob pointer %q", pointer)
	}
	cleaned := path.Clean(pointer)
	if cleaned != pointer || cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("invalid blob pointer %q", pointer)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return fmt.Errorf("invalid blob pointer %q", pointer)
		}
	}
	return nil
}
