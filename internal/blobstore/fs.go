package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/psemenov/filebox/internal/common"
)

// FS stores blobs as regular files rooted at a base directory.
type FS struct {
	base string
}

// NewFS creates the base directory if needed and returns a filesystem store.
func NewFS(base string) (*FS, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return &FS{base: abs}, nil
}

func (s *FS) fullPath(pointer string) (string, error) {
	if err := validatePointer(pointer); err != nil {
		return "", err
	}
	return filepath.Join(s.base, filepath.FromSlash(pointer)), nil
}

// Put writes to a temp file in the target directory and renames it into
// place, so readers never observe partially written blobs.
func (s *FS) Put(ctx context.Context, pointer string, r io.Reader, size int64) error {
	full, err := s.fullPath(pointer)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short write: got %d bytes, want %d", n, size)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write blob %s: %w", pointer, err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store blob %s: %w", pointer, err)
	}
	return nil
}

func (s *FS) Get(ctx context.Context, pointer string) (io.ReadCloser, error) {
	full, err := s.fullPath(pointer)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", pointer, err)
	}
	return f, nil
}

func (s *FS) Delete(ctx context.Context, pointer string) (bool, error) {
	full, err := s.fullPath(pointer)
	if err != nil {
		return false, err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete blob %s: %w", pointer, err)
	}
	return true, nil
}

func (s *FS) Exists(ctx context.Context, pointer string) (bool, error) {
	full, err := s.fullPath(pointer)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob %s: %w", pointer, err)
	}
	return true, nil
}
