// Package filesystem stores artifact bytes for depot. Writes are atomic
// (temp file, fsync, rename) and report the SHA-256 of the content.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
)

// ErrOutsideRoot is returned for paths that do not lie under the storage root.
var ErrOutsideRoot = errors.New("path outside storage root")

// Storage provides artifact file operations confined to one directory.
type Storage struct {
	root *os.Root
	dir  string
}

// NewStorage creates a Storage on an opened root. Paths handed to its methods
// may be absolute (as returned by depot.Store) as long as they lie under the
// directory root was opened on, or relative to it. A root opened on a
// relative name is resolved against the current working directory.
func NewStorage(root *os.Root) *Storage {
	dir, err := filepath.Abs(root.Name())
	if err != nil {
		dir = filepath.Clean(root.Name())
	}
	return &Storage{root: root, dir: dir}
}

// Get opens a file for reading. Returns depot.ErrNotFound if the file does not exist.
func (s *Storage) Get(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := s.rel(path)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, depot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to path. The temp file lives next to the
// destination, so the rename never crosses directories. The destination
// directory must already exist.
func (s *Storage) Write(ctx context.Context, path string, content io.Reader) (depot.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return depot.SaveResult{}, ctxErr
	}

	rel, err := s.rel(path)
	if err != nil {
		return depot.SaveResult{}, err
	}

	tmpFile := filepath.Join(filepath.Dir(rel), tmpFileName())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return depot.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	size, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return depot.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return depot.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, rel); renameErr != nil {
		return depot.SaveResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return depot.SaveResult{BytesWritten: size, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Digest reads an existing file and returns its size and SHA-256.
func (s *Storage) Digest(ctx context.Context, path string) (depot.SaveResult, error) {
	f, err := s.Get(ctx, path)
	if err != nil {
		return depot.SaveResult{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", path, "err", closeErr)
		}
	}()

	h := sha256.New()
	size, err := io.Copy(h, &ctxReader{ctx: ctx, r: f})
	if err != nil {
		return depot.SaveResult{}, fmt.Errorf("digest %s: %w", path, err)
	}

	return depot.SaveResult{BytesWritten: size, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// rel turns path into a path relative to the root. os.Root refuses escapes on
// its own; the check here only gives a clearer error.
func (s *Storage) rel(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return rel, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
