package depot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// OutpathFor allocates the destination path for a new version's artifact.
//
// If the version directory exists and is not empty the upload is refused with
// ErrVersionAlreadyExists. Otherwise the directory is created (an existing
// empty directory left by an interrupted upload is accepted) and
// <versions>/<version>/<fileName> is returned for the caller to write.
//
// The existence check and the directory creation are not atomic: two
// concurrent first uploads of the same version can both succeed and leave a
// corrupted, multi-file version. Callers that need single-writer-wins
// semantics use StageUpload instead.
func (s *Store) OutpathFor(ctx context.Context, project ProjectWriter, version, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("outpath for: %w", err)
	}

	v, err := ParseVersionName(version)
	if err != nil {
		return "", fmt.Errorf("outpath for: %w", err)
	}

	name, err := ParseFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("outpath for: %w", err)
	}

	dir := s.versionDir(project.Reader(), v)
	if err := ensureUnpopulated(dir); err != nil {
		return "", fmt.Errorf("outpath for %s/%s: %w", project.name, v, err)
	}

	if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("outpath for %s/%s: %w", project.name, v, ioError(err))
	}

	return filepath.Join(dir, name), nil
}

// Upload is a version being written in a private staging directory. Bytes
// are written at Path, then Commit publishes the whole directory as the
// version in a single rename.
type Upload struct {
	store     *Store
	project   ProjectReader
	version   VersionName
	fileName  string
	dir       string
	committed bool
}

// StageUpload prepares an upload of fileName as version of the project.
//
// It refuses early with ErrVersionAlreadyExists when the version is already
// populated, then creates <project>/.staging/<id>/. Nothing becomes visible
// under versions/ until Commit.
func (s *Store) StageUpload(ctx context.Context, project ProjectWriter, version, fileName string) (*Upload, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	v, err := ParseVersionName(version)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	name, err := ParseFileName(fileName)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	reader := project.Reader()
	if err := ensureUnpopulated(s.versionDir(reader, v)); err != nil {
		return nil, fmt.Errorf("stage upload %s/%s: %w", project.name, v, err)
	}

	root := s.stagingDir(reader)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("stage upload %s/%s: %w", project.name, v, ioError(err))
	}

	dir := filepath.Join(root, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stage upload %s/%s: %w", project.name, v, ioError(err))
	}

	return &Upload{
		store:    s,
		project:  reader,
		version:  v,
		fileName: name,
		dir:      dir,
	}, nil
}

// Path is where the caller writes the artifact bytes.
func (u *Upload) Path() string {
	return filepath.Join(u.dir, u.fileName)
}

// Project returns the project being uploaded to.
func (u *Upload) Project() string {
	return string(u.project.name)
}

// Version returns the version being uploaded.
func (u *Upload) Version() string {
	return string(u.version)
}

// FileName returns the validated artifact file name.
func (u *Upload) FileName() string {
	return u.fileName
}

// Commit publishes the staged directory as the version and returns the final
// artifact path.
//
// An empty version directory is removed and replaced; a populated one, or
// one that appears between the removal and the rename, fails the commit. Of
// several concurrent uploads of the same version exactly one commits; the
// others get ErrVersionAlreadyExists and should Abort.
func (u *Upload) Commit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("commit upload: %w", err)
	}

	names, err := readDirNames(u.dir)
	if err != nil {
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, err)
	}
	switch {
	case len(names) == 0:
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ErrNoFileUploaded)
	case len(names) > 1:
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ErrMultipleFiles)
	case names[0] != u.fileName:
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ErrInvalidFile)
	}

	target := u.store.versionDir(u.project, u.version)

	// os.Rename refuses any existing target directory, so an empty one left
	// by an interrupted upload is removed first. rmdir fails on a populated
	// directory (ENOTEMPTY, which matches fs.ErrExist).
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ErrVersionAlreadyExists)
		}
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ioError(err))
	}

	// A target that reappeared since the removal belongs to a concurrent
	// commit or OutpathFor caller.
	if err := os.Rename(u.dir, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ErrVersionAlreadyExists)
		}
		return "", fmt.Errorf("commit upload %s/%s: %w", u.project.name, u.version, ioError(err))
	}

	u.committed = true
	return filepath.Join(target, u.fileName), nil
}

// Abort discards the staging directory. It is a no-op after a successful
// Commit, so it can be deferred.
func (u *Upload) Abort() error {
	if u.committed {
		return nil
	}
	if err := os.RemoveAll(u.dir); err != nil {
		return fmt.Errorf("abort upload %s/%s: %w", u.project.name, u.version, ioError(err))
	}
	return nil
}

// CleanupStaging removes staging directories not modified for olderThan,
// across all projects. A directory counts as modified when any file in it
// is, so an upload that is still streaming into its temp file is kept. Entries of the root that are not
// valid project names or have no staging directory are skipped.
//
// Returns the number of staging directories removed.
func (s *Store) CleanupStaging(ctx context.Context, olderThan time.Duration) (int, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup staging: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return removed, fmt.Errorf("cleanup staging: %w", err)
		}

		name, parseErr := ParseProjectName(p)
		if parseErr != nil {
			continue
		}

		root := s.stagingDir(ProjectReader{name: name})
		entries, readErr := os.ReadDir(root)
		if readErr != nil {
			if !errors.Is(readErr, fs.ErrNotExist) {
				slog.Debug("skipping staging directory", "path", root, "err", readErr)
			}
			continue
		}

		for _, e := range entries {
			path := filepath.Join(root, e.Name())
			modified, ok := lastModified(path)
			if !ok || modified.After(cutoff) {
				continue
			}

			if rmErr := os.RemoveAll(path); rmErr != nil {
				return removed, fmt.Errorf("cleanup staging %s: %w", path, ioError(rmErr))
			}
			removed++
		}
	}

	return removed, nil
}

// lastModified returns the newest modification time of path and its direct
// entries. ok is false when path cannot be inspected.
func lastModified(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	latest := info.ModTime()
	if !info.IsDir() {
		return latest, true
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return latest, true
	}
	for _, e := range entries {
		entryInfo, infoErr := e.Info()
		if infoErr != nil {
			continue
		}
		if entryInfo.ModTime().After(latest) {
			latest = entryInfo.ModTime()
		}
	}
	return latest, true
}

// ensureUnpopulated fails with ErrVersionAlreadyExists when dir exists and
// holds at least one entry. A missing dir is fine.
func ensureUnpopulated(dir string) error {
	names, err := readDirNames(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(names) > 0 {
		return ErrVersionAlreadyExists
	}
	return nil
}
