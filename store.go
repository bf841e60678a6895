package depot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	readersFile = "readers.txt"
	writersFile = "writers.txt"
	versionsDir = "versions"
	stagingDir  = ".staging"
)

// Store resolves projects, versions and artifact files under a root directory.
//
// The layout on disk is:
//
//	<root>/<project>/readers.txt
//	<root>/<project>/writers.txt
//	<root>/<project>/versions/<version>/<single-file>
//
// Store keeps no state besides the root path: allow-lists and directories are
// read again on every call, so concurrent callers observe whatever the
// filesystem holds at that moment.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. Projects are provisioned outside the
// store by placing a directory with the allow-list files and a versions
// directory under dir.
//
// A relative dir is resolved against the working directory at the time of
// the call, so every path the Store hands out is absolute.
func New(dir string) *Store {
	if abs, err := filepath.Abs(dir); err == nil {
		return &Store{dir: abs}
	}
	return &Store{dir: filepath.Clean(dir)}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// ListProjects returns every entry of the root directory. Entries are not
// filtered, so a stray directory is reported as a project.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	names, err := readDirNames(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return names, nil
}

// ListVersions returns every entry of the project's versions directory.
func (s *Store) ListVersions(ctx context.Context, project ProjectReader) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	names, err := readDirNames(s.versionsDir(project))
	if err != nil {
		return nil, fmt.Errorf("list versions %s: %w", project.name, err)
	}
	return names, nil
}

func (s *Store) projectDir(name ProjectName) string {
	return filepath.Join(s.dir, string(name))
}

func (s *Store) versionsDir(project ProjectReader) string {
	return filepath.Join(s.projectDir(project.name), versionsDir)
}

func (s *Store) versionDir(project ProjectReader, version VersionName) string {
	return filepath.Join(s.versionsDir(project), string(version))
}

func (s *Store) stagingDir(project ProjectReader) string {
	return filepath.Join(s.projectDir(project.name), stagingDir)
}

// readDirNames lists the entry names of dir. Failures are wrapped as ErrIO.
func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError(err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
