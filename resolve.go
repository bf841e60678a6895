package depot

import (
	"context"
	"fmt"
	"path/filepath"
)

// FileForVersion returns the name of the single artifact file of a version.
// The version directory is listed on every call. Zero or several entries
// yield ErrCorruptedVersion; a missing directory yields ErrIO wrapping
// fs.ErrNotExist.
func (s *Store) FileForVersion(ctx context.Context, project ProjectReader, version string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("file for version: %w", err)
	}

	v, err := ParseVersionName(version)
	if err != nil {
		return "", fmt.Errorf("file for version: %w", err)
	}

	file, err := s.fileForVersion(project, v)
	if err != nil {
		return "", fmt.Errorf("file for version %s/%s: %w", project.name, v, err)
	}
	return file, nil
}

// PathForVersion returns the full path of the single artifact file of a
// version, with the same failure modes as FileForVersion.
func (s *Store) PathForVersion(ctx context.Context, project ProjectReader, version string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("path for version: %w", err)
	}

	v, err := ParseVersionName(version)
	if err != nil {
		return "", fmt.Errorf("path for version: %w", err)
	}

	file, err := s.fileForVersion(project, v)
	if err != nil {
		return "", fmt.Errorf("path for version %s/%s: %w", project.name, v, err)
	}
	return filepath.Join(s.versionDir(project, v), file), nil
}

func (s *Store) fileForVersion(project ProjectReader, version VersionName) (string, error) {
	names, err := readDirNames(s.versionDir(project, version))
	if err != nil {
		return "", err
	}
	if len(names) != 1 {
		return "", ErrCorruptedVersion
	}
	return names[0], nil
}
