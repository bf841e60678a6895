package depot

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ProjectReader proves a successful read authorization for one project.
// It can only be obtained from Store.ProjectReader or ProjectWriter.Reader.
type ProjectReader struct {
	name ProjectName
}

// Name returns the project name.
func (p ProjectReader) Name() string {
	return string(p.name)
}

// ProjectWriter proves a successful write authorization for one project.
// It can only be obtained from Store.ProjectWriter.
type ProjectWriter struct {
	name ProjectName
}

// Name returns the project name.
func (p ProjectWriter) Name() string {
	return string(p.name)
}

// Reader returns the read capability for the same project. A writer may read
// its own project without a second allow-list check.
func (p ProjectWriter) Reader() ProjectReader {
	return ProjectReader{name: p.name}
}

// ProjectReader validates the project name and checks that the credential is
// listed in the project's readers.txt.
func (s *Store) ProjectReader(ctx context.Context, project string, cred Credential) (ProjectReader, error) {
	if err := ctx.Err(); err != nil {
		return ProjectReader{}, fmt.Errorf("authorize reader: %w", err)
	}

	name, err := ParseProjectName(project)
	if err != nil {
		return ProjectReader{}, fmt.Errorf("authorize reader: %w", err)
	}

	if err := s.authorize(name, readersFile, cred, errUnauthorizedReader); err != nil {
		return ProjectReader{}, fmt.Errorf("authorize reader %s: %w", name, err)
	}

	return ProjectReader{name: name}, nil
}

// ProjectWriter validates the project name and checks that the credential is
// listed in the project's writers.txt.
func (s *Store) ProjectWriter(ctx context.Context, project string, cred Credential) (ProjectWriter, error) {
	if err := ctx.Err(); err != nil {
		return ProjectWriter{}, fmt.Errorf("authorize writer: %w", err)
	}

	name, err := ParseProjectName(project)
	if err != nil {
		return ProjectWriter{}, fmt.Errorf("authorize writer: %w", err)
	}

	if err := s.authorize(name, writersFile, cred, errUnauthorizedWriter); err != nil {
		return ProjectWriter{}, fmt.Errorf("authorize writer %s: %w", name, err)
	}

	return ProjectWriter{name: name}, nil
}

func (s *Store) authorize(name ProjectName, listFile string, cred Credential, denied error) error {
	found, err := allowListContains(filepath.Join(s.projectDir(name), listFile), cred.token)
	if err != nil {
		return err
	}
	if !found {
		return denied
	}
	return nil
}

// allowListContains reports whether some line of the file equals token
// exactly. "\n" and "\r\n" terminators are stripped, nothing else is trimmed.
//
// A missing or unreadable file is an error (ErrIO), not a denial. Lines that
// are not valid UTF-8 never match but do not stop the scan.
func allowListContains(path, token string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated project name
	if err != nil {
		return false, ioError(err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if utf8.ValidString(line) && line == token {
				return true, nil
			}
		}
		if readErr != nil {
			// EOF, or the rest of the file cannot be read: nothing else can match.
			return false, nil
		}
	}
}
