package depot

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	validProjectNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validVersionNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// ProjectName is a project name that passed validation.
type ProjectName string

// VersionName is a version name that passed validation.
type VersionName string

// ParseProjectName validates a project name. Project names are concatenated
// directly into filesystem paths, so only ASCII letters, digits, '-' and '_'
// are accepted. The empty string is rejected since it would name the store root.
func ParseProjectName(s string) (ProjectName, error) {
	if !validProjectNameRegex.MatchString(s) {
		return "", fmt.Errorf("parse project %q: %w", s, ErrInvalidProject)
	}
	return ProjectName(s), nil
}

// ParseVersionName validates a version name. Version names additionally allow
// '.', but must not start with one: ".", ".." and hidden names would resolve
// outside the version's own directory.
func ParseVersionName(s string) (VersionName, error) {
	if !validVersionNameRegex.MatchString(s) || s[0] == '.' {
		return "", fmt.Errorf("parse version %q: %w", s, ErrInvalidVersion)
	}
	return VersionName(s), nil
}

// ParseFileName validates the name of an uploaded artifact file.
// It checks that the name:
//   - is not empty
//   - is valid UTF-8
//   - is a single path element (no '/' or '\')
//   - does not start with '.' (covers "." and "..")
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
func ParseFileName(s string) (string, error) {
	if s == "" || s[0] == '.' {
		return "", fmt.Errorf("parse file name %q: %w", s, ErrInvalidFile)
	}

	if strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("parse file name %q: %w", s, ErrInvalidFile)
	}

	if !utf8.ValidString(s) {
		return "", fmt.Errorf("parse file name: %w", ErrInvalidFile)
	}

	for _, r := range s {
		if r < 0x20 || r == 0x7f || unicode.IsControl(r) {
			return "", fmt.Errorf("parse file name %q: %w", s, ErrInvalidFile)
		}
	}

	return s, nil
}
