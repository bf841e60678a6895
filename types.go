package depot

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Artifact describes the single file of a version as recorded in the catalog.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	Project     string    `json:"project"`
	Version     string    `json:"version"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SHA256      string    `json:"sha256"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArtifactEntry is the data written to the catalog for a version.
type ArtifactEntry struct {
	Project     string
	Version     string
	FileName    string
	ContentType string
	SHA256      string
	SizeBytes   int64
}

// SaveResult is returned by ArtifactStorage after writing or hashing a file.
type SaveResult struct {
	BytesWritten int64
	SHA256       string
}

// Tables holds configurable table names for the catalog.
// This allows several stores to share one database.
type Tables struct {
	Artifacts string `mapstructure:"artifacts"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Artifacts == "" {
		return errors.New("validate tables: artifacts table name cannot be empty")
	}

	if !IsValidTableName(t.Artifacts) {
		return fmt.Errorf("validate tables: invalid artifacts table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Artifacts)
	}

	return nil
}
