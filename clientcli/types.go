package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Project     string
	Version     string
	LocalPath   string
	FileName    string // optional, defaults to the base name of LocalPath
	ContentType string // optional, the server derives it from the file name if empty
}

// UploadResult represents the result of publishing a version.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Artifact
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Project   string
	Version   string
	LocalPath string // empty = file name from the server, "-" = stdout, directory = file name inside it
}

// DownloadResult represents the result of downloading a version's file.
type DownloadResult struct {
	Project     string `json:"project"`
	Version     string `json:"version"`
	FileName    string `json:"file_name"`
	LocalPath   string `json:"local_path"`
	ETag        string `json:"etag"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// Artifact is the metadata of a version's single file as returned by the
// server.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	Project     string    `json:"project"`
	Version     string    `json:"version"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SHA256      string    `json:"sha256"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// serverError mirrors the JSON error body of the server.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
