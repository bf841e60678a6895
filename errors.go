package depot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProject is returned when a project name fails validation
	ErrInvalidProject = errors.New("invalid project name")
	// ErrInvalidVersion is returned when a version name fails validation
	ErrInvalidVersion = errors.New("invalid version name")
	// ErrInvalidFile is returned when a file name is unusable or does not match the version's file
	ErrInvalidFile = errors.New("invalid file for version")
	// ErrCorruptedVersion is returned when a version directory does not hold exactly one file
	ErrCorruptedVersion = errors.New("corrupted storage for version")
	// ErrUnprovidedAuthorization is returned when no credential was supplied
	ErrUnprovidedAuthorization = errors.New("did not provide authorization")
	// ErrUnauthorized is returned when a token is not on the relevant allow-list
	ErrUnauthorized = errors.New("unauthorized")
	// ErrVersionAlreadyExists is returned when uploading to a populated version
	ErrVersionAlreadyExists = errors.New("version already exists")
	// ErrIO wraps underlying filesystem failures
	ErrIO = errors.New("storage i/o error")
	// ErrNotFound is returned when a catalog record does not exist
	ErrNotFound = errors.New("not found")
	// ErrMalformedRequest is the catch-all for requests the store cannot interpret
	ErrMalformedRequest = errors.New("malformed request")
)

// Malformed request variants. Each wraps ErrMalformedRequest.
var (
	ErrBadHeaderEncoding = fmt.Errorf("%w: bad header encoding", ErrMalformedRequest)
	ErrUnknownAuthMethod = fmt.Errorf("%w: unknown authentication method", ErrMalformedRequest)
	ErrMissingVersion    = fmt.Errorf("%w: did not provide version", ErrMalformedRequest)
	ErrNoFileUploaded    = fmt.Errorf("%w: failed to upload", ErrMalformedRequest)
	ErrMultipleFiles     = fmt.Errorf("%w: a version holds exactly one file", ErrMalformedRequest)
)

var (
	errUnauthorizedReader = fmt.Errorf("%w reader", ErrUnauthorized)
	errUnauthorizedWriter = fmt.Errorf("%w writer", ErrUnauthorized)
)

// ioError marks err as a filesystem failure while keeping it inspectable
// with errors.Is (e.g. fs.ErrNotExist).
func ioError(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}
