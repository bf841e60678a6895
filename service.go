package depot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"time"
)

// Catalog records artifact metadata (digest, size, content type) per version.
//
// The catalog is an index, never the source of truth: authorization and file
// resolution always go to the filesystem. Implementations must be safe for
// concurrent use.
type Catalog interface {
	// Get retrieves the record of a version.
	//
	// Returns:
	//   - Artifact: The record if found
	//   - error: ErrNotFound if the version has no record, or other database errors
	Get(ctx context.Context, project, version string) (Artifact, error)

	// Upsert creates or replaces the record of a version.
	//
	// Returns:
	//   - Artifact: The stored record with ID and timestamps
	//   - bool: true if a new record was created, false if an existing one was updated
	//   - error: Any database error
	Upsert(ctx context.Context, entry ArtifactEntry) (Artifact, bool, error)
}

// ArtifactStorage reads and writes artifact bytes at paths handed out by the
// Store. Implementations must refuse paths outside the store root.
type ArtifactStorage interface {
	// Get opens a file for reading. The caller closes it.
	Get(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// Write stores content at path, computing its SHA-256 while writing.
	// Implementations should write atomically and clean up partial writes.
	Write(ctx context.Context, path string, content io.Reader) (SaveResult, error)

	// Digest hashes an existing file.
	Digest(ctx context.Context, path string) (SaveResult, error)
}

// Service combines the Store with byte storage and an optional Catalog into
// the operations used by the transport and the admin commands.
type Service struct {
	store   *Store
	storage ArtifactStorage
	catalog Catalog
}

// NewService creates a Service. catalog may be nil, in which case artifact
// metadata is computed from disk on every Info call.
func NewService(store *Store, storage ArtifactStorage, catalog Catalog) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: store is required")
	}
	if storage == nil {
		return nil, errors.New("new service: storage is required")
	}
	return &Service{store: store, storage: storage, catalog: catalog}, nil
}

// Store returns the underlying Store.
func (s *Service) Store() *Store {
	return s.store
}

// Publish uploads content as the single file of a new version.
//
// The bytes are written into a staging directory and the version appears
// atomically on Commit; a concurrent upload of the same version that commits
// first makes this call fail with ErrVersionAlreadyExists and leaves nothing
// behind. An empty contentType is derived from the file extension.
//
// The catalog is updated after the commit. A catalog failure at that point is
// logged and not returned: the version is already published and Info rebuilds
// the record on demand.
func (s *Service) Publish(ctx context.Context, project ProjectWriter, version, fileName, contentType string, content io.Reader) (Artifact, error) {
	upload, err := s.store.StageUpload(ctx, project, version, fileName)
	if err != nil {
		return Artifact{}, fmt.Errorf("publish: %w", err)
	}
	defer func() {
		if abortErr := upload.Abort(); abortErr != nil {
			slog.Warn("failed to discard staged upload", "project", upload.Project(), "version", upload.Version(), "err", abortErr)
		}
	}()

	saved, err := s.storage.Write(ctx, upload.Path(), content)
	if err != nil {
		return Artifact{}, fmt.Errorf("publish %s/%s: write failed: %w", upload.Project(), upload.Version(), err)
	}

	if _, err := upload.Commit(ctx); err != nil {
		return Artifact{}, fmt.Errorf("publish: %w", err)
	}

	if contentType == "" {
		contentType = detectContentType(upload.FileName())
	}

	entry := ArtifactEntry{
		Project:     upload.Project(),
		Version:     upload.Version(),
		FileName:    upload.FileName(),
		ContentType: contentType,
		SHA256:      saved.SHA256,
		SizeBytes:   saved.BytesWritten,
	}

	return s.record(ctx, entry), nil
}

// Open resolves a version's file and opens it for reading. fileName must be
// the version's actual file, otherwise ErrInvalidFile is returned.
//
// The returned Artifact comes from the catalog when available; otherwise only
// its name fields are set. The caller closes the reader.
func (s *Service) Open(ctx context.Context, project ProjectReader, version, fileName string) (Artifact, io.ReadSeekCloser, error) {
	path, err := s.store.PathForVersion(ctx, project, version)
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("open artifact: %w", err)
	}

	file := filepath.Base(path)
	if file != fileName {
		return Artifact{}, nil, fmt.Errorf("open artifact %s/%s/%s: %w", project.name, version, fileName, ErrInvalidFile)
	}

	artifact, ok := s.lookup(ctx, project.Name(), version, file)
	if !ok {
		artifact = Artifact{
			Project:     project.Name(),
			Version:     version,
			FileName:    file,
			ContentType: detectContentType(file),
		}
	}

	f, err := s.storage.Get(ctx, path)
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("open artifact %s/%s: %w", project.name, version, err)
	}

	return artifact, f, nil
}

// Info returns the metadata of a version's file. The file is resolved from
// disk first; a catalog record that is missing or names another file is
// rebuilt by hashing the file.
func (s *Service) Info(ctx context.Context, project ProjectReader, version string) (Artifact, error) {
	path, err := s.store.PathForVersion(ctx, project, version)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact info: %w", err)
	}

	file := filepath.Base(path)
	if artifact, ok := s.lookup(ctx, project.Name(), version, file); ok {
		return artifact, nil
	}

	digest, err := s.storage.Digest(ctx, path)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact info %s/%s: %w", project.name, version, err)
	}

	entry := ArtifactEntry{
		Project:     project.Name(),
		Version:     version,
		FileName:    file,
		ContentType: detectContentType(file),
		SHA256:      digest.SHA256,
		SizeBytes:   digest.BytesWritten,
	}

	return s.record(ctx, entry), nil
}

// Reindex rebuilds the catalog from the files on disk. It runs with operator
// privileges: allow-lists are not consulted.
//
// Root entries that are not valid project names, projects without a versions
// directory, and corrupted versions are skipped with a log line. It stops at
// the first other error and returns the number of versions indexed so far.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.catalog == nil {
		return 0, errors.New("reindex: no catalog configured")
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}

	indexed := 0
	for _, p := range projects {
		name, parseErr := ParseProjectName(p)
		if parseErr != nil {
			slog.Debug("skipping root entry", "name", p)
			continue
		}
		reader := ProjectReader{name: name}

		versions, listErr := s.store.ListVersions(ctx, reader)
		if listErr != nil {
			slog.Warn("skipping project", "project", p, "err", listErr)
			continue
		}

		for _, v := range versions {
			if _, parseErr := ParseVersionName(v); parseErr != nil {
				slog.Debug("skipping version entry", "project", p, "name", v)
				continue
			}

			path, pathErr := s.store.PathForVersion(ctx, reader, v)
			if errors.Is(pathErr, ErrCorruptedVersion) {
				slog.Warn("skipping corrupted version", "project", p, "version", v)
				continue
			}
			if pathErr != nil {
				return indexed, fmt.Errorf("reindex: %w", pathErr)
			}

			digest, digestErr := s.storage.Digest(ctx, path)
			if digestErr != nil {
				return indexed, fmt.Errorf("reindex %s/%s: %w", p, v, digestErr)
			}

			file := filepath.Base(path)
			_, _, upsertErr := s.catalog.Upsert(ctx, ArtifactEntry{
				Project:     p,
				Version:     v,
				FileName:    file,
				ContentType: detectContentType(file),
				SHA256:      digest.SHA256,
				SizeBytes:   digest.BytesWritten,
			})
			if upsertErr != nil {
				return indexed, fmt.Errorf("reindex %s/%s: %w", p, v, upsertErr)
			}
			indexed++
		}
	}

	return indexed, nil
}

// Cleanup removes staging directories of interrupted uploads older than
// olderThan. Returns the number removed.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	return s.store.CleanupStaging(ctx, olderThan)
}

// lookup returns the catalog record of a version when it exists and names
// file.
func (s *Service) lookup(ctx context.Context, project, version, file string) (Artifact, bool) {
	if s.catalog == nil {
		return Artifact{}, false
	}

	artifact, err := s.catalog.Get(ctx, project, version)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("catalog lookup failed", "project", project, "version", version, "err", err)
		}
		return Artifact{}, false
	}

	if artifact.FileName != file {
		slog.Warn("catalog record names another file", "project", project, "version", version, "recorded", artifact.FileName, "actual", file)
		return Artifact{}, false
	}

	return artifact, true
}

// record upserts entry into the catalog. Without a catalog, or when the
// upsert fails, the artifact is built from the entry alone.
func (s *Service) record(ctx context.Context, entry ArtifactEntry) Artifact {
	now := time.Now().UTC()
	fallback := Artifact{
		Project:     entry.Project,
		Version:     entry.Version,
		FileName:    entry.FileName,
		ContentType: entry.ContentType,
		SHA256:      entry.SHA256,
		SizeBytes:   entry.SizeBytes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.catalog == nil {
		return fallback
	}

	artifact, _, err := s.catalog.Upsert(ctx, entry)
	if err != nil {
		slog.Warn("failed to record artifact", "project", entry.Project, "version", entry.Version, "err", err)
		return fallback
	}
	return artifact
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// ListProjects returns every entry of the store root. See Store.ListProjects.
func (s *Service) ListProjects(ctx context.Context) ([]string, error) {
	return s.store.ListProjects(ctx)
}

// ListVersions returns every version of the project. See Store.ListVersions.
func (s *Service) ListVersions(ctx context.Context, project ProjectReader) ([]string, error) {
	return s.store.ListVersions(ctx, project)
}

// ProjectReader authorizes cred to read project. See Store.ProjectReader.
func (s *Service) ProjectReader(ctx context.Context, project string, cred Credential) (ProjectReader, error) {
	return s.store.ProjectReader(ctx, project, cred)
}

// ProjectWriter authorizes cred to write project. See Store.ProjectWriter.
func (s *Service) ProjectWriter(ctx context.Context, project string, cred Credential) (ProjectWriter, error) {
	return s.store.ProjectWriter(ctx, project, cred)
}

// FileForVersion returns the name of the version's file. See Store.FileForVersion.
func (s *Service) FileForVersion(ctx context.Context, project ProjectReader, version string) (string, error) {
	return s.store.FileForVersion(ctx, project, version)
}
