package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/depot"
)

// Service is the artifact store as seen by the HTTP layer. *depot.Service
// implements it.
type Service interface {
	ListProjects(ctx context.Context) ([]string, error)
	ListVersions(ctx context.Context, project depot.ProjectReader) ([]string, error)
	ProjectReader(ctx context.Context, project string, cred depot.Credential) (depot.ProjectReader, error)
	ProjectWriter(ctx context.Context, project string, cred depot.Credential) (depot.ProjectWriter, error)
	FileForVersion(ctx context.Context, project depot.ProjectReader, version string) (string, error)
	Publish(ctx context.Context, project depot.ProjectWriter, version, fileName, contentType string, content io.Reader) (depot.Artifact, error)
	Open(ctx context.Context, project depot.ProjectReader, version, fileName string) (depot.Artifact, io.ReadSeekCloser, error)
	Info(ctx context.Context, project depot.ProjectReader, version string) (depot.Artifact, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// MaxUploadSize limits the request body of an upload in bytes. Zero means
	// no limit.
	MaxUploadSize int64
	CORS          CORSConfig
	// Logger receives one line per request. Nil disables request logging.
	Logger *slog.Logger
}

// Handler serves the artifact store over HTTP.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with every route of the store.
//
//	GET  /projects
//	GET  /project/{project}/versions
//	GET  /project/{project}/version/{version}/download
//	GET  /project/{project}/version/{version}/file/{file}
//	GET  /project/{project}/version/{version}/info
//	POST /project/{project}/upload?version={version}
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.config.Logger != nil {
		r.Use(RequestLogger(h.config.Logger))
	}
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/projects", h.handleProjects)

	r.Route("/project/{project}", func(r chi.Router) {
		r.Get("/versions", h.handleVersions)
		r.Get("/version/{version}/download", h.handleDownload)
		r.Get("/version/{version}/file/{file}", h.handleFile)
		r.Get("/version/{version}/info", h.handleInfo)
		r.Post("/upload", h.handleUpload)
	})

	return r
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, nonNil(projects))
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), reader)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, nonNil(versions))
}

// handleDownload redirects to the file URL of the version, so clients learn
// the artifact name from the Location header.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	project := urlParam(r, "project")
	version := urlParam(r, "version")

	file, err := h.service.FileForVersion(r.Context(), reader, version)
	if err != nil {
		HandleError(w, err)
		return
	}

	http.Redirect(w, r, FileURL(project, version, file), http.StatusSeeOther)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	version := urlParam(r, "version")
	file := urlParam(r, "file")

	artifact, content, err := h.service.Open(r.Context(), reader, version, file)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if artifact.SHA256 != "" {
		w.Header().Set("ETag", `"`+artifact.SHA256+`"`)
	}
	if artifact.ContentType != "" {
		w.Header().Set("Content-Type", artifact.ContentType)
	}
	if disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file}); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}

	http.ServeContent(w, r, file, artifact.UpdatedAt, content)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.reader(w, r)
	if !ok {
		return
	}

	artifact, err := h.service.Info(r.Context(), reader, urlParam(r, "version"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, artifact)
}

// handleUpload publishes the single file part of a multipart body as a new
// version. Parts without a file name are ignored; a second file part fails
// the whole upload.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	cred, err := depot.ParseBearer(r.Header.Values("Authorization"))
	if err != nil {
		HandleError(w, err)
		return
	}

	writer, err := h.service.ProjectWriter(r.Context(), urlParam(r, "project"), cred)
	if err != nil {
		HandleError(w, err)
		return
	}

	query := r.URL.Query()
	if !query.Has("version") {
		HandleError(w, depot.ErrMissingVersion)
		return
	}
	version := query.Get("version")

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		HandleError(w, errors.Join(depot.ErrNoFileUploaded, err))
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		HandleError(w, err)
		return
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	artifact, err := h.service.Publish(r.Context(), writer, version, part.FileName(), contentType, &singleFilePart{mr: mr, part: part})
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("uploaded version", "project", artifact.Project, "version", artifact.Version, "file", artifact.FileName, "size", artifact.SizeBytes)

	_ = WriteJSON(w, http.StatusCreated, artifact)
}

// reader authorizes the request for reading the {project} in the route. On
// failure the error response is already written.
func (h *Handler) reader(w http.ResponseWriter, r *http.Request) (depot.ProjectReader, bool) {
	cred, err := depot.ParseBearer(r.Header.Values("Authorization"))
	if err != nil {
		HandleError(w, err)
		return depot.ProjectReader{}, false
	}

	reader, err := h.service.ProjectReader(r.Context(), urlParam(r, "project"), cred)
	if err != nil {
		HandleError(w, err)
		return depot.ProjectReader{}, false
	}

	return reader, true
}

// FileURL is the path at which a version's file is served.
func FileURL(project, version, file string) string {
	return "/project/" + url.PathEscape(project) +
		"/version/" + url.PathEscape(version) +
		"/file/" + url.PathEscape(file)
}

// urlParam returns a decoded route parameter. chi matches on the raw path
// when the request carries escaped slashes, leaving parameters escaped.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, depot.ErrNoFileUploaded
		}
		if err != nil {
			return nil, errors.Join(depot.ErrNoFileUploaded, err)
		}
		if part.FileName() != "" {
			return part, nil
		}
	}
}

// singleFilePart reads one multipart file part. When the part is exhausted it
// scans the rest of the body and fails with ErrMultipleFiles if another file
// part follows, so the staged upload is discarded instead of committed.
type singleFilePart struct {
	mr   *multipart.Reader
	part *multipart.Part
	done bool
}

func (s *singleFilePart) Read(p []byte) (int, error) {
	if s.done {
		return 0, io.EOF
	}

	n, err := s.part.Read(p)
	if !errors.Is(err, io.EOF) {
		return n, err
	}

	s.done = true
	for {
		next, nextErr := s.mr.NextPart()
		if errors.Is(nextErr, io.EOF) {
			return n, io.EOF
		}
		if nextErr != nil {
			return n, nextErr
		}
		if next.FileName() != "" {
			return n, depot.ErrMultipleFiles
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
