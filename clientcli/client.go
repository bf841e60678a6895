package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout. Uploads and downloads of
// large artifacts may need WithTimeout(0).
const DefaultTimeout = 30 * time.Second

// Client performs operations against a depot server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
			Token:         cfg.Token,
			ProjectTokens: cfg.ProjectTokens,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Projects lists every project on the server. No token is needed.
func (c *Client) Projects(ctx context.Context) ([]string, error) {
	var projects []string
	if err := c.getJSON(ctx, "", "/projects", &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Versions lists the versions of a project.
func (c *Client) Versions(ctx context.Context, project string) ([]string, error) {
	if project == "" {
		return nil, fmt.Errorf("list versions: %w", ErrEmptyProject)
	}

	var versions []string
	if err := c.getJSON(ctx, project, projectPath(project)+"/versions", &versions); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// Info returns the metadata of a version's file.
func (c *Client) Info(ctx context.Context, project, version string) (*Artifact, error) {
	if err := requireVersion(project, version); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}

	var artifact Artifact
	if err := c.getJSON(ctx, project, versionPath(project, version)+"/info", &artifact); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	return &artifact, nil
}

// Upload publishes a local file as a new version. The file is streamed as
// a multipart body without being buffered in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if err := requireVersion(opts.Project, opts.Version); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fileName := opts.FileName
	if fileName == "" {
		fileName = filepath.Base(opts.LocalPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, partErr := createFilePart(mw, fileName, opts.ContentType)
		if partErr != nil {
			_ = pw.CloseWithError(partErr)
			return
		}
		if _, copyErr := io.Copy(part, file); copyErr != nil {
			_ = pw.CloseWithError(copyErr)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	endpoint := c.config.Endpoint + projectPath(opts.Project) + "/upload?" + url.Values{"version": {opts.Version}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, opts.Project)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("upload: %w", parseServerError(resp.StatusCode, body))
	}

	var artifact Artifact
	if err := json.Unmarshal(body, &artifact); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &UploadResult{LocalPath: opts.LocalPath, Artifact: artifact}, nil
}

// Download fetches the file of a version. The server answers with a redirect
// to the file URL, which names the file.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if err := requireVersion(opts.Project, opts.Version); err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+versionPath(opts.Project, opts.Version)+"/download", http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req, opts.Project)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("download: %w", parseServerError(resp.StatusCode, body))
	}

	fileName := path.Base(resp.Request.URL.Path)
	if fileName == "." || fileName == ".." || fileName == "/" {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("download: server redirected to %q", resp.Request.URL.Path)
	}

	result := &DownloadResult{
		Project:     opts.Project,
		Version:     opts.Version,
		FileName:    fileName,
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = fileName
	} else if info, statErr := os.Stat(localPath); statErr == nil && info.IsDir() {
		localPath = filepath.Join(localPath, fileName)
	}
	result.LocalPath = localPath

	// Create parent directories if needed
	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// do sends req with the bearer token configured for project, if any.
func (c *Client) do(req *http.Request, project string) (*http.Response, error) {
	if tok := c.config.TokenFor(project); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, project, p string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+p, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req, project)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart starts the "file" form part. Without a content type the
// part is sent as application/octet-stream, which the server ignores in
// favor of the file extension.
func createFilePart(mw *multipart.Writer, fileName, contentType string) (io.Writer, error) {
	if contentType == "" {
		return mw.CreateFormFile("file", fileName)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", contentType)
	return mw.CreatePart(h)
}

func requireVersion(project, version string) error {
	if project == "" {
		return ErrEmptyProject
	}
	if version == "" {
		return ErrEmptyVersion
	}
	return nil
}

func projectPath(project string) string {
	return "/project/" + url.PathEscape(project)
}

func versionPath(project, version string) string {
	return projectPath(project) + "/version/" + url.PathEscape(version)
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	// Code and Message are set when the body is the server's JSON error.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the project or version does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when no token was sent (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the token is not on the project's allow-list (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrVersionExists is returned when uploading to a version that already has a file (409).
	ErrVersionExists = &APIError{StatusCode: http.StatusConflict}

	// ErrBadRequest is returned for invalid names and malformed uploads (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
)
