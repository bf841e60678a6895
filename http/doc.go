// Package http serves the depot artifact store over HTTP.
//
// Every route except the project listing is scoped to one project and
// authorized with a bearer token checked against the project's allow-list:
// readers.txt for the GET routes, writers.txt for uploads.
//
// # Routes
//
//	GET  /projects                                           list project names
//	GET  /project/{project}/versions                         list version names
//	GET  /project/{project}/version/{version}/download       303 to the file URL
//	GET  /project/{project}/version/{version}/file/{file}    artifact bytes
//	GET  /project/{project}/version/{version}/info           artifact metadata (JSON)
//	POST /project/{project}/upload?version={version}         multipart upload, one file part
//
// # Errors
//
// Errors are JSON objects with an error code and a message:
//
//	{"error": "version_exists", "message": "..."}
//
//   - 400 invalid_project, invalid_version, invalid_file, malformed_request
//   - 401 unauthenticated (no Authorization header)
//   - 403 unauthorized (token not on the allow-list)
//   - 404 not_found
//   - 409 version_exists
//   - 413 too_large
//   - 500 corrupted_version, internal_error
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    MaxUploadSize: 1 << 30,
//	    Logger:        slog.Default(),
//	}, service)
//	srv := &nethttp.Server{Addr: ":5708", Handler: handler.Router()}
package http
