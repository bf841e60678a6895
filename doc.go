// Package depot provides a filesystem-backed artifact store: uploaded build
// and release files organized under named projects and immutable versions,
// with per-project bearer-token allow-lists.
//
// The store validates names, authorizes callers against the allow-list files,
// enforces write-once versions and maps (project, version, file) to safe paths
// under a root directory. It keeps no in-memory state; everything is read from
// the filesystem on each call.
//
// # Layout
//
//	<root>/<project>/readers.txt          one token per line
//	<root>/<project>/writers.txt          one token per line
//	<root>/<project>/versions/<version>/  exactly one artifact file
//
// Projects are provisioned outside the store. Versions are created once and
// never modified or deleted.
//
// # Key Components
//
//   - Store: name validation, authorization, version resolution, upload placement
//   - ProjectReader / ProjectWriter: capabilities returned by a successful authorization
//   - Service: Store plus byte storage (ArtifactStorage) and an optional Catalog
//   - Catalog: interface for artifact metadata persistence (SQLite, PostgreSQL)
//
// # Example Usage
//
//	store := depot.New("/srv/depot")
//
//	cred, err := depot.ParseBearer(r.Header.Values("Authorization"))
//	if err != nil {
//	    return err
//	}
//
//	reader, err := store.ProjectReader(ctx, "acme", cred)
//	if err != nil {
//	    return err
//	}
//
//	path, err := store.PathForVersion(ctx, reader, "1.0.0")
//
// See the http package for the REST API and the database package for catalog
// backends.
package depot
