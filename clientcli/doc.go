// Package clientcli provides a client library for depot artifact servers.
//
// It lists projects and versions, publishes a file as a new version, and
// downloads or describes an existing version. Requests carry a per-project
// bearer token. The package includes profile-based configuration for
// managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and publish a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:3000",
//		Token:    "writer-token",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		Project:   "acme",
//		Version:   "1.4.0",
//		LocalPath: "./dist/acme.tar.gz",
//	})
//
// # Profile Configuration
//
// Profiles in ~/.depot/config.yaml name a server and the token to use for
// each of its projects:
//
//	profiles:
//	  - name: ci
//	    endpoint: https://depot.example.com
//	    token: shared-reader
//	    projects:
//	      acme: acme-writer
//	    default: true
//
// Resolve picks a profile and applies DEPOT_* environment variables and
// explicit overrides on top:
//
//	cfg, err := clientcli.Resolve(clientcli.Sources{Profile: "ci"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, result)
package clientcli
