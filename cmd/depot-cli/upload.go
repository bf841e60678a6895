package main

import (
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadName        string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <project> <version> <local-path>",
	Short: "Publish a file as a new version",
	Long: `Publish a local file as the single artifact of a new version.

Versions are write-once: uploading an existing version fails. Needs a
writer token.

Examples:
  depot-cli upload acme 1.4.0 ./dist/acme.tar.gz
  depot-cli upload acme 1.4.0 ./build/out --name acme-linux-amd64
  depot-cli upload --content-type application/json acme 1.4.0 ./manifest`,
	Args: cobra.ExactArgs(3),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "artifact file name (default: base name of local path)")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient(args[0], clientcli.WithTimeout(0))
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		Project:     args[0],
		Version:     args[1],
		LocalPath:   args[2],
		FileName:    uploadName,
		ContentType: uploadContentType,
	}

	result, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
