package main

import (
	"io"
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <project> <version> [local-path]",
	Short: "Download the artifact of a version",
	Long: `Download the artifact of a version. Needs a reader token.

Without a local path the file is saved under its name on the server in the
current directory. A directory as local path keeps the server's file name.

Examples:
  depot-cli download acme 1.4.0
  depot-cli download acme 1.4.0 ./downloads/
  depot-cli download -o ./acme.tgz acme 1.4.0
  depot-cli download --stdout acme 1.4.0 | tar xz`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 2 {
		localPath = args[2]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient(args[0], clientcli.WithTimeout(0))
	if err != nil {
		return err
	}

	opts := clientcli.DownloadOptions{
		Project:   args[0],
		Version:   args[1],
		LocalPath: localPath,
	}

	result, reader, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if copyErr != nil {
			return copyErr
		}
		result.Size = written
		// Metadata goes to stderr so it does not mix with the content
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
