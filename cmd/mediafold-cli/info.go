package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/clientcli"
)

var (
	infoDir    string
	infoCursor string
	infoLimit  int
)

var infoCmd = &cobra.Command{
	Use:   "info [key...]",
	Short: "Show registry state for files",
	Long: `Show the registry record for one or more keys: entity identity,
detected media type, and thumbnail state.

Files the registry has not seen yet are registered on the fly, with
their thumbnails rendered into the cache.

Without keys the tracked files are listed from the registry instead,
paged by --limit and --cursor and narrowed by --dir.

Examples:
  mediafold-cli info albums/2026/a.jpg
  mediafold-cli info --json albums/2026/a.jpg albums/2026/b.jpg
  mediafold-cli info --dir albums --limit 100`,
	Args: cobra.ArbitraryArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoDir, "dir", "", "list tracked files under this prefix")
	infoCmd.Flags().StringVar(&infoCursor, "cursor", "", "resume a listing from this cursor")
	infoCmd.Flags().IntVar(&infoLimit, "limit", 0, "page size for listings")
}

func runInfo(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()

	if len(args) == 0 {
		page, err := client.Registry(context.Background(), clientcli.RegistryOptions{
			Dir:    infoDir,
			Cursor: infoCursor,
			Limit:  infoLimit,
		})
		if err != nil {
			_ = formatter.FormatError(os.Stderr, err)
			return err
		}
		return formatter.FormatRegistry(os.Stdout, page)
	}

	entries, err := client.FilesInfo(context.Background(), args)
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	return formatter.FormatFilesInfo(os.Stdout, entries)
}
