package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/clientcli"
)

var (
	urlsStore          string
	urlsInternalPrefix string
	urlsExternalPrefix string
)

var urlsCmd = &cobra.Command{
	Use:   "urls <key> [key...]",
	Short: "Issue signed readonly URLs",
	Long: `Issue signed readonly URLs for one or more keys.

The URLs are valid until the server-configured TTL expires and can be
handed to anyone; the read path needs no credentials. When the server
issues internally-addressed URLs, --internal-prefix and
--external-prefix rewrite them for clients outside the network.

Examples:
  mediafold-cli urls albums/2026/a.jpg
  mediafold-cli urls --store cache albums/2026/a.jpg_thumbnail.jpg
  mediafold-cli urls --internal-prefix http://gateway-internal --external-prefix https://photos.example.com albums/a.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runURLs,
}

func init() {
	urlsCmd.Flags().StringVar(&urlsStore, "store", "", "backing store: media, cache (default: media)")
	urlsCmd.Flags().StringVar(&urlsInternalPrefix, "internal-prefix", "", "internal URL prefix to rewrite")
	urlsCmd.Flags().StringVar(&urlsExternalPrefix, "external-prefix", "", "external URL prefix to substitute")
}

func runURLs(_ *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	urls, err := client.URLs(context.Background(), clientcli.URLOptions{
		StoreName: urlsStore,
		Keys:      args,
	})
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if urlsInternalPrefix != "" || urlsExternalPrefix != "" {
		translator := mediafold.NewAddressTranslator(urlsInternalPrefix, urlsExternalPrefix)
		urls.BaseURL = translator.Translate(urls.BaseURL)
	}

	formatter := getFormatter()
	return formatter.FormatURLs(os.Stdout, urls)
}
