package clientcli

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/mediafold/mediafold"
)

// GalleryClient adapts Client to the interfaces the gallery package
// consumes, so a gallery view can run against a remote gateway the same
// way it runs against an in-process vault. Per-key failures inside an
// accepted batch come back through the results rather than the error,
// matching the vault's behavior.
type GalleryClient struct {
	client *Client
}

// NewGalleryClient wraps an API client for gallery coordination.
func NewGalleryClient(client *Client) (*GalleryClient, error) {
	if client == nil {
		return nil, fmt.Errorf("new gallery client: %w", ErrConfigRequired)
	}
	return &GalleryClient{client: client}, nil
}

// List returns the contents of a directory in the primary store.
func (g *GalleryClient) List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error) {
	return g.client.List(ctx, ListOptions{Dir: dirKey, Recursive: recursive})
}

// Copy submits the mappings as one copy or move action. Every mapping
// a gallery produces lands under a single target directory, which is
// recovered from the first destination for the wire request.
func (g *GalleryClient) Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("copy: %w", mediafold.ErrEmptyRequest)
	}

	op := mediafold.OpCopy
	if deleteSource {
		op = mediafold.OpMove
	}

	sources := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		sources = append(sources, mapping.SourceKey)
	}

	targetDir := path.Dir(mappings[0].DestinationKey)
	if targetDir == "." {
		targetDir = ""
	}

	results, err := g.client.Action(ctx, mediafold.FileActionRequest{
		Operation: op,
		Sources:   sources,
		TargetDir: targetDir,
	})
	if err != nil && !errors.Is(err, mediafold.ErrPartialFailure) {
		return nil, err
	}
	return results, nil
}

// Delete submits the keys as one delete action and reshapes the results
// into the per-key report the coordinator expects.
func (g *GalleryClient) Delete(ctx context.Context, keys []string) (mediafold.DeleteReport, error) {
	results, err := g.client.Action(ctx, mediafold.FileActionRequest{
		Operation: mediafold.OpDelete,
		Sources:   keys,
	})
	if err != nil && !errors.Is(err, mediafold.ErrPartialFailure) {
		return mediafold.DeleteReport{}, err
	}

	var report mediafold.DeleteReport
	for _, result := range results {
		if result.Success {
			report.Succeeded = append(report.Succeeded, result.Key)
			continue
		}
		report.Failed = append(report.Failed, result)
	}
	return report, nil
}

// ReadonlyURLs requests capability URLs for the given keys.
func (g *GalleryClient) ReadonlyURLs(ctx context.Context, storeName string, keys []string) (mediafold.ReadonlyURLs, error) {
	return g.client.URLs(ctx, URLOptions{StoreName: storeName, Keys: keys})
}
