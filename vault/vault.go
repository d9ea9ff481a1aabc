// Package vault is the two-tier storage gateway. It fronts a primary
// media store and a derived thumbnail cache, keeps the file registry in
// step with both, and issues signed readonly URLs for the proxy to honor.
//
// The primary store is authoritative. Every mutation lands there first;
// the cache is mirrored best-effort and a cache failure never fails the
// operation that caused it.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/thumbnail"
)

const (
	// StoreData names the primary media store in read paths.
	StoreData = "media"
	// StoreCache names the derived thumbnail store in read paths.
	StoreCache = "cache"
	// ReadPrefix is the path prefix the readonly proxy serves under.
	ReadPrefix = "/read"

	// DefaultURLTTL is how long issued readonly URLs stay valid.
	DefaultURLTTL = 12 * time.Hour
)

// Vault coordinates the primary store, the thumbnail cache, and the
// file registry behind one gateway surface.
type Vault struct {
	data     mediafold.Store
	cache    mediafold.Store
	registry mediafold.FileRegistry
	thumbs   *thumbnail.Generator
	signer   *mediafold.Signer
	baseURL  string
	urlTTL   time.Duration
	logger   *slog.Logger
}

// Config holds the collaborators and settings for a Vault.
type Config struct {
	Data          mediafold.Store
	Cache         mediafold.Store
	Registry      mediafold.FileRegistry
	Thumbnails    *thumbnail.Generator
	Signer        *mediafold.Signer
	PublicBaseURL string
	URLTTL        time.Duration
	Logger        *slog.Logger
}

func New(cfg Config) (*Vault, error) {
	if cfg.Data == nil {
		return nil, fmt.Errorf("new vault: data store is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("new vault: cache store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("new vault: registry is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("new vault: signer is required")
	}

	thumbs := cfg.Thumbnails
	if thumbs == nil {
		thumbs = thumbnail.NewGenerator(0)
	}

	urlTTL := cfg.URLTTL
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Vault{
		data:     cfg.Data,
		cache:    cfg.Cache,
		registry: cfg.Registry,
		thumbs:   thumbs,
		signer:   cfg.Signer,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		urlTTL:   urlTTL,
		logger:   logger,
	}, nil
}

// Store resolves a read-path store name to the backing store.
func (v *Vault) Store(name string) (mediafold.Store, error) {
	switch name {
	case StoreData:
		return v.data, nil
	case StoreCache:
		return v.cache, nil
	default:
		return nil, fmt.Errorf("store %q: %w", name, mediafold.ErrNotFound)
	}
}

// List returns the primary-store listing under dirKey. Hidden entries
// (dotfiles and dot directories) are filtered out.
func (v *Vault) List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error) {
	if err := ctx.Err(); err != nil {
		return mediafold.DirectoryListing{}, fmt.Errorf("list %s: %w", dirKey, err)
	}

	listing, err := v.data.List(ctx, dirKey, recursive)
	if err != nil {
		return mediafold.DirectoryListing{}, fmt.Errorf("list %s: %w", dirKey, err)
	}

	entries := make([]mediafold.Entry, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		if mediafold.IsHiddenKey(entry.Key) {
			continue
		}
		entries = append(entries, entry)
	}

	return mediafold.DirectoryListing{Entries: entries}, nil
}

// Entries pages through the registry's live file states under a key
// prefix. Unlike List this reads only the registry, so it reports what
// is tracked rather than what the store currently holds.
func (v *Vault) Entries(ctx context.Context, q mediafold.ListQuery) (mediafold.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return mediafold.ListResult{}, fmt.Errorf("entries: %w", err)
	}

	if !mediafold.IsValidDirKey(q.KeyPrefix) {
		return mediafold.ListResult{}, fmt.Errorf("entries: invalid prefix %q: %w", q.KeyPrefix, mediafold.ErrInvalidInput)
	}

	result, err := v.registry.List(ctx, q)
	if err != nil {
		return mediafold.ListResult{}, fmt.Errorf("entries: %w", err)
	}
	return result, nil
}

// ReadonlyURLs signs time-limited read URLs for the given keys in the
// named store. The signature covers the proxy path, so the URLs are
// only good for GET and HEAD against the readonly endpoint.
func (v *Vault) ReadonlyURLs(ctx context.Context, storeName string, keys []string) (mediafold.ReadonlyURLs, error) {
	if err := ctx.Err(); err != nil {
		return mediafold.ReadonlyURLs{}, fmt.Errorf("readonly urls: %w", err)
	}

	if storeName != StoreData && storeName != StoreCache {
		return mediafold.ReadonlyURLs{}, fmt.Errorf("readonly urls: unknown store %q: %w", storeName, mediafold.ErrInvalidInput)
	}

	urls := mediafold.ReadonlyURLs{
		BaseURL: v.baseURL,
		Paths:   make(map[string]string, len(keys)),
	}

	for _, key := range keys {
		if !mediafold.IsValidKey(key) {
			return mediafold.ReadonlyURLs{}, fmt.Errorf("readonly urls: invalid key %q: %w", key, mediafold.ErrInvalidInput)
		}

		resourcePath := ReadPrefix + "/" + storeName + "/" + key
		capability, err := v.signer.Sign(resourcePath, v.urlTTL)
		if err != nil {
			return mediafold.ReadonlyURLs{}, fmt.Errorf("readonly urls: sign %s: %w", key, err)
		}

		// relative to the public base URL, signature covers the absolute path
		urls.Paths[key] = strings.TrimPrefix(escapePath(resourcePath), "/") + "?" + capability.Query().Encode()
	}

	return urls, nil
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
