// Package webdav provides a mediafold.Store backed by a WebDAV-style
// remote store behind an autoindex-enabled reverse proxy. Listings are
// read from the proxy's autoindex pages; mutations use the conventional
// remote-authoring methods (PUT, DELETE, MKCOL, COPY, MOVE).
package webdav

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
)

// defaultListDepth bounds recursive listings when no depth is configured.
const defaultListDepth = 5

// Config holds connection settings for one backing store location.
type Config struct {
	// BaseURL is the proxy origin, e.g. "https://webdav-internal:8443".
	BaseURL string
	// Path is the authenticated authoring location under BaseURL,
	// e.g. "dav/media". No leading or trailing slash.
	Path string
	// Username and Password authenticate write operations at the proxy.
	Username string
	Password string
	// InsecureSkipVerify disables TLS verification, for self-signed
	// development proxies only.
	InsecureSkipVerify bool
	// ListDepth bounds how many directory levels a recursive listing
	// descends. Zero means the default of 5. Truncation is logged.
	ListDepth int
}

// Client implements mediafold.Store over a WebDAV-style remote store.
// All methods are safe for concurrent use.
type Client struct {
	baseURL   string
	davPath   string
	username  string
	password  string
	listDepth int
	httpc     *http.Client
}

// New creates a Client for the given store location.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	davPath := strings.Trim(cfg.Path, "/")

	if base == "" {
		return nil, fmt.Errorf("new webdav client: %w: base url cannot be empty", mediafold.ErrInvalidInput)
	}
	if davPath == "" {
		return nil, fmt.Errorf("new webdav client: %w: path cannot be empty", mediafold.ErrInvalidInput)
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // Development proxies only, opt-in via config.
		transport = t
	}

	listDepth := cfg.ListDepth
	if listDepth <= 0 {
		listDepth = defaultListDepth
	}

	return &Client{
		baseURL:   base,
		davPath:   davPath,
		username:  cfg.Username,
		password:  cfg.Password,
		listDepth: listDepth,
		httpc:     &http.Client{Transport: transport},
	}, nil
}

// objectURL returns the authoring URL for a key. Key segments are escaped
// individually so separators survive.
func (c *Client) objectURL(key string) string {
	return c.baseURL + "/" + c.davPath + "/" + escapeKey(key)
}

func (c *Client) dirURL(dirKey string) string {
	if dirKey == "" {
		return c.baseURL + "/" + c.davPath + "/"
	}
	return c.baseURL + "/" + c.davPath + "/" + escapeKey(dirKey) + "/"
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("webdav request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	return req, nil
}

// do performs the request and records per-operation latency and outcome
// for the backing store.
func (c *Client) do(operation string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.RecordStoreOperation(c.davPath, operation, time.Since(start), err)
	return resp, err
}

// List returns the children of dirKey parsed from the proxy's autoindex
// page. Recursion is bounded by the configured list depth; directories
// past the bound are dropped with a warning.
func (c *Client) List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error) {
	if !mediafold.IsValidDirKey(dirKey) {
		return mediafold.DirectoryListing{}, fmt.Errorf("list %q: %w", dirKey, mediafold.ErrInvalidInput)
	}

	entries, err := c.list(ctx, dirKey, recursive, 0)
	if err != nil {
		return mediafold.DirectoryListing{}, err
	}
	return mediafold.DirectoryListing{Entries: entries}, nil
}

func (c *Client) list(ctx context.Context, dirKey string, recursive bool, depth int) ([]mediafold.Entry, error) {
	if depth >= c.listDepth {
		slog.Warn("listing truncated at depth bound", "dir", dirKey, "depth", depth, "store", c.davPath)
		return nil, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.dirURL(dirKey), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do("list", req)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", dirKey, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError("list", dirKey, resp.StatusCode); err != nil {
		return nil, err
	}

	entries, err := parseAutoindex(resp.Body, dirKey)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", dirKey, err)
	}

	if !recursive {
		return entries, nil
	}

	all := make([]mediafold.Entry, 0, len(entries))
	all = append(all, entries...)
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		children, err := c.list(ctx, e.Key, true, depth+1)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
	}
	return all, nil
}

// Get opens an object for reading.
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !mediafold.IsValidKey(key) {
		return nil, "", fmt.Errorf("get %q: %w", key, mediafold.ErrInvalidInput)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.objectURL(key), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do("get", req)
	if err != nil {
		return nil, "", fmt.Errorf("get %q: %w", key, err)
	}

	if err := statusError("get", key, resp.StatusCode); err != nil {
		_ = resp.Body.Close()
		return nil, "", err
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Put writes an object, creating the parent directory chain first.
func (c *Client) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	if !mediafold.IsValidKey(key) {
		return fmt.Errorf("put %q: %w", key, mediafold.ErrInvalidInput)
	}

	if dir := path.Dir(key); dir != "." {
		if err := c.ensureDir(ctx, dir); err != nil {
			return fmt.Errorf("put %q: %w", key, err)
		}
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.objectURL(key), content)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.do("put", req)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError("put", key, resp.StatusCode); err != nil {
		return err
	}
	return nil
}

// ensureDir issues MKCOL for each path segment in turn. 405 and 409 mean
// the collection already exists, which is fine.
func (c *Client) ensureDir(ctx context.Context, dirKey string) error {
	var current string
	for _, part := range strings.Split(dirKey, "/") {
		if part == "" {
			continue
		}
		if current == "" {
			current = part
		} else {
			current = current + "/" + part
		}

		req, err := c.newRequest(ctx, "MKCOL", c.dirURL(current), nil)
		if err != nil {
			return err
		}

		resp, err := c.do("mkcol", req)
		if err != nil {
			return fmt.Errorf("mkcol %q: %w", current, err)
		}
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated, http.StatusMethodNotAllowed, http.StatusConflict:
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("mkcol %q: status %d: %w", current, resp.StatusCode, mediafold.ErrUnauthorized)
		default:
			return fmt.Errorf("mkcol %q: status %d: %w", current, resp.StatusCode, mediafold.ErrConflict)
		}
	}
	return nil
}

// Copy copies or moves each mapping independently using the COPY/MOVE
// methods with an absolute Destination header. Existing destinations are
// overwritten; a collision between two sources therefore resolves to
// last-writer-wins at the store.
func (c *Client) Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error) {
	method := "COPY"
	if deleteSource {
		method = "MOVE"
	}

	results := make([]mediafold.FileActionResult, 0, len(mappings))
	for _, m := range mappings {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("copy batch: %w", err)
		}
		results = append(results, c.copyOne(ctx, method, m))
	}
	return results, nil
}

func (c *Client) copyOne(ctx context.Context, method string, m mediafold.FileKeyMapping) mediafold.FileActionResult {
	result := mediafold.FileActionResult{Key: m.SourceKey}

	if !mediafold.IsValidKey(m.SourceKey) || !mediafold.IsValidKey(m.DestinationKey) {
		result.Error = "invalid key"
		return result
	}

	if dir := path.Dir(m.DestinationKey); dir != "." {
		if err := c.ensureDir(ctx, dir); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	req, err := c.newRequest(ctx, method, c.objectURL(m.SourceKey), nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Destination", c.objectURL(m.DestinationKey))
	req.Header.Set("Overwrite", "T")

	resp, err := c.do(strings.ToLower(method), req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("%s %s: status %d", method, m.SourceKey, resp.StatusCode)
		return result
	}

	result.Success = true
	return result
}

// Delete removes each key independently.
func (c *Client) Delete(ctx context.Context, keys []string) ([]mediafold.FileActionResult, error) {
	results := make([]mediafold.FileActionResult, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("delete batch: %w", err)
		}
		results = append(results, c.deleteOne(ctx, key))
	}
	return results, nil
}

func (c *Client) deleteOne(ctx context.Context, key string) mediafold.FileActionResult {
	result := mediafold.FileActionResult{Key: key}

	if !mediafold.IsValidKey(key) {
		result.Error = "invalid key"
		return result
	}

	req, err := c.newRequest(ctx, http.MethodDelete, c.objectURL(key), nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := c.do("delete", req)
	if err != nil {
		result.Error = err.Error()
		slog.Error("failed to delete object", "key", key, "err", err)
		return result
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		result.Error = "not found"
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		result.Error = fmt.Sprintf("DELETE %s: status %d", key, resp.StatusCode)
	default:
		result.Success = true
	}
	return result
}

func statusError(op, key string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %q: %w", op, key, mediafold.ErrNotFound)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s %q: status %d: %w", op, key, status, mediafold.ErrUnauthorized)
	default:
		return fmt.Errorf("%s %q: status %d: %w", op, key, status, mediafold.ErrConflict)
	}
}
