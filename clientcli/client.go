package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mediafold/mediafold"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultStoreName is the backing store used when none is specified.
	DefaultStoreName = "media"

	apiPrefix = "/api/v1"
)

// Client performs operations against a mediafold gateway.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Username: cfg.Username,
			Password: cfg.Password,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// List lists the contents of a directory in the primary store.
func (c *Client) List(ctx context.Context, opts ListOptions) (mediafold.DirectoryListing, error) {
	query := url.Values{}
	if opts.Dir != "" {
		query.Set("dir", opts.Dir)
	}
	if opts.Recursive {
		query.Set("recursive", "true")
	}

	var listing mediafold.DirectoryListing
	if err := c.doJSON(ctx, http.MethodGet, "/files?"+query.Encode(), nil, &listing); err != nil {
		return mediafold.DirectoryListing{}, err
	}
	return listing, nil
}

// Upload uploads file(s) to the server under the target directory.
// For recursive uploads, walks the directory and preserves relative paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.TargetDir)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files, one request per
// file so a large tree never has to fit in memory at once.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.TargetDir)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath
	targetPrefix := strings.Trim(opts.TargetDir, "/")

	walkErr := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(baseDir, p)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: p,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		// The server places uploads at targetDir/basename, so the
		// relative directory becomes part of the target.
		relPath = filepath.ToSlash(relPath)
		targetDir := path.Join(targetPrefix, path.Dir(relPath))
		if targetDir == "." {
			targetDir = ""
		}

		result, uploadErr := c.uploadSingle(ctx, p, targetDir)
		if uploadErr != nil {
			result = UploadResult{
				LocalPath: p,
				Err:       uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle uploads one file to the server.
func (c *Client) uploadSingle(ctx context.Context, localPath, targetDir string) (UploadResult, error) {
	data, err := os.ReadFile(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}

	req := uploadRequest{
		TargetDir: targetDir,
		Files: []mediafold.UploadEntry{
			{Filename: filepath.Base(localPath), Data: data},
		},
	}

	var entries []mediafold.FileEntry
	if err := c.doJSON(ctx, http.MethodPost, "/files", req, &entries); err != nil {
		return UploadResult{}, err
	}
	if len(entries) == 0 {
		return UploadResult{}, errors.New("empty upload response")
	}

	entry := entries[0]
	return UploadResult{
		LocalPath:    localPath,
		FileKey:      entry.FileKey,
		EntityID:     entry.EntityID.String(),
		MimeType:     entry.MimeType,
		ThumbnailKey: entry.ThumbnailKey,
	}, nil
}

// Action submits a batched copy, move, or delete. The request is validated
// locally before any network traffic. When some keys fail the per-key
// results are returned together with a partial failure error.
func (c *Client) Action(ctx context.Context, req mediafold.FileActionRequest) ([]mediafold.FileActionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp actionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/actions", req, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.Results {
		if !r.Success {
			return resp.Results, fmt.Errorf("action %s: %w", req.Operation, mediafold.ErrPartialFailure)
		}
	}
	return resp.Results, nil
}

// URLs requests capability URLs for the given keys.
func (c *Client) URLs(ctx context.Context, opts URLOptions) (mediafold.ReadonlyURLs, error) {
	if len(opts.Keys) == 0 {
		return mediafold.ReadonlyURLs{}, ErrNoKeys
	}

	storeName := opts.StoreName
	if storeName == "" {
		storeName = DefaultStoreName
	}

	var urls mediafold.ReadonlyURLs
	err := c.doJSON(ctx, http.MethodPost, "/urls", urlsRequest{Store: storeName, Keys: opts.Keys}, &urls)
	if err != nil {
		return mediafold.ReadonlyURLs{}, err
	}
	return urls, nil
}

// FilesInfo returns registry state for the given keys.
func (c *Client) FilesInfo(ctx context.Context, keys []string) ([]mediafold.FileEntry, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	var entries []mediafold.FileEntry
	if err := c.doJSON(ctx, http.MethodPost, "/files/info", keysRequest{Keys: keys}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Registry pages through the server's registry of tracked files. Unlike
// List this reports what the registry knows, not what the store holds.
func (c *Client) Registry(ctx context.Context, opts RegistryOptions) (RegistryPage, error) {
	query := url.Values{}
	if opts.Dir != "" {
		query.Set("dir", opts.Dir)
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var page RegistryPage
	if err := c.doJSON(ctx, http.MethodGet, "/registry?"+query.Encode(), nil, &page); err != nil {
		return RegistryPage{}, err
	}
	return page, nil
}

// Populate asks the server to reconcile the registry with a directory tree.
// Returns the number of files now tracked.
func (c *Client) Populate(ctx context.Context, dir string) (int, error) {
	var resp countResponse
	if err := c.doJSON(ctx, http.MethodPost, "/populate", dirRequest{Dir: dir}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Sweep asks the server to remove orphaned thumbnails.
// Returns the number of thumbnails removed.
func (c *Client) Sweep(ctx context.Context) (int, error) {
	var resp countResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sweep", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Download fetches a file through a freshly issued capability URL.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser
// and must be closed by the caller. Otherwise, the content is written to
// the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Key == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	urls, err := c.URLs(ctx, URLOptions{StoreName: opts.StoreName, Keys: []string{opts.Key}})
	if err != nil {
		return nil, nil, err
	}

	readURL := urls.URLFor(opts.Key)
	if readURL == "" {
		return nil, nil, fmt.Errorf("download %s: no capability issued", opts.Key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusForbidden:
			return nil, nil, fmt.Errorf("download %s: %w", opts.Key, mediafold.ErrInvalidCapability)
		case http.StatusGone:
			return nil, nil, fmt.Errorf("download %s: %w", opts.Key, mediafold.ErrExpiredCapability)
		}
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Key:         opts.Key,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = path.Base(opts.Key)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// HasUploadErrors returns true if any upload operation failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// doJSON performs an authenticated API request with a JSON body and
// decodes the JSON response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, apiPath string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+apiPrefix+apiPath, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseServerError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseServerError extracts an error from a server response.
func parseServerError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	// This typically means invalid or missing credentials.
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrBadRequest is returned when the server rejects the request shape (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
)
