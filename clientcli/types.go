package clientcli

import (
	"github.com/mediafold/mediafold"
)

// ListOptions configures a list operation.
type ListOptions struct {
	Dir       string
	Recursive bool
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	TargetDir string
	Recursive bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath    string `json:"local_path"`
	FileKey      string `json:"file_key"`
	EntityID     string `json:"entity_id,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
	Err          error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	StoreName string // defaults to the primary media store
	LocalPath string // empty = derive from key, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// URLOptions configures a capability URL request.
type URLOptions struct {
	StoreName string // defaults to the primary media store
	Keys      []string
}

// RegistryOptions configures a registry listing.
type RegistryOptions struct {
	Dir    string
	Cursor string
	Limit  int
}

// RegistryPage is one page of tracked file states from the registry.
type RegistryPage struct {
	Items      []mediafold.FileEntry `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// uploadRequest mirrors the JSON request body for the upload endpoint.
type uploadRequest struct {
	TargetDir string                  `json:"target_dir"`
	Files     []mediafold.UploadEntry `json:"files"`
}

// urlsRequest mirrors the JSON request body for the urls endpoint.
type urlsRequest struct {
	Store string   `json:"store"`
	Keys  []string `json:"keys"`
}

// keysRequest mirrors the JSON request body for the files info endpoint.
type keysRequest struct {
	Keys []string `json:"keys"`
}

// dirRequest mirrors the JSON request body for the populate endpoint.
type dirRequest struct {
	Dir string `json:"dir"`
}

// actionResponse mirrors the JSON response from the actions endpoint.
type actionResponse struct {
	Results []mediafold.FileActionResult `json:"results"`
}

// countResponse mirrors the JSON response from count-returning endpoints.
type countResponse struct {
	Count int `json:"count"`
}
