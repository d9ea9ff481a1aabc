package mediafold

import (
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

// Entry describes one object in a directory listing.
type Entry struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// DirectoryListing is the set of entries under a directory prefix.
// Ordering is stable enough for diffing but otherwise unspecified.
type DirectoryListing struct {
	Entries []Entry `json:"entries"`
}

// Keys returns the asset keys of all non-directory entries.
func (l DirectoryListing) Keys() []string {
	keys := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		if !e.IsDir {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// FileKeyMapping maps a source key to its destination key for copy/move.
type FileKeyMapping struct {
	SourceKey      string `json:"source_key"`
	DestinationKey string `json:"destination_key"`
}

// FileActionResult reports the outcome of one key in a batch operation.
type FileActionResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeleteReport is the per-key outcome of a batch delete. Partial failure
// is reported here, never collapsed into a single error for the batch.
type DeleteReport struct {
	Succeeded []string           `json:"succeeded"`
	Failed    []FileActionResult `json:"failed"`
}

// AllSucceeded reports whether every key in the batch was deleted.
func (r DeleteReport) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// UploadEntry is one file in an upload batch. Data is base64 on the wire.
type UploadEntry struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// ReadonlyURLs is the response to a capability issuance request. Paths are
// relative to BaseURL; callers must apply an AddressTranslator before use.
type ReadonlyURLs struct {
	BaseURL string            `json:"base_url"`
	Paths   map[string]string `json:"paths"`
}

// URLFor joins BaseURL with the relative path issued for key, or returns
// the empty string when no capability was issued for it.
func (u ReadonlyURLs) URLFor(key string) string {
	rel, ok := u.Paths[key]
	if !ok {
		return ""
	}
	return u.BaseURL + "/" + rel
}

// Operation identifies a user-selected file action.
type Operation string

const (
	OpCopy   Operation = "copy"
	OpMove   Operation = "move"
	OpDelete Operation = "delete"
)

func (o Operation) IsValid() bool {
	switch o {
	case OpCopy, OpMove, OpDelete:
		return true
	default:
		return false
	}
}

// ParseOperation parses a file action operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", fmt.Errorf("invalid operation: %s (valid operations: copy, move, delete)", s)
	}
	return op, nil
}

// FileActionRequest batches selected keys with a chosen operation.
// TargetDir is required for copy/move and must be absent for delete.
type FileActionRequest struct {
	Operation Operation `json:"operation"`
	Sources   []string  `json:"sources"`
	TargetDir string    `json:"target_dir,omitempty"`
}

// Validate checks the request shape without a roundtrip.
func (r FileActionRequest) Validate() error {
	if !r.Operation.IsValid() {
		return fmt.Errorf("validate action: %w: unknown operation %q", ErrInvalidInput, string(r.Operation))
	}
	if len(r.Sources) == 0 {
		return fmt.Errorf("validate action: %w", ErrEmptyRequest)
	}
	switch r.Operation {
	case OpCopy, OpMove:
		if !IsValidDirKey(r.TargetDir) || r.TargetDir == "" {
			return fmt.Errorf("validate action: %w: target dir required for %s", ErrInvalidInput, r.Operation)
		}
	case OpDelete:
		if r.TargetDir != "" {
			return fmt.Errorf("validate action: %w: target dir not allowed for delete", ErrInvalidInput)
		}
	}
	return nil
}

// Mappings derives the destination key for each source as
// targetDir/basename(source). Collisions between sources with the same
// basename are not deduplicated; each mapping is submitted independently
// and conflicts surface as per-key failures.
func (r FileActionRequest) Mappings() []FileKeyMapping {
	mappings := make([]FileKeyMapping, 0, len(r.Sources))
	for _, src := range r.Sources {
		mappings = append(mappings, FileKeyMapping{
			SourceKey:      src,
			DestinationKey: path.Join(r.TargetDir, path.Base(src)),
		})
	}
	return mappings
}

// FileEntryAction is the kind of registry record written for a file key.
type FileEntryAction string

const (
	ActionCreate  FileEntryAction = "create"
	ActionMove    FileEntryAction = "move"
	ActionDelete  FileEntryAction = "delete"
	ActionMissing FileEntryAction = "missing"
)

// FileEntry is a registry record for a primary-store asset and its derived
// thumbnail. EntityID is stable across moves; a new one is minted on create
// and on copy.
type FileEntry struct {
	ID            uuid.UUID       `json:"id"`
	FileKey       string          `json:"file_key"`
	EntityID      uuid.UUID       `json:"entity_id"`
	Action        FileEntryAction `json:"action"`
	MimeType      string          `json:"mime_type,omitempty"`
	ThumbnailKey  string          `json:"thumbnail_key,omitempty"`
	ThumbnailMime string          `json:"thumbnail_mime,omitempty"`
	Checksum      string          `json:"checksum,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HasThumbnail reports whether a derived artifact has been materialized.
// Absence is a valid, renderable state.
func (e FileEntry) HasThumbnail() bool {
	return e.ThumbnailKey != ""
}
