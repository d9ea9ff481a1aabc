package mediafold

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Tables holds configurable table names for the file registry.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	FileEntries string
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.FileEntries == "" {
		return errors.New("validate tables: file entries table name cannot be empty")
	}

	if !IsValidTableName(t.FileEntries) {
		return fmt.Errorf("validate tables: invalid file entries table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.FileEntries)
	}

	return nil
}

// Cursor represents pagination cursor data for registry list operations.
type Cursor struct {
	CreatedAt time.Time
	FileKey   string
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, fileKey string) string {
	data := createdAt.Format(time.RFC3339Nano) + "|" + fileKey
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	if parts[1] == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty file key")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{CreatedAt: createdAt, FileKey: parts[1]}, nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) to prevent SQL injection.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// ListQuery describes a registry list request. KeyPrefix narrows the
// result to keys under a directory; Cursor and Limit page through it.
type ListQuery struct {
	KeyPrefix string
	Cursor    string
	Limit     int
}

// ListResult is one page of live file states. NextCursor is empty on
// the last page.
type ListResult struct {
	Items      []FileEntry
	NextCursor string
}

// FileRegistry records file lifecycle actions and answers questions
// about the current state of each file key.
//
// The registry is an append-only action log. The current state of a
// key is its most recent entry; a key whose latest action is
// ActionDelete or ActionMissing is not live.
type FileRegistry interface {
	// Record appends the given entries to the action log. Entries with a
	// zero ID or CreatedAt are filled in. The stored entries are returned
	// in input order.
	Record(ctx context.Context, entries []FileEntry) ([]FileEntry, error)

	// States returns the latest entry for each of the given file keys,
	// skipping keys that were never registered or whose latest action is
	// ActionDelete. The result preserves input order.
	States(ctx context.Context, fileKeys []string) ([]FileEntry, error)

	// List pages through the live states under a key prefix, ordered by
	// (created_at, file_key) of the latest entry.
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// FindByChecksum returns live entries whose content checksum matches,
	// used to re-link files that moved outside the system.
	FindByChecksum(ctx context.Context, checksum string) ([]FileEntry, error)
}
