// Package inmemory provides a map-backed mediafold.Store. It mirrors the
// remote store's semantics closely enough for gateway tests and local
// development without a WebDAV proxy.
package inmemory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mediafold/mediafold"
)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Store is an in-memory mediafold.Store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

// Seed stores an object directly, bypassing validation. Test setup only.
func (s *Store) Seed(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType, modified: s.now()}
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// List returns the children of dirKey. Directories are synthesized from
// key prefixes, the way an object store's listing would.
func (s *Store) List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error) {
	if err := ctx.Err(); err != nil {
		return mediafold.DirectoryListing{}, err
	}
	if !mediafold.IsValidDirKey(dirKey) {
		return mediafold.DirectoryListing{}, fmt.Errorf("list %q: %w", dirKey, mediafold.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := ""
	if dirKey != "" {
		prefix = dirKey + "/"
		if !s.dirExistsLocked(dirKey) {
			return mediafold.DirectoryListing{}, fmt.Errorf("list %q: %w", dirKey, mediafold.ErrNotFound)
		}
	}

	seen := make(map[string]mediafold.Entry)
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)

		if i := strings.IndexByte(rest, '/'); i >= 0 && !recursive {
			dir := prefix + rest[:i]
			seen[dir] = mediafold.Entry{Key: dir, Name: rest[:i], IsDir: true, Modified: obj.modified}
			continue
		}

		name := rest
		if i := strings.LastIndexByte(rest, '/'); i >= 0 {
			name = rest[i+1:]
		}
		seen[key] = mediafold.Entry{
			Key:      key,
			Name:     name,
			IsDir:    false,
			Size:     int64(len(obj.data)),
			Modified: obj.modified,
		}
	}

	entries := make([]mediafold.Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return mediafold.DirectoryListing{Entries: entries}, nil
}

func (s *Store) dirExistsLocked(dirKey string) bool {
	prefix := dirKey + "/"
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Get opens an object for reading.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, found := s.objects[key]
	if !found {
		return nil, "", fmt.Errorf("get %q: %w", key, mediafold.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Put writes an object. Intermediate directories are implicit.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !mediafold.IsValidKey(key) {
		return fmt.Errorf("put %q: %w", key, mediafold.ErrInvalidInput)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType, modified: s.now()}
	return nil
}

// Copy copies or moves each mapping independently. Existing destinations
// are overwritten.
func (s *Store) Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]mediafold.FileActionResult, 0, len(mappings))
	for _, m := range mappings {
		result := mediafold.FileActionResult{Key: m.SourceKey}

		src, found := s.objects[m.SourceKey]
		switch {
		case !mediafold.IsValidKey(m.SourceKey) || !mediafold.IsValidKey(m.DestinationKey):
			result.Error = "invalid key"
		case !found:
			result.Error = "not found"
		default:
			s.objects[m.DestinationKey] = object{
				data:        src.data,
				contentType: src.contentType,
				modified:    s.now(),
			}
			if deleteSource {
				delete(s.objects, m.SourceKey)
			}
			result.Success = true
		}
		results = append(results, result)
	}
	return results, nil
}

// Delete removes each key independently.
func (s *Store) Delete(ctx context.Context, keys []string) ([]mediafold.FileActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]mediafold.FileActionResult, 0, len(keys))
	for _, key := range keys {
		result := mediafold.FileActionResult{Key: key}
		if _, found := s.objects[key]; found {
			delete(s.objects, key)
			result.Success = true
		} else {
			result.Error = "not found"
		}
		results = append(results, result)
	}
	return results, nil
}
