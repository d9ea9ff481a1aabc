// Package keybackend provides credential stores for the write API and
// loading of the capability signing secret.
package keybackend

import "fmt"

// MapCredentialStore retrieves passwords from an in-memory map.
// Suitable for configuration file-based credential storage.
type MapCredentialStore struct {
	credentials map[string]string
}

// NewMapCredentialStore creates a new map-based credential store with the
// given username to password mapping.
func NewMapCredentialStore(credentials map[string]string) *MapCredentialStore {
	return &MapCredentialStore{credentials: credentials}
}

// Lookup retrieves the password for the given username from the map.
func (s *MapCredentialStore) Lookup(username string) (string, error) {
	password, found := s.credentials[username]
	if !found {
		return "", fmt.Errorf("lookup %q: %w", username, ErrKeyNotFound)
	}
	return password, nil
}
