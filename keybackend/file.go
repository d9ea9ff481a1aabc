package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credential represents a username and password pair for the write API.
type Credential struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// LoadCredentialsFromFile loads write credentials from a JSON file.
// The file should contain an array of credential pairs:
//
//	[
//	  {"username": "admin", "password": "s3cret"},
//	  {"username": "uploader", "password": "another_secret"}
//	]
//
// Returns a map of username to password.
func LoadCredentialsFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var pairs []Credential
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	credentials := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.Username != "" && p.Password != "" {
			credentials[p.Username] = p.Password
		}
	}

	return credentials, nil
}
