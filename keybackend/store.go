package keybackend

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// CredentialsConfig holds configuration for loading write credentials.
type CredentialsConfig struct {
	Inline []Credential `mapstructure:"inline"` // Inline credential pairs from config
	File   string       `mapstructure:"file"`   // Path to JSON file containing credential pairs
}

// NewCredentialStore creates a credential store from the given
// configuration. It loads credentials from both inline config and file (if
// specified), merging them into a single store. File credentials take
// precedence over inline credentials if there are duplicates.
func NewCredentialStore(cfg CredentialsConfig) (*MapCredentialStore, error) {
	credentials := make(map[string]string)

	for _, p := range cfg.Inline {
		if p.Username != "" && p.Password != "" {
			credentials[p.Username] = p.Password
		}
	}

	if cfg.File != "" {
		fileCredentials, err := LoadCredentialsFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileCredentials {
			credentials[k] = v
		}
	}

	return NewMapCredentialStore(credentials), nil
}

// SecretConfig holds configuration for loading the capability signing
// secret, either inline or from a file.
type SecretConfig struct {
	Value string `mapstructure:"value"` // Inline secret
	File  string `mapstructure:"file"`  // Path to a file whose contents are the secret
}

// LoadSigningSecret resolves the capability signing secret from the
// configuration. A file takes precedence over an inline value; trailing
// whitespace in the file is ignored.
func LoadSigningSecret(cfg SecretConfig) (string, error) {
	if cfg.File != "" {
		data, err := os.ReadFile(cfg.File) //nolint:gosec // Path is from trusted config file
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", errors.New("secret file is empty")
		}
		return secret, nil
	}

	if cfg.Value == "" {
		return "", errors.New("signing secret is not configured")
	}
	return cfg.Value, nil
}
