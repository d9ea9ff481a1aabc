package keybackend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold/keybackend"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCredentialsFromFile_Success(t *testing.T) {
	path := writeTempFile(t, "credentials.json", `[
		{"username": "admin", "password": "s3cret"},
		{"username": "uploader", "password": "other"}
	]`)

	credentials, err := keybackend.LoadCredentialsFromFile(path)

	assert.NoError(t, err)
	assert.Equal(t, map[string]string{
		"admin":    "s3cret",
		"uploader": "other",
	}, credentials)
}

func TestLoadCredentialsFromFile_SkipsIncompletePairs(t *testing.T) {
	path := writeTempFile(t, "credentials.json", `[
		{"username": "admin", "password": "s3cret"},
		{"username": "", "password": "orphan"},
		{"username": "nopass", "password": ""}
	]`)

	credentials, err := keybackend.LoadCredentialsFromFile(path)

	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"admin": "s3cret"}, credentials)
}

func TestLoadCredentialsFromFile_MissingFile(t *testing.T) {
	_, err := keybackend.LoadCredentialsFromFile(filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read credentials file")
}

func TestLoadCredentialsFromFile_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, "credentials.json", `{not json`)

	_, err := keybackend.LoadCredentialsFromFile(path)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse credentials file")
}
