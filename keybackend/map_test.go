package keybackend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediafold/mediafold/keybackend"
)

func TestMapCredentialStore_Lookup_Found(t *testing.T) {
	store := keybackend.NewMapCredentialStore(map[string]string{
		"admin":    "s3cret",
		"uploader": "other",
	})

	password, err := store.Lookup("admin")

	assert.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestMapCredentialStore_Lookup_NotFound(t *testing.T) {
	store := keybackend.NewMapCredentialStore(map[string]string{
		"admin": "s3cret",
	})

	password, err := store.Lookup("intruder")

	assert.ErrorIs(t, err, keybackend.ErrKeyNotFound)
	assert.Empty(t, password)
}

func TestMapCredentialStore_Lookup_EmptyStore(t *testing.T) {
	store := keybackend.NewMapCredentialStore(nil)

	_, err := store.Lookup("admin")

	assert.ErrorIs(t, err, keybackend.ErrKeyNotFound)
}
