package keybackend

import "errors"

// ErrKeyNotFound is returned when the username does not exist in the store.
var ErrKeyNotFound = errors.New("key not found")
