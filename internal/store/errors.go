package store

import "errors"

// ErrKeyNotFound is returned by Get when no object exists under the key.
var ErrKeyNotFound = errors.New("key not found")
