package cache

import "errors"

var (
	// ErrNotFound is returned for missing and expired keys.
	ErrNotFound = errors.New("cache: not found")

	// ErrClosed is returned by writes to a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrMarshal wraps encoding failures.
	ErrMarshal = errors.New("cache: marshal")

	// ErrUnmarshal wraps decoding failures.
	ErrUnmarshal = errors.New("cache: unmarshal")
)
