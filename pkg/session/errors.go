package session

import "errors"

var (
	// ErrNotConfigured means sessions were used on an app without a store.
	ErrNotConfigured = errors.New("session: no store configured")
	ErrNotFound      = errors.New("session: unknown token")
	ErrExpired       = errors.New("session: past expiry")
	// ErrInvalidToken rejects empty tokens before they reach the store.
	ErrInvalidToken = errors.New("session: empty or malformed token")
	// ErrStore wraps failures of the backing cache.
	ErrStore = errors.New("session: backing store failed")
)
