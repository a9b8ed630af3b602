package session

import (
	"fmt"
	"slices"
	"time"
)

// Session is the server-side state behind a session cookie.
// It records who is logged in and which roles they hold.
type Session struct {
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Values       map[string]string `json:"values,omitempty"`
	ID           string            `json:"id"`
	Token        string            `json:"token"`
	UserID       string            `json:"user_id,omitempty"` // empty = anonymous
	Roles        []string          `json:"roles,omitempty"`

	dirty bool
	isNew bool
}

// New creates a session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]string),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// Login binds a user and roles to the session.
func (s *Session) Login(userID string, roles ...string) {
	s.UserID = userID
	s.Roles = slices.Clone(roles)
	s.dirty = true
}

// Logout removes the user, roles and values.
func (s *Session) Logout() {
	s.UserID = ""
	s.Roles = nil
	clear(s.Values)
	s.dirty = true
}

// HasRole reports whether the session holds any of roles.
func (s *Session) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(s.Roles, r) {
			return true
		}
	}
	return false
}

// SetValue stores a value and marks the session dirty.
func (s *Session) SetValue(key, val string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue returns a stored value.
func (s *Session) GetValue(key string) (string, bool) {
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value. The session becomes dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsDirty reports unsaved changes.
func (s *Session) IsDirty() bool { return s.dirty }

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() { s.dirty = false }

// MarkDirty marks the session as needing a save.
func (s *Session) MarkDirty() { s.dirty = true }

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool { return s.isNew }

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() { s.isNew = false }

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns a stored value or ErrNotFound.
func Value(s *Session, key string) (string, error) {
	if s == nil {
		return "", ErrNotFound
	}
	val, ok := s.GetValue(key)
	if !ok {
		return "", fmt.Errorf("%w: value %q", ErrNotFound, key)
	}
	return val, nil
}

// ValueOr returns a stored value or def.
func ValueOr(s *Session, key, def string) string {
	val, err := Value(s, key)
	if err != nil {
		return def
	}
	return val
}
