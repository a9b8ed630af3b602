package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/delta/pkg/cache"
)

// Store persists sessions.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its cookie token.
	// Returns ErrNotFound or ErrExpired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves an existing session. The token may have changed.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by its ID.
	Delete(ctx context.Context, id string) error
}

// CacheStore keeps sessions in a cache.Cache, keyed by token.
// A second cache maps session IDs to their current token so that
// Delete and token rotation can find the entry.
// Use cache.NewMemory for a single process or cache.NewRedis to share
// sessions between instances.
type CacheStore struct {
	sessions cache.Cache[*Session]
	tokens   cache.Cache[string]
}

// NewCacheStore creates a store over the two caches.
func NewCacheStore(sessions cache.Cache[*Session], tokens cache.Cache[string]) *CacheStore {
	return &CacheStore{sessions: sessions, tokens: tokens}
}

// NewMemoryStore creates a CacheStore over in-memory caches.
func NewMemoryStore() *CacheStore {
	return NewCacheStore(
		cache.NewMemory[*Session](cache.WithDefaultTTL(-1)),
		cache.NewMemory[string](cache.WithDefaultTTL(-1)),
	)
}

// Create implements Store.
func (s *CacheStore) Create(ctx context.Context, sess *Session) error {
	return s.put(ctx, sess)
}

// Get implements Store.
func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, sess.ID)
		return nil, ErrExpired
	}
	return sess, nil
}

// Update implements Store.
func (s *CacheStore) Update(ctx context.Context, sess *Session) error {
	old, err := s.tokens.Get(ctx, sess.ID)
	if err == nil && old != sess.Token {
		if err := s.sessions.Delete(ctx, old); err != nil {
			return errors.Join(ErrStore, err)
		}
	}
	return s.put(ctx, sess)
}

// Delete implements Store.
func (s *CacheStore) Delete(ctx context.Context, id string) error {
	token, err := s.tokens.Get(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return errors.Join(s.sessions.Delete(ctx, token), s.tokens.Delete(ctx, id))
}

// Close releases both caches.
func (s *CacheStore) Close() error {
	return errors.Join(s.sessions.Close(), s.tokens.Close())
}

func (s *CacheStore) put(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	if err := s.sessions.Set(ctx, sess.Token, sess, ttl); err != nil {
		return errors.Join(ErrStore, err)
	}
	if err := s.tokens.Set(ctx, sess.ID, sess.Token, ttl); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}
