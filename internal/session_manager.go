package internal

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/delta/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionLifetime   = 30 * 24 * time.Hour
)

// SessionManager binds session.Store records to a browser cookie.
// The cookie carries the session token; the record is keyed by it.
type SessionManager struct {
	store    session.Store
	logger   *slog.Logger
	cookie   http.Cookie // template for every Set-Cookie
	lifetime time.Duration
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a SessionManager. The cookie defaults to
// "__sid", path "/", HttpOnly, SameSite=Lax and a 30 day lifetime.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		cookie: http.Cookie{
			Name:     defaultSessionCookieName,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		lifetime: defaultSessionLifetime,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName sets the session cookie name. Empty names are ignored.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie.Name = name
		}
	}
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.lifetime = time.Duration(seconds) * time.Second
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Domain = domain }
}

func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.cookie.Path = path
		}
	}
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Secure = secure }
}

func WithSessionSameSite(mode http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.cookie.SameSite = mode }
}

// SetLogger replaces the discard logger. App calls it once its logger is known.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// CookieName returns the name of the session cookie.
func (sm *SessionManager) CookieName() string { return sm.cookie.Name }

// LoadSession returns the session whose token the request cookie carries.
// A missing cookie, an unknown token and an expired record all yield nil, nil.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sm.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	sess, err := sm.store.Get(ctx, c.Value)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		sm.logger.DebugContext(ctx, "stale session cookie", slog.Any("reason", err))
		return nil, nil
	}
	return sess, err
}

// NewSession returns a fresh session that exists only in memory until Save.
func (sm *SessionManager) NewSession() (*session.Session, error) {
	return session.New(uuid.NewString(), rand.Text(), time.Now().Add(sm.lifetime)), nil
}

// Save writes a dirty session to the store, creating or updating it, and
// refreshes the cookie. Clean and nil sessions are left alone.
func (sm *SessionManager) Save(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}

	persist := sm.store.Update
	if sess.IsNew() {
		persist = sm.store.Create
	}
	if err := persist(ctx, sess); err != nil {
		return err
	}

	sess.ClearNew()
	sess.ClearDirty()
	sm.setCookie(w, sess.Token, int(sm.lifetime/time.Second))
	return nil
}

// RotateToken gives the session a new token, so a token known before
// login is useless after it. The change is persisted by the next Save.
func (sm *SessionManager) RotateToken(sess *session.Session) error {
	sess.Token = rand.Text()
	sess.MarkDirty()
	return nil
}

// Destroy expires the cookie and deletes a persisted session from the store.
func (sm *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	sm.setCookie(w, "", -1)
	if sess == nil || sess.IsNew() {
		return nil
	}
	return sm.store.Delete(ctx, sess.ID)
}

func (sm *SessionManager) Store() session.Store { return sm.store }

func (sm *SessionManager) setCookie(w http.ResponseWriter, token string, maxAge int) {
	c := sm.cookie
	c.Value = token
	c.MaxAge = maxAge
	http.SetCookie(w, &c)
}
