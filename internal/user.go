package internal

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/delta/pkg/session"
)

// User is the identity behind a request.
//
// With a SessionManager the user lives in the session and changes are saved
// right before the response is committed. Without one, login state lasts for
// the current request only.
type User struct {
	c      *Context
	sm     *SessionManager
	sess   *session.Session
	loaded bool
	hooked bool
}

func newUser(c *Context, sm *SessionManager) *User {
	return &User{c: c, sm: sm}
}

// IsLogin reports whether a user is logged in.
func (u *User) IsLogin() bool {
	sess, err := u.session(false)
	return err == nil && sess != nil && sess.IsAuthenticated()
}

// ID returns the logged-in user id, or "".
func (u *User) ID() string {
	sess, err := u.session(false)
	if err != nil || sess == nil {
		return ""
	}
	return sess.UserID
}

// Roles returns the roles of the logged-in user.
func (u *User) Roles() []string {
	sess, err := u.session(false)
	if err != nil || sess == nil {
		return nil
	}
	return slices.Clone(sess.Roles)
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...string) bool {
	sess, err := u.session(false)
	if err != nil || sess == nil {
		return false
	}
	return sess.HasRole(roles...)
}

// Login binds userID and roles. The session token is rotated.
func (u *User) Login(userID string, roles ...string) error {
	sess, err := u.session(true)
	if err != nil {
		return err
	}
	if u.sm != nil && !sess.IsNew() {
		if err := u.sm.RotateToken(sess); err != nil {
			return err
		}
	}
	sess.Login(userID, roles...)
	return nil
}

// Logout clears the user and destroys the session.
func (u *User) Logout() error {
	sess, err := u.session(false)
	if err != nil || sess == nil {
		return err
	}
	sess.Logout()
	if u.sm == nil {
		return nil
	}
	u.sess = nil
	return u.sm.Destroy(u.c, u.c.Response().Unwrap(), sess)
}

// Session returns the session of the request, creating it when needed.
// Without a session manager it returns session.ErrNotConfigured.
func (u *User) Session() (*session.Session, error) {
	if u.sm == nil {
		return nil, session.ErrNotConfigured
	}
	return u.session(true)
}

func (u *User) session(create bool) (*session.Session, error) {
	if u.sm == nil {
		if u.sess == nil && create {
			u.sess = session.New("", "", time.Now().Add(time.Hour))
		}
		return u.sess, nil
	}

	if !u.loaded {
		u.loaded = true
		sess, err := u.sm.LoadSession(u.c, u.c.Request().HTTP())
		if err != nil {
			return nil, err
		}
		u.sess = sess
	}
	if u.sess == nil && create {
		sess, err := u.sm.NewSession()
		if err != nil {
			return nil, err
		}
		u.sess = sess
	}
	if u.sess != nil {
		u.persistOnCommit()
	}
	return u.sess, nil
}

// persistOnCommit saves the session once, right before headers are sent.
func (u *User) persistOnCommit() {
	if u.hooked {
		return
	}
	u.hooked = true
	res := u.c.Response()
	res.OnBeforeCommit(func() {
		if u.sess == nil {
			return
		}
		if err := u.sm.Save(context.WithoutCancel(u.c), res.Unwrap(), u.sess); err != nil {
			u.c.Logger().Error("save session",
				slog.String("session_id", u.sess.ID),
				slog.Any("error", err),
			)
		}
	})
}
