// Package session tracks the authenticated identity of a caller across requests.
//
// The browser holds only a signed token naming an opaque session id; the
// session data itself lives in a Store. Every request resolves the stored
// user id back into a model.User and keeps it on the gin.Context.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/internal/model"
	"github.com/d60-Lab/eventboard/internal/repository"
	"github.com/d60-Lab/eventboard/pkg/logger"
)

const contextKey = "eventboard.session"

// ErrDanglingIdentity means a session names a user id that no longer exists.
var ErrDanglingIdentity = errors.New("session user no longer exists")

// UserLoader resolves a stored user id.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// Identity is the principal of the current request.
type Identity struct {
	User *model.User
}

// Anonymous is the identity of a caller without a session user.
var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool { return i.User != nil }

// Session is the per-request view of a stored session.
type Session struct {
	ID       string
	Data     Data
	identity Identity
	persist  bool // cookie already issued or data worth keeping
}

// Options configure the session cookie.
type Options struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Manager loads, mutates and persists sessions.
type Manager struct {
	store  Store
	users  UserLoader
	signer *Signer
	opts   Options
}

func NewManager(store Store, users UserLoader, secret string, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "eventboard_session"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 31 * 24 * time.Hour
	}
	return &Manager{
		store:  store,
		users:  users,
		signer: NewSigner(secret, cookieIssuer, opts.MaxAge),
		opts:   opts,
	}
}

// Load reads the session cookie, loads its data and resolves the identity.
// A missing or invalid cookie yields a fresh anonymous session. A stored
// user id that no longer resolves returns ErrDanglingIdentity.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	s := &Session{identity: Anonymous}
	c.Set(contextKey, s)

	raw, err := c.Cookie(m.opts.CookieName)
	if err == nil {
		if id, verr := m.signer.Verify(raw); verr == nil {
			s.ID = id
			s.persist = true
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
		return s, nil
	}

	ctx := c.Request.Context()
	data, err := m.store.Load(ctx, s.ID)
	if err != nil {
		return s, fmt.Errorf("load session: %w", err)
	}
	s.Data = data
	if data.UserID == 0 {
		return s, nil
	}

	user, err := m.users.GetByID(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s, fmt.Errorf("%w: user_id=%d", ErrDanglingIdentity, data.UserID)
		}
		return s, fmt.Errorf("resolve session user: %w", err)
	}
	s.identity = Identity{User: user}
	return s, nil
}

// Establish makes user the authenticated principal for this and later
// requests. The session id is rotated.
func (m *Manager) Establish(c *gin.Context, user *model.User) error {
	s := From(c)
	old := s.ID
	s.ID = uuid.NewString()
	s.Data.UserID = user.ID
	s.identity = Identity{User: user}
	if s.persist && old != "" {
		if err := m.store.Delete(c.Request.Context(), old); err != nil {
			logger.Warn("drop rotated session", zap.String("session_id", old), zap.Error(err))
		}
	}
	return m.save(c, s)
}

// End clears the authenticated principal.
func (m *Manager) End(c *gin.Context) error {
	s := From(c)
	s.Data.UserID = 0
	s.identity = Anonymous
	return m.save(c, s)
}

// AddFlash queues a one-shot message for the next rendered page.
func (m *Manager) AddFlash(c *gin.Context, msg string) error {
	s := From(c)
	s.Data.Flashes = append(s.Data.Flashes, msg)
	return m.save(c, s)
}

// Flashes pops the queued messages.
func (m *Manager) Flashes(c *gin.Context) ([]string, error) {
	s := From(c)
	if len(s.Data.Flashes) == 0 {
		return nil, nil
	}
	out := s.Data.Flashes
	s.Data.Flashes = nil
	return out, m.save(c, s)
}

// Touch makes sure the browser holds a cookie for the current session id,
// so that tokens bound to it survive to the next request.
func (m *Manager) Touch(c *gin.Context) error {
	s := From(c)
	if s.persist {
		return nil
	}
	return m.save(c, s)
}

func (m *Manager) save(c *gin.Context, s *Session) error {
	if err := m.store.Save(c.Request.Context(), s.ID, s.Data, m.opts.MaxAge); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	token, err := m.signer.Sign(s.ID)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.opts.CookieName, token, int(m.opts.MaxAge.Seconds()), "/", "", m.opts.Secure, true)
	s.persist = true
	return nil
}

// From returns the session loaded for this request. Without the session
// middleware it returns a detached anonymous session.
func From(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s := &Session{ID: uuid.NewString(), identity: Anonymous}
	c.Set(contextKey, s)
	return s
}

// CurrentIdentity returns the authenticated user or Anonymous.
func CurrentIdentity(c *gin.Context) Identity {
	return From(c).identity
}
