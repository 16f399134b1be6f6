// Package session holds the client's authenticated session: bearer token,
// expiry and the user profile snapshot taken at login. A Store is the single
// source of truth for "is there a valid session, and who is it"; it is created
// once and passed explicitly to whatever needs it.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/erp-portal/internal/models"
)

// ErrNoSession is returned by Persister.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Session is the persisted triple created on login.
type Session struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserProfile `json:"user"`
}

// State is what subscribers receive on every change.
type State struct {
	IsAuthenticated bool
	Token           string
	User            *models.UserProfile
}

// Persister keeps a session across process restarts.
type Persister interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Store owns the current session and notifies subscribers of changes.
type Store struct {
	mu      sync.RWMutex
	current *Session

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
	pubMu  sync.Mutex

	persist Persister
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPersister restores from and writes through to p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a store and restores a persisted, unexpired session if one exists.
func NewStore(opts ...Option) *Store {
	s := &Store{
		subs:   make(map[int]func(State)),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.persist == nil {
		return
	}
	sess, err := s.persist.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.logger.Warn().Err(err).Msg("session: discard unreadable stored session")
			_ = s.persist.Clear()
		}
		return
	}
	if sess.Token == "" || !s.now().Before(sess.ExpiresAt) {
		s.logger.Debug().Msg("session: stored session expired")
		_ = s.persist.Clear()
		return
	}
	s.current = &sess
}

// SetSession stores the triple, marks the state authenticated and notifies subscribers.
func (s *Store) SetSession(token string, expiresAt time.Time, user models.UserProfile) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}
	sess := Session{Token: token, ExpiresAt: expiresAt, User: user}
	_, err := s.apply(func() bool {
		s.current = &sess
		return true
	})
	return err
}

// UpdateUser replaces the profile snapshot of the current session, keeping its token.
// It reports false when there is no session.
func (s *Store) UpdateUser(user models.UserProfile) bool {
	applied, _ := s.apply(func() bool {
		if s.current == nil {
			return false
		}
		updated := *s.current
		updated.User = user
		s.current = &updated
		return true
	})
	return applied
}

// ClearSession wipes the session and notifies subscribers. Clearing an empty store still notifies.
func (s *Store) ClearSession() {
	s.apply(func() bool {
		s.current = nil
		return true
	})
}

// apply runs mutate under the write lock and, when it reports a change, persists
// the new state before releasing the lock. Subscribers are notified in the
// order changes were applied.
func (s *Store) apply(mutate func() bool) (bool, error) {
	s.mu.Lock()
	if !mutate() {
		s.mu.Unlock()
		return false, nil
	}
	err := s.persistLocked()
	state := s.stateLocked()
	s.pubMu.Lock()
	s.mu.Unlock()
	s.publish(state)
	s.pubMu.Unlock()
	return true, err
}

func (s *Store) persistLocked() error {
	if s.persist == nil {
		return nil
	}
	if s.current == nil {
		if err := s.persist.Clear(); err != nil {
			s.logger.Warn().Err(err).Msg("session: clear persisted session failed")
			return err
		}
		return nil
	}
	if err := s.persist.Save(*s.current); err != nil {
		s.logger.Warn().Err(err).Msg("session: persist failed")
		return err
	}
	return nil
}

// active returns the current session, clearing it first if it has expired.
func (s *Store) active() *Session {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return nil
	}
	if s.now().Before(cur.ExpiresAt) {
		return cur
	}

	cleared, _ := s.apply(func() bool {
		// only the session that was seen expired is dropped
		if s.current != cur {
			return false
		}
		s.current = nil
		return true
	})
	if !cleared {
		return s.active()
	}
	s.logger.Info().Msg("session: token expired")
	return nil
}

// Token returns the bearer token, or "" without a valid session.
func (s *Store) Token() string {
	if cur := s.active(); cur != nil {
		return cur.Token
	}
	return ""
}

// ExpiresAt returns the expiry of the current session.
func (s *Store) ExpiresAt() (time.Time, bool) {
	if cur := s.active(); cur != nil {
		return cur.ExpiresAt, true
	}
	return time.Time{}, false
}

// CurrentUser returns a copy of the user snapshot, or nil without a valid session.
func (s *Store) CurrentUser() *models.UserProfile {
	if cur := s.active(); cur != nil {
		u := cur.User
		return &u
	}
	return nil
}

func (s *Store) IsAuthenticated() bool {
	return s.active() != nil
}

// HasRole compares case-insensitively against the current user's role.
func (s *Store) HasRole(role string) bool {
	u := s.CurrentUser()
	return u != nil && strings.EqualFold(u.Role, role)
}

func (s *Store) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

// Snapshot returns the current state, after applying expiry.
func (s *Store) Snapshot() State {
	s.active()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	if s.current == nil {
		return State{}
	}
	u := s.current.User
	return State{IsAuthenticated: true, Token: s.current.Token, User: &u}
}

// Subscribe registers fn for every state change and returns a function removing it.
// fn runs synchronously on the goroutine that changed the state. It must not block
// and must not change the store itself.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(state State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
