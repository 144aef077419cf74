// Package store implements the authoritative client-side authentication
// state: current user, session and profile, durable across page loads via
// the cookie codec, observable by the rest of the application.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/model"
)

// IdentityClient is the slice of the identity provider this store needs.
type IdentityClient interface {
	// SignOut revokes the current session on the provider.
	SignOut(ctx context.Context) error
}

// ProfileClient is the slice of the profile service this store needs.
type ProfileClient interface {
	// UpdatePresence persists the online flag and last-seen timestamp.
	UpdatePresence(ctx context.Context, upd model.PresenceUpdate) error
}

// Codec persists snapshots and rehydrates them. Implemented by codec.Codec.
type Codec interface {
	Encode(snap model.AuthSnapshot)
	Decode() (model.StoredAuthRecord, bool)
}

// Recorder counts store events. Satisfied by metrics.Collector.
type Recorder interface {
	RecordSignOut(result string)
	RecordPresenceUpdate(result string)
	RecordRehydration(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordSignOut(string)        {}
func (nopRecorder) RecordPresenceUpdate(string) {}
func (nopRecorder) RecordRehydration(string)    {}

// Rehydration outcomes reported to the Recorder.
const (
	rehydrationRestored = "restored"
	rehydrationEmpty    = "empty"
	rehydrationHealed   = "healed"
	rehydrationStale    = "stale_dropped"
)

// Store is the single source of truth for authentication state. Every
// mutation of user, session or profile commits through the codec, so cookie
// storage and the compatibility cookies always follow the last accepted
// state.
//
// Construct one instance per logical owner (one per request in a
// server-rendered context); there is no package-level singleton.
type Store struct {
	mu   sync.Mutex
	snap model.AuthSnapshot

	codec    Codec
	identity IdentityClient
	profiles ProfileClient

	log *zap.Logger
	rec Recorder
	now func() time.Time

	subs    map[int]func(model.AuthSnapshot)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.rec = rec
		}
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the store and rehydrates it from the codec exactly once,
// before any action can run. A missing or malformed stored record is not an
// error: the store starts all-absent. After New returns the store is
// initialized and not loading.
func New(c Codec, identity IdentityClient, profiles ProfileClient, opts ...Option) *Store {
	s := &Store{
		snap:     model.AuthSnapshot{Loading: true},
		codec:    c,
		identity: identity,
		profiles: profiles,
		log:      zap.NewNop(),
		rec:      nopRecorder{},
		now:      time.Now,
		subs:     map[int]func(model.AuthSnapshot){},
	}
	for _, o := range opts {
		o(s)
	}
	s.rehydrate()
	return s
}

// rehydrate restores the persisted record, healing anything that violates
// the store invariants: a session without an owning user is dropped, and a
// session whose access token is an expired JWT with no refresh token is
// dropped as stale.
func (s *Store) rehydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := rehydrationEmpty
	if rec, ok := s.codec.Decode(); ok {
		restored := rec.Snapshot()
		result = rehydrationRestored

		if restored.Session != nil && restored.User == nil {
			s.log.Error("stored session has no owning user, dropping session")
			restored.Session = nil
			result = rehydrationHealed
		}
		if restored.Session != nil && staleAccessToken(restored.Session, s.now()) {
			s.log.Info("stored access token expired with no refresh token, dropping session")
			restored.Session = nil
			result = rehydrationStale
		}

		s.snap.User = restored.User
		s.snap.Session = restored.Session
		s.snap.Profile = restored.Profile
	}

	s.snap.Loading = false
	s.snap.Initialized = true
	s.rec.RecordRehydration(result)

	if result == rehydrationHealed || result == rehydrationStale {
		// Write the healed state back so the compatibility cookies cannot
		// keep advertising a session the store refused.
		s.commitLocked(true)
	}
}

// staleAccessToken reports whether the access token is a JWT whose expiry has
// passed. Opaque tokens and refreshable sessions are never stale here: the
// refresh flow owns those.
func staleAccessToken(sess *model.Session, now time.Time) bool {
	if sess.RefreshToken != "" {
		return false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}

// SetAuth replaces the user and session atomically and persists the result.
// A session without an owning user violates the store invariant; the session
// is dropped (and logged) rather than applied. A nil session removes both
// compatibility cookies; a non-nil one rewrites both.
func (s *Store) SetAuth(user *model.User, sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess != nil && user == nil {
		s.log.Error("SetAuth called with session but no user, dropping session")
		sess = nil
	}
	if user != nil {
		u := *user
		user = &u
	}
	if sess != nil {
		c := *sess
		sess = &c
	}

	s.snap.User = user
	s.snap.Session = sess
	s.commitLocked(true)
}

// SetProfile replaces the profile without touching user or session.
func (s *Store) SetProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Profile = p.Clone()
	s.commitLocked(true)
}

// SetLoading flips the loading flag. Flags are never persisted.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Loading == v {
		return
	}
	s.snap.Loading = v
	s.commitLocked(false)
}

// SetInitialized marks the store initialized. The flag transitions false to
// true at most once and never reverts: repeated calls are idempotent and
// attempts to unset it are ignored.
func (s *Store) SetInitialized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !v {
		if s.snap.Initialized {
			s.log.Warn("SetInitialized(false) ignored: flag never reverts")
		}
		return
	}
	if s.snap.Initialized {
		return
	}
	s.snap.Initialized = true
	s.commitLocked(false)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.AuthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// CurrentUser returns the signed-in user, or nil.
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.User == nil {
		return nil
	}
	u := *s.snap.User
	return &u
}

// CurrentSession returns the active session, or nil.
func (s *Store) CurrentSession() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Session == nil {
		return nil
	}
	sess := *s.snap.Session
	return &sess
}

// CurrentProfile returns the profile, or nil.
func (s *Store) CurrentProfile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Profile.Clone()
}

// IsAuthenticated reports whether an authoritative session is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Session != nil
}

// AccessToken returns the current access token, or empty. Shaped to fit
// remote.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Session == nil {
		return ""
	}
	return s.snap.Session.AccessToken
}

// Subscribe registers fn to run synchronously after every committed state
// change, with a snapshot copy. The callback runs under the store lock and
// must not call back into the store. The returned func cancels the
// subscription.
func (s *Store) Subscribe(fn func(model.AuthSnapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// commitLocked is the explicit on-commit step every action funnels through:
// persist through the codec when the durable subset changed, then notify
// subscribers. Callers hold s.mu.
func (s *Store) commitLocked(persist bool) {
	if persist {
		s.codec.Encode(s.snap)
	}
	if len(s.subs) == 0 {
		return
	}
	snap := s.snap.Clone()
	for _, fn := range s.subs {
		fn(snap)
	}
}
