package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "playdeck_session"

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	stateTTL          = 10 * time.Minute
)

// Session is an authenticated browser session with its own provider client.
type Session struct {
	ID        string
	Token     *oauth2.Token
	Client    services.Service
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore keeps sessions and pending OAuth states in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	states   map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a [SessionStore]. A non-positive ttl uses seven days.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		states:   make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session for token and client and returns it.
func (s *SessionStore) Create(token *oauth2.Token, client services.Service) *Session {
	now := s.now()
	session := &Session{
		ID:        shared.GenerateID(),
		Token:     token,
		Client:    client,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns the session with id. Expired sessions are removed and reported as missing.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.now().After(session.ExpiresAt) {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

// Delete removes the session with id.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// NewState generates and remembers an OAuth state value.
func (s *SessionStore) NewState() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.states[state] = s.now().Add(stateTTL)
	s.mu.Unlock()
	return state, nil
}

// ConsumeState reports whether state was issued and is unexpired. A state can be consumed once.
func (s *SessionStore) ConsumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return s.now().Before(expires)
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session attached by the [Sessions] middleware, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok && session != nil
}

func setSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
