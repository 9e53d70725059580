// Package session holds the process-wide authentication state: a single
// opaque bearer token and whether a user is signed in. The token is the only
// piece of state that outlives a view; it is persisted in the local state
// store so a restart resumes the session.
package session

import (
	"errors"
	"sync"

	"marketdesk/internal/store"
)

// Reason describes why the session ended.
type Reason int

const (
	// ReasonLogout is a user-initiated sign-out.
	ReasonLogout Reason = iota
	// ReasonExpired means the backend rejected the token; the user must sign
	// in again.
	ReasonExpired
)

// Event is emitted to subscribers when the session state changes.
type Event struct {
	Authenticated bool
	Reason        Reason // meaningful only when Authenticated is false
}

// Store owns the session token. Only Store methods mutate it; the API
// gateway's unauthorized handler and the logout action are the only callers
// of Clear.
type Store struct {
	mu    sync.RWMutex
	token string
	state *store.StateStore

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// NewStore creates a session store backed by state, restoring any persisted
// token.
func NewStore(state *store.StateStore) (*Store, error) {
	s := &Store{
		state: state,
		subs:  make(map[int]chan Event),
	}
	tok, err := state.Get(store.KeySessionToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	s.token = tok
	return s, nil
}

// Token returns the current bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a session token is present.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// SetToken installs a new token after a successful login exchange, persists
// it, and notifies subscribers.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if err := s.state.Set(store.KeySessionToken, token); err != nil {
		return err
	}
	s.notify(Event{Authenticated: true})
	return nil
}

// Clear ends the session. It is idempotent: clearing an already-anonymous
// store persists nothing and emits no event, so an unauthorized response
// triggers exactly one forced navigation.
func (s *Store) Clear(reason Reason) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return nil
	}
	s.token = ""
	s.mu.Unlock()
	if err := s.state.Delete(store.KeySessionToken); err != nil {
		return err
	}
	s.notify(Event{Authenticated: false, Reason: reason})
	return nil
}

// Subscribe registers for session events. The returned id is passed to
// Unsubscribe. Events are delivered non-blocking; a slow subscriber misses
// events rather than stalling the store.
func (s *Store) Subscribe() (int, <-chan Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 4)
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(id int) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) notify(evt Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
}
