package session

import (
	"path/filepath"
	"testing"

	"marketdesk/internal/store"
)

func newTestStore(t *testing.T) (*Store, *store.StateStore) {
	t.Helper()
	state, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("opening state store: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	s, err := NewStore(state)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, state
}

func TestSetTokenAndClear(t *testing.T) {
	s, _ := newTestStore(t)

	if s.Authenticated() {
		t.Fatal("fresh store should be anonymous")
	}

	if err := s.SetToken("tok-abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if !s.Authenticated() {
		t.Error("Authenticated() = false after SetToken")
	}
	if s.Token() != "tok-abc" {
		t.Errorf("Token() = %q, want %q", s.Token(), "tok-abc")
	}

	if err := s.Clear(ReasonLogout); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Authenticated() {
		t.Error("Authenticated() = true after Clear")
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SetToken(""); err == nil {
		t.Error("SetToken(\"\") should fail")
	}
}

func TestTokenPersistsAcrossRestart(t *testing.T) {
	state, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("opening state store: %v", err)
	}
	defer state.Close()

	first, err := NewStore(state)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := first.SetToken("tok-persisted"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	// A second store over the same database restores the token.
	second, err := NewStore(state)
	if err != nil {
		t.Fatalf("NewStore (restart): %v", err)
	}
	if second.Token() != "tok-persisted" {
		t.Errorf("restored Token() = %q, want %q", second.Token(), "tok-persisted")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s, _ := newTestStore(t)

	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	if err := s.SetToken("tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	evt := <-ch
	if !evt.Authenticated {
		t.Error("login event should report Authenticated=true")
	}

	if err := s.Clear(ReasonExpired); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	evt = <-ch
	if evt.Authenticated {
		t.Error("expiry event should report Authenticated=false")
	}
	if evt.Reason != ReasonExpired {
		t.Errorf("Reason = %v, want ReasonExpired", evt.Reason)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SetToken("tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	if err := s.Clear(ReasonExpired); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	// Second clear is a no-op: no second event.
	if err := s.Clear(ReasonExpired); err != nil {
		t.Fatalf("Clear (repeat): %v", err)
	}

	<-ch // the single expiry event
	select {
	case evt := <-ch:
		t.Errorf("unexpected second event: %+v", evt)
	default:
	}
}
