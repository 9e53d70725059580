package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestStateStoreRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(KeySessionToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Set(KeySessionToken, "tok-1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := s.Get(KeySessionToken)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "tok-1" {
		t.Errorf("Get = %q, want %q", got, "tok-1")
	}

	// Replacing an existing key keeps a single row.
	if err := s.Set(KeySessionToken, "tok-2"); err != nil {
		t.Fatalf("Set (replace) returned error: %v", err)
	}
	got, _ = s.Get(KeySessionToken)
	if got != "tok-2" {
		t.Errorf("Get after replace = %q, want %q", got, "tok-2")
	}

	if err := s.Delete(KeySessionToken); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := s.Get(KeySessionToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

func TestStateStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open with nested path returned error: %v", err)
	}
	defer s.Close()

	if err := s.Set("k", "v"); err != nil {
		t.Errorf("Set returned error: %v", err)
	}
}
