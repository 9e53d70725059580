package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"marketdesk/internal/session"
	"marketdesk/internal/store"
)

func newTestSession(t *testing.T) *session.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	sess, err := session.NewStore(st)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	return sess
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sess := newTestSession(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(srv.URL, 5*time.Second, sess, log), sess
}

func TestLoginSendsFormEncodedCredentials(t *testing.T) {
	var gotContentType, gotUser, gotPass string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotUser = r.PostFormValue("username")
		gotPass = r.PostFormValue("password")
		json.NewEncoder(w).Encode(Token{AccessToken: "tok-1", TokenType: "bearer"})
	}))

	tok, err := c.Login(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.AccessToken != "tok-1" {
		t.Errorf("access token = %q, want tok-1", tok.AccessToken)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotUser != "alice@example.com" || gotPass != "secret" {
		t.Errorf("credentials = %q / %q", gotUser, gotPass)
	}
}

func TestLoginValidatesInputLocally(t *testing.T) {
	called := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.Login(context.Background(), "", "secret")
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if called {
		t.Error("empty username must not reach the server")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `["AAPL","TSLA"]`)
	}))
	if err := sess.SetToken("tok-2"); err != nil {
		t.Fatal(err)
	}

	syms, err := c.Watchlist(context.Background())
	if err != nil {
		t.Fatalf("watchlist: %v", err)
	}
	if gotAuth != "Bearer tok-2" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "TSLA" {
		t.Errorf("symbols = %v", syms)
	}
}

func TestUnauthorizedClearsSessionOnce(t *testing.T) {
	c, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}))
	if err := sess.SetToken("stale"); err != nil {
		t.Fatal(err)
	}
	_, events := sess.Subscribe()

	_, err := c.Watchlist(context.Background())
	if !IsAuthExpired(err) {
		t.Fatalf("err = %v, want auth expired", err)
	}
	if sess.Authenticated() {
		t.Error("session must be cleared after 401")
	}

	select {
	case evt := <-events:
		if evt.Authenticated || evt.Reason != session.ReasonExpired {
			t.Errorf("event = %+v, want expiry", evt)
		}
	default:
		t.Fatal("expected a session expiry event")
	}

	// A second 401 against the now-anonymous session stays silent.
	if _, err := c.Watchlist(context.Background()); !IsAuthExpired(err) {
		t.Fatalf("second call err = %v, want auth expired", err)
	}
	select {
	case evt := <-events:
		t.Errorf("unexpected second event %+v", evt)
	default:
	}
}

func TestRejectedCarriesServerDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Email already registered"}`)
	}))

	err := c.Register(context.Background(), "bob@example.com", "pw")
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *backend.Error", err)
	}
	if be.Kind != KindRejected || be.Status != http.StatusBadRequest {
		t.Errorf("kind=%v status=%d", be.Kind, be.Status)
	}
	if be.Message != "Email already registered" {
		t.Errorf("message = %q", be.Message)
	}
}

func TestNetworkFailureClassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore
	sess := newTestSession(t)
	c := New(srv.URL, time.Second, sess, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.MarketIndices(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestMarketInfoQueryAndDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market-info/MSFT" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("period"); got != "6mo" {
			t.Errorf("period = %q", got)
		}
		io.WriteString(w, `{"symbol":"MSFT","name":"Microsoft Corporation","price":430.5,
			"change":-2.1,"change_percent":-0.49,"volume":18000000,"avg_volume_3m":21000000,
			"market_cap":"3.2T","price_history":[420,425,430.5],
			"timestamps":["2026-03-02","2026-03-03","2026-03-04"],"period":"6mo"}`)
	}))

	q, err := c.MarketInfo(context.Background(), "MSFT", "6mo")
	if err != nil {
		t.Fatalf("market info: %v", err)
	}
	if q.Name != "Microsoft Corporation" || q.MarketCap != "3.2T" {
		t.Errorf("quote = %+v", q)
	}
	if len(q.PriceHistory) != 3 || q.PriceHistory[2] != 430.5 {
		t.Errorf("history = %v", q.PriceHistory)
	}
}

func TestSaveWatchlistSendsJSONBody(t *testing.T) {
	var got watchlistBody
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/watchlist" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"message":"ok"}`)
	}))

	if err := c.SaveWatchlist(context.Background(), []string{"AAPL", "TSLA"}); err != nil {
		t.Fatalf("save watchlist: %v", err)
	}
	if len(got.Symbols) != 2 || got.Symbols[1] != "TSLA" {
		t.Errorf("symbols = %v", got.Symbols)
	}
}

func TestIPOCalendarUnwrapsEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ipoCalendar":[{"date":"2026-09-10","exchange":"NASDAQ",
			"name":"Acme Robotics","numberOfShares":5000000,"price":"18.00-21.00",
			"status":"expected","symbol":"ACME","totalSharesValue":105000000}]}`)
	}))

	events, err := c.IPOCalendar(context.Background())
	if err != nil {
		t.Fatalf("ipo calendar: %v", err)
	}
	if len(events) != 1 || events[0].Symbol != "ACME" || events[0].Status != "expected" {
		t.Errorf("events = %+v", events)
	}
}
