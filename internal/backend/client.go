// Package backend is the HTTP gateway to the dashboard data service. All
// remote calls in the application go through a single Client, which attaches
// the bearer credential, classifies failures, and retires the session when
// the service rejects the token.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdesk/internal/session"
	"marketdesk/internal/util"
)

// researchPerMinute caps calls to the expensive endpoints: sentiment scoring
// and price forecasting both run models server-side.
const researchPerMinute = 10

// Client is the shared gateway to the data service. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Store
	log        *slog.Logger
	research   *util.RateLimiter
}

// New creates a backend client. The session store supplies the bearer token
// on each call and is cleared when the service answers 401.
func New(baseURL string, timeout time.Duration, sess *session.Store, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		log:        log,
		research:   util.NewRateLimiter(researchPerMinute),
	}
}

// Login exchanges credentials for a bearer token. The token is not stored;
// the caller decides whether to persist it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Token{}, NewValidation("username and password are required")
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.send(req, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Register creates a new account. A duplicate email surfaces as KindRejected
// with the service's detail message.
func (c *Client) Register(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return NewValidation("email and password are required")
	}
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/register", nil, body, nil)
}

// MarketIndices returns the tracked index quotes keyed by display name.
func (c *Client) MarketIndices(ctx context.Context) (map[string]IndexQuote, error) {
	var out map[string]IndexQuote
	if err := c.do(ctx, http.MethodGet, "/market-indices", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketMovers returns the top gainers, losers, and most active lists.
func (c *Client) MarketMovers(ctx context.Context) (Movers, error) {
	var out Movers
	err := c.do(ctx, http.MethodGet, "/market-movers", nil, nil, &out)
	return out, err
}

// MarketNews returns one page of general market headlines. Pages start at 1.
func (c *Client) MarketNews(ctx context.Context, page int) (NewsPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	var out NewsPage
	err := c.do(ctx, http.MethodGet, "/market-news", q, nil, &out)
	return out, err
}

// IPOCalendar returns the recent and upcoming listing events.
func (c *Client) IPOCalendar(ctx context.Context) ([]IPOEvent, error) {
	var out ipoCalendar
	if err := c.do(ctx, http.MethodGet, "/ipo-calendar", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.IPOCalendar, nil
}

// Watchlist returns the signed-in user's saved symbols. The endpoint
// responds with a bare JSON array rather than the wrapped body the PUT
// side accepts.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/watchlist", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveWatchlist replaces the user's saved symbols with the given set.
func (c *Client) SaveWatchlist(ctx context.Context, symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	return c.do(ctx, http.MethodPut, "/watchlist", nil, watchlistBody{Symbols: symbols}, nil)
}

// WatchlistNames returns the saved symbols with their display names.
func (c *Client) WatchlistNames(ctx context.Context) ([]WatchlistEntry, error) {
	var out []WatchlistEntry
	if err := c.do(ctx, http.MethodGet, "/watchlist_name", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketInfo returns the quote and price history for one symbol over the
// given period.
func (c *Client) MarketInfo(ctx context.Context, symbol, period string) (Quote, error) {
	q := url.Values{}
	q.Set("period", period)
	var out Quote
	err := c.do(ctx, http.MethodGet, "/market-info/"+url.PathEscape(symbol), q, nil, &out)
	return out, err
}

// CompanyInfo returns the profile and financial statements for one symbol.
func (c *Client) CompanyInfo(ctx context.Context, symbol string) (CompanyProfile, error) {
	var out CompanyProfile
	err := c.do(ctx, http.MethodGet, "/company-info/"+url.PathEscape(symbol), nil, nil, &out)
	return out, err
}

// NewsSentiment returns per-day article sentiment counts for one symbol over
// the trailing daysAgo days.
func (c *Client) NewsSentiment(ctx context.Context, symbol string, daysAgo int) (SentimentSeries, error) {
	var out SentimentSeries
	if err := c.research.Wait(ctx); err != nil {
		return out, &Error{Kind: KindNetwork, Err: err}
	}
	p := fmt.Sprintf("/news-sentiment/%s/%d", url.PathEscape(symbol), daysAgo)
	err := c.do(ctx, http.MethodGet, p, nil, nil, &out)
	return out, err
}

// NewsArticles returns one page of scored articles for one symbol. Pages
// start at 1.
func (c *Client) NewsArticles(ctx context.Context, symbol string, daysAgo, page int) (ArticlePage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	var out ArticlePage
	p := fmt.Sprintf("/news-articles/%s/%d", url.PathEscape(symbol), daysAgo)
	err := c.do(ctx, http.MethodGet, p, q, nil, &out)
	return out, err
}

// Predict returns the model price forecast for one symbol.
func (c *Client) Predict(ctx context.Context, symbol string) (Prediction, error) {
	var out Prediction
	if err := c.research.Wait(ctx); err != nil {
		return out, &Error{Kind: KindNetwork, Err: err}
	}
	err := c.do(ctx, http.MethodGet, "/predict-using-gru/"+url.PathEscape(symbol), nil, nil, &out)
	return out, err
}

// do performs a JSON request against the service. body, if non-nil, is
// marshaled as the JSON request body; out, if non-nil, receives the decoded
// response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "encode request", Err: err}
		}
		rd = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes a prepared request, attaching the bearer token when one is
// present, and classifies the outcome.
func (c *Client) send(req *http.Request, out any) error {
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend unreachable", "method", req.Method, "url", req.URL.Path, "error", err)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Info("credential rejected, clearing session", "url", req.URL.Path)
		c.session.Clear(session.ReasonExpired)
		return &Error{Kind: KindAuthExpired, Status: resp.StatusCode, Message: errorDetail(resp.Body)}
	}
	if resp.StatusCode >= 400 {
		msg := errorDetail(resp.Body)
		c.log.Warn("backend rejected request",
			"method", req.Method, "url", req.URL.Path, "status", resp.StatusCode, "detail", msg)
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// errorDetail extracts the service's {"detail": ...} message from an error
// body, tolerating non-JSON and structured detail payloads.
func errorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	return string(body.Detail)
}
