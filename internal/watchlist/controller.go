// Package watchlist maintains the signed-in user's tracked symbols: the
// server-persisted symbol set, cached per-symbol quotes, the chart selection
// with its period, and the comparison set. The server copy is the source of
// truth; every mutation is written first and reflected locally only after
// the write succeeds.
package watchlist

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"marketdesk/internal/backend"
)

// Period selects the span of price history shown in the chart.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period6Mo Period = "6mo"
	PeriodYTD Period = "ytd"
	Period1Y  Period = "1y"
	Period5Y  Period = "5y"
)

// Periods lists the selectable spans in display order.
var Periods = []Period{Period1D, Period5D, Period1Mo, Period6Mo, PeriodYTD, Period1Y, Period5Y}

// quotePeriod is the fixed span for table quotes. The server derives change
// and change_percent from the first sample of the requested span, so the
// table always asks for one day regardless of the chart period.
const quotePeriod = Period1D

// ParsePeriod validates a raw period string.
func ParsePeriod(s string) (Period, bool) {
	for _, p := range Periods {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// Normalize canonicalizes raw symbol input. The empty string means the input
// was not a plausible ticker.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(s) {
		return ""
	}
	return s
}

// Event is emitted to subscribers when the quote cache changes.
type Event struct {
	Symbols []string // symbols whose quotes were updated
}

// ChartRequest captures what the chart needs to show at the moment it was
// issued. The generation ties the eventual result back to the state that
// requested it.
type ChartRequest struct {
	Gen     int
	Period  Period
	Symbols []string
}

// ChartResult carries fetched histories back to the controller.
type ChartResult struct {
	Gen    int
	Period Period
	Quotes []backend.Quote
}

// Controller owns the watchlist state. It is safe for concurrent use; chart
// fetches run outside the lock and results are applied only when no newer
// request has superseded them.
type Controller struct {
	client *backend.Client
	log    *slog.Logger

	mu       sync.RWMutex
	entries  []backend.WatchlistEntry
	quotes   map[string]backend.Quote
	selected string
	compare  []string // ordered, drives chart color assignment
	period   Period
	chartGen int
	chart    ChartResult // last applied result

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// New creates an empty controller. Call Load to populate it from the server.
func New(client *backend.Client, log *slog.Logger) *Controller {
	return &Controller{
		client: client,
		log:    log,
		quotes: make(map[string]backend.Quote),
		period: Period1Mo,
		subs:   make(map[int]chan Event),
	}
}

// Load replaces local state with the server's watchlist and refreshes the
// quote cache. The first symbol becomes the chart selection.
func (c *Controller) Load(ctx context.Context) error {
	return c.reload(ctx, true)
}

func (c *Controller) reload(ctx context.Context, autoSelect bool) error {
	entries, err := c.client.WatchlistNames(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = entries
	if !c.hasSymbolLocked(c.selected) {
		c.selected = ""
		if autoSelect && len(entries) > 0 {
			c.selected = entries[0].Symbol
		}
	}
	c.pruneCompareLocked()
	c.chartGen++
	c.mu.Unlock()

	return c.RefreshQuotes(ctx)
}

// Entries returns a copy of the watchlist rows in server order.
func (c *Controller) Entries() []backend.WatchlistEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]backend.WatchlistEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Quote returns the cached quote for a symbol.
func (c *Controller) Quote(symbol string) (backend.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// Selected returns the chart selection, or "" when the list is empty.
func (c *Controller) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Period returns the active chart span.
func (c *Controller) Period() Period {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.period
}

// AddSymbol validates and persists a new symbol, then reflects it locally.
// The symbol list the server saw is re-read so display names stay
// authoritative.
func (c *Controller) AddSymbol(ctx context.Context, raw string) error {
	sym := Normalize(raw)
	if sym == "" {
		return backend.NewValidation("symbol must be 1-10 letters, digits, dots or dashes")
	}

	c.mu.RLock()
	if c.hasSymbolLocked(sym) {
		c.mu.RUnlock()
		return backend.NewValidation(sym + " is already on the watchlist")
	}
	symbols := c.symbolsLocked()
	c.mu.RUnlock()

	if err := c.client.SaveWatchlist(ctx, append(symbols, sym)); err != nil {
		return err
	}
	c.log.Info("watchlist symbol added", "symbol", sym)
	return c.Load(ctx)
}

// RemoveSymbol persists the removal, then reflects it locally. Removing the
// selection leaves the selection empty rather than jumping to another symbol
// the user never picked; the comparison set drops the symbol as well.
func (c *Controller) RemoveSymbol(ctx context.Context, symbol string) error {
	c.mu.RLock()
	if !c.hasSymbolLocked(symbol) {
		c.mu.RUnlock()
		return backend.NewValidation(symbol + " is not on the watchlist")
	}
	symbols := c.symbolsLocked()
	wasSelected := c.selected == symbol
	c.mu.RUnlock()

	kept := symbols[:0]
	for _, s := range symbols {
		if s != symbol {
			kept = append(kept, s)
		}
	}
	if err := c.client.SaveWatchlist(ctx, kept); err != nil {
		return err
	}
	c.log.Info("watchlist symbol removed", "symbol", symbol)
	return c.reload(ctx, !wasSelected)
}

// Select moves the chart selection and leaves comparison mode, returning
// the chart to a single raw-price line.
func (c *Controller) Select(symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSymbolLocked(symbol) {
		return backend.NewValidation(symbol + " is not on the watchlist")
	}
	if c.selected == symbol && c.compare == nil {
		return nil
	}
	c.selected = symbol
	c.compare = nil
	c.chartGen++
	return nil
}

// AddToCompare puts a symbol in the comparison set. The first add pulls the
// current selection in as well, so the line already on screen stays there.
// Adding a member twice is a no-op.
func (c *Controller) AddToCompare(symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSymbolLocked(symbol) {
		return backend.NewValidation(symbol + " is not on the watchlist")
	}
	for _, s := range c.compare {
		if s == symbol {
			return nil
		}
	}
	if c.compare == nil && c.selected != "" && c.selected != symbol {
		c.compare = []string{c.selected}
	}
	c.compare = append(c.compare, symbol)
	if len(c.compare) < 2 {
		c.compare = nil
		return nil
	}
	c.chartGen++
	return nil
}

// RemoveFromCompare drops a symbol from the comparison set. A comparison of
// fewer than two symbols is meaningless, so dropping to one member dissolves
// the set and the survivor becomes the single selection.
func (c *Controller) RemoveFromCompare(symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.compare {
		if s != symbol {
			continue
		}
		c.compare = append(c.compare[:i], c.compare[i+1:]...)
		if len(c.compare) < 2 {
			if len(c.compare) == 1 {
				c.selected = c.compare[0]
			}
			c.compare = nil
		}
		c.chartGen++
		return nil
	}
	return nil
}

// ToggleCompare adds the symbol to the comparison set, or removes it when
// already present.
func (c *Controller) ToggleCompare(symbol string) error {
	c.mu.RLock()
	present := false
	for _, s := range c.compare {
		if s == symbol {
			present = true
			break
		}
	}
	c.mu.RUnlock()
	if present {
		return c.RemoveFromCompare(symbol)
	}
	return c.AddToCompare(symbol)
}

// CompareMode reports whether the chart is in comparison mode.
func (c *Controller) CompareMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.compare) >= 2
}

// CompareSymbols returns the comparison set in insertion order.
func (c *Controller) CompareSymbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.compare))
	copy(out, c.compare)
	return out
}

// SetPeriod changes the chart span. Re-selecting the active span is a no-op
// and does not invalidate an in-flight chart fetch.
func (c *Controller) SetPeriod(p Period) error {
	if _, ok := ParsePeriod(string(p)); !ok {
		return backend.NewValidation(string(p) + " is not a valid chart period")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.period == p {
		return nil
	}
	c.period = p
	c.chartGen++
	return nil
}

// ChartRequest snapshots what the chart should fetch right now. An empty
// symbol list means there is nothing to chart.
func (c *Controller) ChartRequest() ChartRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	req := ChartRequest{Gen: c.chartGen, Period: c.period}
	if len(c.compare) >= 2 {
		req.Symbols = append(req.Symbols, c.compare...)
	} else if c.selected != "" {
		req.Symbols = []string{c.selected}
	}
	return req
}

// FetchChart resolves a request against the backend. A failure on any symbol
// fails the whole fetch; partial comparisons would mislead.
func (c *Controller) FetchChart(ctx context.Context, req ChartRequest) (ChartResult, error) {
	res := ChartResult{Gen: req.Gen, Period: req.Period}
	for _, sym := range req.Symbols {
		q, err := c.client.MarketInfo(ctx, sym, string(req.Period))
		if err != nil {
			return ChartResult{}, err
		}
		res.Quotes = append(res.Quotes, q)
	}
	return res, nil
}

// ApplyChart installs a fetched result. Results from a superseded request
// are dropped; the caller learns via the return value whether the chart
// advanced. Chart quotes never touch the table cache, whose change figures
// are pinned to the daily span.
func (c *Controller) ApplyChart(res ChartResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if res.Gen != c.chartGen {
		c.log.Debug("dropping stale chart result", "got", res.Gen, "want", c.chartGen)
		return false
	}
	c.chart = res
	return true
}

// RefreshQuotes re-fetches the quote for every watched symbol at the fixed
// daily span, independent of the chart period. Individual symbol failures
// are logged and skipped so one bad ticker cannot blank the table.
func (c *Controller) RefreshQuotes(ctx context.Context) error {
	c.mu.RLock()
	symbols := c.symbolsLocked()
	c.mu.RUnlock()

	var updated []string
	var lastErr error
	for _, sym := range symbols {
		q, err := c.client.MarketInfo(ctx, sym, string(quotePeriod))
		if err != nil {
			if backend.IsAuthExpired(err) {
				return err
			}
			c.log.Warn("quote refresh failed", "symbol", sym, "error", err)
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.quotes[sym] = q
		c.mu.Unlock()
		updated = append(updated, sym)
	}

	if len(updated) > 0 {
		c.notify(Event{Symbols: updated})
	}
	if len(updated) == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// Subscribe registers for quote cache updates.
func (c *Controller) Subscribe() (int, <-chan Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Event, 4)
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Controller) Unsubscribe(id int) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if ch, ok := c.subs[id]; ok {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Controller) notify(evt Event) {
	c.subsMu.Lock()
	for _, ch := range c.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
	c.subsMu.Unlock()
}

// hasSymbolLocked and symbolsLocked require c.mu held (read or write).
func (c *Controller) hasSymbolLocked(symbol string) bool {
	for _, e := range c.entries {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}

func (c *Controller) symbolsLocked() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Symbol)
	}
	return out
}

func (c *Controller) pruneCompareLocked() {
	kept := c.compare[:0]
	for _, s := range c.compare {
		if c.hasSymbolLocked(s) {
			kept = append(kept, s)
		}
	}
	if len(kept) < 2 {
		kept = nil
	}
	c.compare = kept
}
