// Package dashboard assembles the market overview screen: index quotes,
// mover lists, and the listing calendar. The sections load in parallel and
// fail independently, so a dead upstream for one section never blanks the
// others. The news feed is paginated and owned by its own loader.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"marketdesk/internal/backend"
)

// SectionErrors records per-section load failures.
type SectionErrors struct {
	Indices error
	Movers  error
	IPOs    error
}

// Any reports whether at least one section failed.
func (e SectionErrors) Any() bool {
	return e.Indices != nil || e.Movers != nil || e.IPOs != nil
}

// AuthExpired reports whether any section failed because the credential was
// rejected. The caller routes that case to the sign-in screen instead of
// rendering partial data.
func (e SectionErrors) AuthExpired() bool {
	for _, err := range []error{e.Indices, e.Movers, e.IPOs} {
		if backend.IsAuthExpired(err) {
			return true
		}
	}
	return false
}

// Overview is one load of the market overview.
type Overview struct {
	Indices map[string]backend.IndexQuote
	Movers  backend.Movers
	IPOs    []backend.IPOEvent
	Errors  SectionErrors
}

// Aggregator loads overviews from the backend.
type Aggregator struct {
	client *backend.Client
	log    *slog.Logger
}

// NewAggregator builds an aggregator over the shared backend client.
func NewAggregator(client *backend.Client, log *slog.Logger) *Aggregator {
	return &Aggregator{client: client, log: log}
}

// Load fetches all sections concurrently. The returned overview always
// carries whatever sections succeeded; failures are reported per section.
func (a *Aggregator) Load(ctx context.Context) Overview {
	var ov Overview
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		ov.Indices, ov.Errors.Indices = a.client.MarketIndices(ctx)
	}()
	go func() {
		defer wg.Done()
		ov.Movers, ov.Errors.Movers = a.client.MarketMovers(ctx)
	}()
	go func() {
		defer wg.Done()
		ov.IPOs, ov.Errors.IPOs = a.client.IPOCalendar(ctx)
	}()
	wg.Wait()

	for name, err := range map[string]error{
		"indices": ov.Errors.Indices,
		"movers":  ov.Errors.Movers,
		"ipos":    ov.Errors.IPOs,
	} {
		if err != nil {
			a.log.Warn("overview section failed", "section", name, "error", err)
		}
	}
	return ov
}

// indexOrder pins the well-known benchmarks to the top of the table. Names
// the service adds later sort alphabetically below them.
var indexOrder = map[string]int{
	"S&P 500":      0,
	"Dow Jones":    1,
	"Nasdaq":       2,
	"Russell 2000": 3,
}

// SortedIndexNames returns index display names in presentation order.
func SortedIndexNames(indices map[string]backend.IndexQuote) []string {
	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := indexOrder[names[i]]
		oj, jok := indexOrder[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok:
			return true
		case jok:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names
}
