// Package newsfeed provides incremental loading for the paged feeds: the
// general market news stream and the per-symbol scored article stream. Pages
// are appended as the user asks for more; switching the feed's subject
// resets the accumulated items and invalidates any fetch still in flight.
package newsfeed

import (
	"context"
	"sync"
)

// Page is one fetched page of items plus the paging cursor that came with it.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalItems  int
}

// FetchFunc retrieves one page, numbered from 1.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Loader accumulates pages of T. It is safe for concurrent use. Loads are
// single-flight: a LoadMore issued while another is running is refused, and
// a result fetched before a Reset is discarded.
type Loader[T any] struct {
	mu          sync.Mutex
	fetch       FetchFunc[T]
	items       []T
	currentPage int
	totalPages  int
	totalItems  int
	epoch       int
	inFlight    bool
}

// NewLoader builds an empty loader around a fetch function. Before the first
// LoadMore the loader reports one page available so the initial load fires.
func NewLoader[T any](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch, totalPages: 1}
}

// Items returns a copy of everything loaded so far.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// HasMore reports whether another page is available.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPage < l.totalPages
}

// Loading reports whether a fetch is in flight.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// TotalItems returns the feed size reported by the last fetched page.
func (l *Loader[T]) TotalItems() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalItems
}

// Reset discards accumulated items and swaps the fetch function, typically
// because the feed's subject changed. Any fetch still in flight will have
// its result dropped.
func (l *Loader[T]) Reset(fetch FetchFunc[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetch = fetch
	l.items = nil
	l.currentPage = 0
	l.totalPages = 1
	l.totalItems = 0
	l.epoch++
	l.inFlight = false
}

// LoadMore fetches the next page and appends it. It returns (false, nil)
// without fetching when no page remains or a fetch is already running. On
// fetch failure nothing is appended and the same page can be retried.
func (l *Loader[T]) LoadMore(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.inFlight || l.currentPage >= l.totalPages {
		l.mu.Unlock()
		return false, nil
	}
	l.inFlight = true
	epoch := l.epoch
	next := l.currentPage + 1
	fetch := l.fetch
	l.mu.Unlock()

	page, err := fetch(ctx, next)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		// The feed was reset while we were fetching; drop the result.
		return false, nil
	}
	l.inFlight = false
	if err != nil {
		return false, err
	}
	l.items = append(l.items, page.Items...)
	l.currentPage = page.CurrentPage
	l.totalPages = page.TotalPages
	l.totalItems = page.TotalItems
	return true, nil
}
