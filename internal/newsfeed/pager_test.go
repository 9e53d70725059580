package newsfeed

import (
	"context"
	"errors"
	"testing"
)

// pages builds a fetch function over a fixed set of pages.
func pages(ps ...[]string) FetchFunc[string] {
	total := 0
	for _, p := range ps {
		total += len(p)
	}
	return func(_ context.Context, page int) (Page[string], error) {
		if page < 1 || page > len(ps) {
			return Page[string]{}, errors.New("page out of range")
		}
		return Page[string]{
			Items:       ps[page-1],
			CurrentPage: page,
			TotalPages:  len(ps),
			TotalItems:  total,
		}, nil
	}
}

func TestLoadMoreAppendsPages(t *testing.T) {
	l := NewLoader(pages([]string{"a", "b"}, []string{"c"}))
	ctx := context.Background()

	if !l.HasMore() {
		t.Fatal("fresh loader must report a page available")
	}
	if ok, err := l.LoadMore(ctx); !ok || err != nil {
		t.Fatalf("first load: ok=%v err=%v", ok, err)
	}
	if got := l.Items(); len(got) != 2 || got[0] != "a" {
		t.Errorf("items = %v", got)
	}
	if !l.HasMore() {
		t.Error("one of two pages loaded, more must remain")
	}

	if ok, err := l.LoadMore(ctx); !ok || err != nil {
		t.Fatalf("second load: ok=%v err=%v", ok, err)
	}
	if got := l.Items(); len(got) != 3 || got[2] != "c" {
		t.Errorf("items = %v", got)
	}
	if l.HasMore() {
		t.Error("all pages loaded, none must remain")
	}
	if l.TotalItems() != 3 {
		t.Errorf("total items = %d", l.TotalItems())
	}

	// A further load is refused without touching the fetch function.
	if ok, err := l.LoadMore(ctx); ok || err != nil {
		t.Errorf("exhausted load: ok=%v err=%v", ok, err)
	}
}

func TestLoadMoreFailureIsRetryable(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, page int) (Page[string], error) {
		calls++
		if calls == 1 {
			return Page[string]{}, errors.New("backend down")
		}
		return Page[string]{Items: []string{"x"}, CurrentPage: page, TotalPages: 1, TotalItems: 1}, nil
	}
	l := NewLoader(fetch)
	ctx := context.Background()

	if _, err := l.LoadMore(ctx); err == nil {
		t.Fatal("expected first load to fail")
	}
	if len(l.Items()) != 0 {
		t.Error("failed load must not append items")
	}
	if ok, err := l.LoadMore(ctx); !ok || err != nil {
		t.Fatalf("retry: ok=%v err=%v", ok, err)
	}
	if got := l.Items(); len(got) != 1 || got[0] != "x" {
		t.Errorf("items = %v", got)
	}
}

func TestResetDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(_ context.Context, page int) (Page[string], error) {
		close(started)
		<-release
		return Page[string]{Items: []string{"stale"}, CurrentPage: page, TotalPages: 2, TotalItems: 2}, nil
	}
	l := NewLoader(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.LoadMore(context.Background())
	}()
	<-started

	l.Reset(pages([]string{"fresh"}))
	close(release)
	<-done

	if got := l.Items(); len(got) != 0 {
		t.Fatalf("stale page leaked into reset loader: %v", got)
	}
	if ok, err := l.LoadMore(context.Background()); !ok || err != nil {
		t.Fatalf("post-reset load: ok=%v err=%v", ok, err)
	}
	if got := l.Items(); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("items = %v", got)
	}
}

func TestLoadMoreSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(_ context.Context, page int) (Page[string], error) {
		close(started)
		<-release
		return Page[string]{Items: []string{"a"}, CurrentPage: page, TotalPages: 1, TotalItems: 1}, nil
	}
	l := NewLoader(slow)

	go l.LoadMore(context.Background())
	<-started

	if !l.Loading() {
		t.Error("loader must report an in-flight fetch")
	}
	if ok, err := l.LoadMore(context.Background()); ok || err != nil {
		t.Errorf("concurrent load must be refused, got ok=%v err=%v", ok, err)
	}
	close(release)
}
