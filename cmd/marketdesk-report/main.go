// marketdesk-report prints a one-shot snapshot of the market overview, and
// optionally the saved watchlist, to stdout. It reuses the session persisted
// by the interactive client; run that first to sign in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"marketdesk/internal/backend"
	"marketdesk/internal/config"
	"marketdesk/internal/dashboard"
	"marketdesk/internal/session"
	"marketdesk/internal/store"
	"marketdesk/internal/util"
	"marketdesk/internal/watchlist"
)

func main() {
	configPath := flag.String("config", "marketdesk.yaml", "path to configuration file")
	withWatchlist := flag.Bool("watchlist", false, "include the saved watchlist")
	newsCount := flag.Int("news", 5, "number of headlines to print")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := util.NewLogger(os.Stderr, "warn")

	st, err := store.Open(cfg.Storage.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening state store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	sess, err := session.NewStore(st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restoring session: %v\n", err)
		os.Exit(1)
	}
	client := backend.New(cfg.API.BaseURL, cfg.API.Timeout.Std(), sess, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Without a saved session, fall back to credentials from the environment
	// so the command works in cron jobs.
	if !sess.Authenticated() {
		email := os.Getenv("MARKETDESK_EMAIL")
		password := os.Getenv("MARKETDESK_PASSWORD")
		if email == "" || password == "" {
			fmt.Fprintln(os.Stderr, "no saved session; sign in with the marketdesk client"+
				" or set MARKETDESK_EMAIL and MARKETDESK_PASSWORD")
			os.Exit(1)
		}
		tok, err := client.Login(ctx, email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "signing in: %v\n", err)
			os.Exit(1)
		}
		if err := sess.SetToken(tok.AccessToken); err != nil {
			fmt.Fprintf(os.Stderr, "storing session: %v\n", err)
			os.Exit(1)
		}
	}

	ov := dashboard.NewAggregator(client, logger).Load(ctx)
	if ov.Errors.AuthExpired() {
		fmt.Fprintln(os.Stderr, "saved session expired; sign in with the marketdesk client again")
		os.Exit(1)
	}
	news, newsErr := client.MarketNews(ctx, 1)

	printOverview(ov, news, newsErr, *newsCount)

	if *withWatchlist {
		ctrl := watchlist.New(client, logger)
		if err := ctrl.Load(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "loading watchlist: %v\n", err)
			os.Exit(1)
		}
		printWatchlist(ctrl)
	}
}

func printOverview(ov dashboard.Overview, news backend.NewsPage, newsErr error, newsCount int) {
	fmt.Println("MARKET INDICES")
	if ov.Errors.Indices != nil {
		fmt.Printf("  error: %v\n", ov.Errors.Indices)
	}
	for _, name := range dashboard.SortedIndexNames(ov.Indices) {
		q := ov.Indices[name]
		fmt.Printf("  %-14s %12s %22s\n", name,
			dashboard.FormatPrice(q.Price), dashboard.FormatChange(q.Change, q.ChangePercent))
	}

	fmt.Println("\nMARKET MOVERS")
	if ov.Errors.Movers != nil {
		fmt.Printf("  error: %v\n", ov.Errors.Movers)
	}
	printMovers("gainers", ov.Movers.TopGainers)
	printMovers("losers", ov.Movers.TopLosers)
	printMovers("active", ov.Movers.MostActive)

	fmt.Println("\nIPO CALENDAR")
	if ov.Errors.IPOs != nil {
		fmt.Printf("  error: %v\n", ov.Errors.IPOs)
	}
	for _, ev := range ov.IPOs {
		fmt.Printf("  %-12s %-8s %-32s %-10s %12s %10s\n",
			ev.Date, ev.Symbol, ev.Name, ev.Status, ev.Price, dashboard.FormatShares(ev.NumberOfShares))
	}

	fmt.Println("\nNEWS")
	if newsErr != nil {
		fmt.Printf("  error: %v\n", newsErr)
	}
	for i, n := range news.News {
		if i >= newsCount {
			break
		}
		ts := time.Unix(n.Datetime, 0).UTC().Format("2006-01-02 15:04")
		fmt.Printf("  %s  %s (%s)\n", ts, n.Headline, n.Source)
	}
}

func printMovers(label string, movers []backend.Mover) {
	fmt.Printf("  %s:\n", label)
	for i, mv := range movers {
		if i >= 5 {
			break
		}
		fmt.Printf("    %-8s %10s %10s %10s %12s\n",
			mv.Ticker, mv.Price, mv.ChangeAmount, mv.ChangePercentage, mv.Volume)
	}
}

func printWatchlist(ctrl *watchlist.Controller) {
	fmt.Println("\nWATCHLIST")
	for _, e := range ctrl.Entries() {
		q, ok := ctrl.Quote(e.Symbol)
		if !ok {
			fmt.Printf("  %-8s %-30s %10s\n", e.Symbol, e.Name, "—")
			continue
		}
		fmt.Printf("  %-8s %-30s %10s %22s %10s\n",
			e.Symbol, e.Name, dashboard.FormatPrice(q.Price),
			dashboard.FormatChange(q.Change, q.ChangePercent), dashboard.FormatVolume(q.Volume))
	}
}
