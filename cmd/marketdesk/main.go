package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"marketdesk/internal/backend"
	"marketdesk/internal/config"
	"marketdesk/internal/dashboard"
	"marketdesk/internal/session"
	"marketdesk/internal/store"
	"marketdesk/internal/ui"
	"marketdesk/internal/util"
	"marketdesk/internal/watchlist"
)

func main() {
	configPath := flag.String("config", "marketdesk.yaml", "path to configuration file")
	flag.Parse()

	// A .env next to the binary is convenient in development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a rotated file.
	logger := util.NewLogger(&lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}, cfg.Logging.Level)

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
	ctrl := watchlist.New(client, logger)
	refresher := watchlist.NewRefresher(ctrl, cfg.Refresh.Interval.Std(), logger)
	defer refresher.Stop()

	logger.Info("starting", "api", cfg.API.BaseURL, "state", cfg.Storage.StatePath,
		"authenticated", sess.Authenticated())

	err = ui.Run(ui.Deps{
		Log:           logger,
		Session:       sess,
		Client:        client,
		Aggregator:    dashboard.NewAggregator(client, logger),
		Watchlist:     ctrl,
		Refresher:     refresher,
		SentimentDays: cfg.Sentiment.DaysAgo,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
