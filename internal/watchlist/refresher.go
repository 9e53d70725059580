package watchlist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"marketdesk/internal/util"
)

// Refresher re-fetches watchlist quotes on a fixed schedule while the
// watchlist view is on screen. It is started when the view gains focus and
// stopped when it loses it.
type Refresher struct {
	ctrl     *Controller
	interval time.Duration
	log      *slog.Logger

	cron *cron.Cron
}

// NewRefresher builds a stopped refresher.
func NewRefresher(ctrl *Controller, interval time.Duration, log *slog.Logger) *Refresher {
	return &Refresher{ctrl: ctrl, interval: interval, log: log}
}

// Start begins periodic refreshing. Starting an already running refresher is
// a no-op.
func (r *Refresher) Start() {
	if r.cron != nil {
		return
	}
	r.cron = cron.New()
	spec := fmt.Sprintf("@every %s", r.interval)
	_, err := r.cron.AddFunc(spec, r.tick)
	if err != nil {
		// Only possible with a malformed interval; fall back to doing nothing.
		r.log.Error("refresh schedule rejected", "spec", spec, "error", err)
		r.cron = nil
		return
	}
	r.cron.Start()
	r.log.Debug("quote refresher started", "interval", r.interval)
}

// Stop halts periodic refreshing. A tick already in flight finishes.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	r.cron.Stop()
	r.cron = nil
	r.log.Debug("quote refresher stopped")
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		return r.ctrl.RefreshQuotes(ctx)
	})
	if err != nil {
		r.log.Warn("scheduled quote refresh failed", "error", err)
	}
}
