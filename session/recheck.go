package session

import (
	"context"
	"log/slog"
	"time"
)

// VerifyFunc is the predicate used to re-check a cookie upstream.
type VerifyFunc func(ctx context.Context, cookie string) bool

// Rechecker periodically re-validates the held session cookie against the
// upstream and reports the outcome. It observes only: a failed re-check is
// logged, never acted on, since recovery requires an operator-driven login.
type Rechecker struct {
	holder   *Holder
	verify   VerifyFunc
	interval time.Duration
	logger   *slog.Logger
	onResult func(ok bool)
}

// NewRechecker builds a Rechecker. onResult may be nil.
func NewRechecker(holder *Holder, verify VerifyFunc, interval time.Duration, logger *slog.Logger, onResult func(ok bool)) *Rechecker {
	return &Rechecker{
		holder:   holder,
		verify:   verify,
		interval: interval,
		logger:   logger.With("component", "recheck"),
		onResult: onResult,
	}
}

// Run blocks until ctx is done, re-checking on every interval tick.
func (r *Rechecker) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkOnce(ctx)
		}
	}
}

func (r *Rechecker) checkOnce(ctx context.Context) {
	rec, err := r.holder.Current()
	if err != nil {
		r.logger.Warn("re-check skipped, no session held")
		return
	}
	ok := r.verify(ctx, rec.Cookie)
	if ok {
		r.logger.Info("session re-check passed", "user_id", rec.UserID)
	} else {
		r.logger.Warn("session re-check failed, reconnection required", "user_id", rec.UserID)
	}
	if r.onResult != nil {
		r.onResult(ok)
	}
}
