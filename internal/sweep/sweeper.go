// Package sweep periodically scans for participants with overdue
// obligations and raises notifications. The sweep is read-only; due dates
// move only when the corresponding form is recorded.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"reentry/internal/notify"
	"reentry/internal/participant/models"
	"reentry/internal/participant/schedule"
	"reentry/internal/participant/store"
	"reentry/internal/platform/metrics"
	"reentry/pkg/requestcontext"
)

const notifyConcurrency = 8

type Sweeper struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func New(st store.Store, notifier notify.Notifier, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    st,
		notifier: notifier,
		logger:   slog.Default(),
		interval: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on the configured interval until ctx ends. One pass runs
// immediately on start.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "overdue sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep runs a single pass: list everyone, flag overdue obligations, and
// fan notifications out to the notifier.
func (s *Sweeper) Sweep(ctx context.Context) error {
	start := time.Now()
	now := requestcontext.Now(ctx)

	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	type flagged struct {
		participant *models.Participant
		overdue     schedule.Overdue
	}
	var (
		hits         []flagged
		weeklyCount  int
		checkInCount int
		reportCount  int
	)
	for _, p := range all {
		overdue := schedule.Check(p, now)
		if !overdue.Any() {
			continue
		}
		hits = append(hits, flagged{participant: p, overdue: overdue})
		if overdue.WeeklyUpdate {
			weeklyCount++
		}
		if overdue.MonthlyCheckIn {
			checkInCount++
		}
		if overdue.MonthlyReport {
			reportCount++
		}
	}

	if s.metrics != nil {
		s.metrics.OverdueParticipants.WithLabelValues("weekly_update").Set(float64(weeklyCount))
		s.metrics.OverdueParticipants.WithLabelValues("monthly_check_in").Set(float64(checkInCount))
		s.metrics.OverdueParticipants.WithLabelValues("monthly_report").Set(float64(reportCount))
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, hit := range hits {
		g.Go(func() error {
			s.notifier.OverdueObligation(gctx, hit.participant, hit.overdue)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "overdue sweep complete",
		"scanned", len(all),
		"flagged", len(hits),
		"took", time.Since(start).String(),
	)
	return nil
}
