package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
)

// DefaultSweepSchedule runs the sweeper once a minute
const DefaultSweepSchedule = "@every 1m"

const sweepTimeout = 30 * time.Second

// Sweeper expires coupons and mileage use requests past their deadline
type Sweeper struct {
	Deps
	schedule string
	cron     *cron.Cron

	// held while a scheduled sweep runs
	running sync.Mutex
}

// NewSweeper creates a sweeper running on schedule, a cron spec with
// optional seconds field or an @every descriptor.
func NewSweeper(d Deps, schedule string) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if _, err := cron.Parse(schedule); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	d = d.withDefaults()
	d.Log = d.Log.WithName("sweeper")
	return &Sweeper{Deps: d, schedule: schedule, cron: cron.New()}, nil
}

// Start schedules the sweep
func (s *Sweeper) Start() error {
	err := s.cron.AddFunc(s.schedule, func() {
		s.running.Lock()
		defer s.running.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, _, err := s.Sweep(ctx); err != nil {
			s.Log.Error(err, "sweep failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.Log.Info("sweeper started", "schedule", s.schedule)
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	s.cron.Stop()
	s.running.Lock()
	s.running.Unlock()
}

// Sweep moves overdue active coupons and pending use requests to expired.
// Both updates are conditional on the current status, so a row redeemed
// concurrently is left alone.
func (s *Sweeper) Sweep(ctx context.Context) (coupons, requests int64, err error) {
	now := s.Now()

	coupons, err = s.Repo.ExpireCoupons(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("expire coupons: %w", err)
	}
	requests, err = s.Repo.ExpireUseRequests(ctx, now)
	if err != nil {
		return coupons, 0, fmt.Errorf("expire use requests: %w", err)
	}

	metrics.SweptTotal.WithLabelValues("coupon").Add(float64(coupons))
	metrics.SweptTotal.WithLabelValues("use_request").Add(float64(requests))
	if coupons > 0 || requests > 0 {
		s.Log.Info("expired overdue entries", "coupons", coupons, "use_requests", requests)
	}
	return coupons, requests, nil
}
