// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs the background maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"shopfront/internal/catalog"
)

// ReconcileBatch is how many pending products one scheduled pass visits.
const ReconcileBatch = 100

// reconcileTimeout bounds a single scheduled pass.
const reconcileTimeout = 5 * time.Minute

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Reconciler settles products with incomplete image writes.
type Reconciler interface {
	Reconcile(ctx context.Context, limit int) (*catalog.ReconcileReport, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
}

// New registers the reconciliation job on schedule. An empty schedule
// yields a scheduler with no jobs.
func New(schedule string, r Reconciler) (*Scheduler, error) {
	c := cron.New(cron.WithParser(cronParser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if schedule != "" {
		if _, err := c.AddFunc(schedule, func() { runReconcile(r) }); err != nil {
			return nil, fmt.Errorf("schedule reconcile %q: %w", schedule, err)
		}
		slog.Info("reconcile job scheduled", "schedule", schedule)
	}

	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for a running job to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func runReconcile(r Reconciler) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("reconcile job panicked", "error", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	if _, err := r.Reconcile(ctx, ReconcileBatch); err != nil {
		slog.Error("scheduled reconcile failed", "error", err)
	}
}
