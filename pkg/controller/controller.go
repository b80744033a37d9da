package controller

import (
	"context"
	"time"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/metrics"
)

// Controller is one of the eight level-triggered reconciliation loops
// of §4.5: each reads the full set of owned and desired resources from
// Store every tick and issues the minimum Put/Delete calls to close the
// gap. Reconcile must be idempotent — a missed tick or a duplicate tick
// both leave the cluster in the same converged state.
type Controller interface {
	Name() string
	Period() time.Duration
	Reconcile(ctx context.Context) error
}

// Runner ticks every registered Controller on its own independent
// period and cancels all of them together. It is started on leader
// acquisition and stopped on leadership loss, never running on a
// follower.
type Runner struct {
	controllers []Controller
	cancel      context.CancelFunc
}

// NewRunner builds a Runner over controllers, each ticking at its own Period.
func NewRunner(controllers ...Controller) *Runner {
	return &Runner{controllers: controllers}
}

// Start launches one goroutine per controller, each running until ctx
// is canceled or Stop is called. Start returns immediately.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	for _, c := range r.controllers {
		go r.runLoop(ctx, c)
	}
}

// Stop cancels every controller loop started by Start. It is safe to
// call Stop without a prior Start.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) runLoop(ctx context.Context, c Controller) {
	ticker := time.NewTicker(c.Period())
	defer ticker.Stop()

	r.tick(ctx, c)
	for {
		select {
		case <-ticker.C:
			r.tick(ctx, c)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) tick(ctx context.Context, c Controller) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDurationVec(metrics.ReconciliationDuration, c.Name())
		metrics.ReconciliationCyclesTotal.WithLabelValues(c.Name()).Inc()
	}()

	if err := c.Reconcile(ctx); err != nil {
		log.Error(c.Name() + " controller: reconcile failed: " + err.Error())
	}
}
