// Package ratelimit provides client-side request pacing. splits.io
// publishes no error-budget headers, so pacing is a fixed local
// requests-per-second gate rather than server-driven state.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request pacing.
var (
	paceWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsio_pace_waits_total",
		Help: "Total number of requests delayed by the client-side pacer",
	})

	paceWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitsio_pace_wait_seconds",
		Help:    "Time requests spent waiting on the client-side pacer",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})
)

// Pacer enforces a minimum interval between requests.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	logger   zerolog.Logger
}

// NewPacer creates a pacer allowing rps requests per second. rps <= 0
// returns nil, which Wait treats as unlimited.
func NewPacer(rps int, logger zerolog.Logger) *Pacer {
	if rps <= 0 {
		return nil
	}
	return &Pacer{
		interval: time.Second / time.Duration(rps),
		logger:   logger,
	}
}

// Wait blocks until the next request slot or until ctx is done. Safe
// to call on a nil Pacer.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	delay := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	p.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	paceWaitsTotal.Inc()
	paceWaitSeconds.Observe(delay.Seconds())
	p.logger.Debug().
		Dur("delay", delay).
		Msg("Pacing request")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
