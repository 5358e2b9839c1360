// Package feed keeps an in-memory snapshot of the device and cable feeds
// current by polling the store. Consumers always see a complete, immutable
// snapshot; a store outage leaves the previous snapshot in place.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tracenet/core-go/internal/metrics"
	"tracenet/core-go/internal/topology"
)

// Queries is the minimal store interface the feed worker needs.
type Queries interface {
	ListDevices(ctx context.Context) ([]topology.Device, error)
	ListCables(ctx context.Context) ([]topology.Cable, error)
}

// Snapshot is one consistent read of both feeds.
type Snapshot struct {
	Devices []topology.Device
	Cables  []topology.Cable
	Taken   time.Time
}

type Worker struct {
	log          zerolog.Logger
	q            Queries
	pollInterval time.Duration
	queryTimeout time.Duration
	metrics      *metrics.Metrics

	mu   sync.RWMutex
	snap Snapshot
}

type Options struct {
	PollInterval time.Duration
	QueryTimeout time.Duration
}

func New(log zerolog.Logger, q Queries, opts Options, m *metrics.Metrics) *Worker {
	pi := opts.PollInterval
	if pi <= 0 {
		pi = 5 * time.Second
	}
	qt := opts.QueryTimeout
	if qt <= 0 {
		qt = 3 * time.Second
	}
	return &Worker{
		log:          log,
		q:            q,
		pollInterval: pi,
		queryTimeout: qt,
		metrics:      m,
	}
}

// Snapshot returns the most recent feed snapshot. Zero value before the
// first successful refresh.
func (w *Worker) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap
}

// Refresh performs one replace-wholesale read of both feeds.
func (w *Worker) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.queryTimeout)
	defer cancel()

	devices, err := w.q.ListDevices(ctx)
	if err != nil {
		w.metrics.IncFeedRefresh(true)
		return err
	}
	cables, err := w.q.ListCables(ctx)
	if err != nil {
		w.metrics.IncFeedRefresh(true)
		return err
	}

	w.mu.Lock()
	w.snap = Snapshot{Devices: devices, Cables: cables, Taken: time.Now()}
	w.mu.Unlock()

	w.metrics.IncFeedRefresh(false)
	return nil
}

// Run polls the store until ctx is cancelled, backing off on consecutive
// failures.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.q == nil {
		return
	}

	if err := w.Refresh(ctx); err != nil {
		w.log.Warn().Err(err).Msg("initial feed refresh failed")
	}

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := w.Refresh(ctx); err != nil {
			consecutiveFailures++
			w.log.Error().Err(err).Int("failures", consecutiveFailures).Msg("feed refresh failed")
		} else {
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(w.pollInterval, consecutiveFailures))
	}
}

func backoffDuration(base time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = 5 * time.Second
	}
	if failures <= 0 {
		return base
	}

	// Exponential-ish backoff: base * 2^failures, capped.
	if failures > 4 {
		failures = 4
	}
	d := base * time.Duration(1<<failures)
	if d > time.Minute {
		return time.Minute
	}
	return d
}
