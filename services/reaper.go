package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"courtbook/monitoring"
)

// ExpiryReaper periodically sweeps the lock store for expired entries.
// Correctness never depends on it: both backends treat expired locks as
// absent on read. The sweep exists for hygiene and for the active-locks
// gauge.
type ExpiryReaper struct {
	sweeper  LockSweeper
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	startMu  sync.Mutex
	started  bool
}

func NewExpiryReaper(sweeper LockSweeper, interval time.Duration) *ExpiryReaper {
	return &ExpiryReaper{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (r *ExpiryReaper) Start() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.wg.Add(1)
	go r.run()

	slog.Info("expiry reaper started", "interval", r.interval)
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (r *ExpiryReaper) Stop() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if !r.started {
		return
	}
	r.started = false

	close(r.stopChan)
	r.wg.Wait()

	slog.Info("expiry reaper stopped")
}

func (r *ExpiryReaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *ExpiryReaper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started := time.Now()
	removed, live, err := r.sweeper.SweepExpired(ctx)
	if err != nil {
		slog.Error("lock sweep failed", "error", err)
		return
	}

	monitoring.TrackSweep(removed, live, time.Since(started))

	if removed > 0 {
		slog.Info("reaped expired slot locks", "removed", removed, "live", live)
	}
}
