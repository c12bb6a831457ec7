// Package reaper evicts sessions whose connections went quiet without a clean close.
package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

// Evictor is the subset of the support service the reaper drives.
type Evictor interface {
	IdleSince(threshold time.Time) []string
	Evict(ctx context.Context, sessionID string, threshold time.Time) bool
}

type Reaper struct {
	evictor     Evictor
	idleTimeout time.Duration
	interval    time.Duration
	now         func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Reaper)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reaper) { r.now = now }
}

func New(evictor Evictor, cfg config.SessionConfig, opts ...Option) *Reaper {
	r := &Reaper{
		evictor:     evictor,
		idleTimeout: cfg.IdleTimeout,
		interval:    cfg.ReapInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs Sweep every interval until Stop or ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil || r.interval <= 0 {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop(ctx)

	l := log.L()
	l.Info().Dur("interval", r.interval).Dur("idle_timeout", r.idleTimeout).Msg("idle reaper started")
}

func (r *Reaper) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep evicts every session idle for longer than the timeout and returns
// how many were evicted.
func (r *Reaper) Sweep(ctx context.Context) int {
	threshold := r.now().Add(-r.idleTimeout)

	evicted := 0
	for _, id := range r.evictor.IdleSince(threshold) {
		// Evict re-checks idleness; the session may have been active since the query.
		if r.evictor.Evict(log.WithSession(ctx, id, domain.AnonymousIDFor(id)), id, threshold) {
			evicted++
		}
	}

	if evicted > 0 {
		l := log.Ctx(ctx)
		l.Info().Int("evicted", evicted).Time("threshold", threshold).Msg("idle sessions evicted")
	}
	return evicted
}

// Stop halts the loop and waits for an in-flight sweep.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.wg.Wait()
	}
}
