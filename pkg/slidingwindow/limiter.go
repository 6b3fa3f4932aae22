package slidingwindow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// minSweepInterval is the floor for the background sweep period so tiny
// windows do not turn the sweeper into a busy loop.
const minSweepInterval = 10 * time.Second

// Limiter is a sliding-window attempt counter. It is safe for concurrent
// use; all ledger access is serialized by a mutex.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]int64

	maxAttempts int
	window      time.Duration

	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger for sweep lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a limiter admitting at most maxAttempts per identity within
// the trailing window.
func New(maxAttempts int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		attempts:    make(map[string][]int64),
		maxAttempts: maxAttempts,
		window:      window,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Attempt records an attempt for id and reports whether it was admitted.
// Rejected attempts are not recorded, so a caller hammering a full window
// does not extend its own lockout.
func (l *Limiter) Attempt(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().Unix()
	cutoff := now - int64(l.window/time.Second)

	kept := trimBefore(l.attempts[id], cutoff)
	if len(kept) >= l.maxAttempts {
		l.attempts[id] = kept
		return false
	}

	l.attempts[id] = append(kept, now)
	return true
}

// Sweep trims expired timestamps across all identities and deletes the
// identities left with none.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Unix() - int64(l.window/time.Second)
	for id, ts := range l.attempts {
		kept := trimBefore(ts, cutoff)
		if len(kept) == 0 {
			delete(l.attempts, id)
		} else {
			l.attempts[id] = kept
		}
	}
}

// SweepInterval returns how often the background sweep runs: a tenth of the
// window, floored at ten seconds.
func (l *Limiter) SweepInterval() time.Duration {
	return max(l.window/10, minSweepInterval)
}

// Len reports how many identities currently hold recorded attempts.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// Start runs the background sweep until ctx is cancelled. It blocks; use
// Run for the errgroup pattern or call it in its own goroutine.
func (l *Limiter) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return fmt.Errorf("slidingwindow: limiter already started")
	}
	// The derived context stays local to this call: a restart after Stop
	// must not swap the context out from under a loop still draining.
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	interval := l.SweepInterval()
	l.logger.InfoContext(ctx, "sliding window sweep started",
		slog.Duration("interval", interval),
		slog.Int("max_attempts", l.maxAttempts),
		slog.Duration("window", l.window))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(context.Background(), "sliding window sweep stopping")
			return ctx.Err()
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Stop cancels a running background sweep.
func (l *Limiter) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil {
		return fmt.Errorf("slidingwindow: limiter not started")
	}
	l.cancel()
	l.cancel = nil
	return nil
}

// Run provides errgroup compatibility: the returned function starts the
// sweep and treats context cancellation as a clean exit.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		err := l.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// trimBefore drops the prefix of timestamps older than cutoff. Timestamps
// are appended in order, so expired entries always form a prefix.
func trimBefore(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] < cutoff {
		i++
	}
	return ts[i:]
}
