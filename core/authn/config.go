package authn

import (
	"log/slog"
	"time"

	"github.com/booleancoercion/andromeda/core/logger"
	"github.com/booleancoercion/andromeda/pkg/slidingwindow"
)

// DefaultSessionTTL is the session lifetime: 7 days.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config holds service configuration.
type Config struct {
	// SessionTTL is how long a session token stays valid after login.
	SessionTTL time.Duration
	// InviteOnly requires a server-issued invite token for registration.
	InviteOnly bool
	// UserLimiter throttles login attempts per username (coarse window).
	UserLimiter *slidingwindow.Limiter
	// AddrLimiter throttles login attempts per client address (tight
	// window, blunts distributed guessing from one source).
	AddrLimiter *slidingwindow.Limiter

	Logger *slog.Logger

	// now overrides the time source in tests.
	now func() time.Time
}

func defaultConfig() *Config {
	return &Config{
		SessionTTL:  DefaultSessionTTL,
		UserLimiter: slidingwindow.New(10, 30*time.Minute),
		AddrLimiter: slidingwindow.New(5, 15*time.Minute),
		Logger:      logger.Discard(),
		now:         time.Now,
	}
}

// Option is a functional option for configuring the service.
type Option func(*Config)

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) {
		if ttl > 0 {
			c.SessionTTL = ttl
		}
	}
}

// WithInviteOnly gates registration behind invite tokens.
func WithInviteOnly(inviteOnly bool) Option {
	return func(c *Config) {
		c.InviteOnly = inviteOnly
	}
}

// WithUserLimiter sets the per-username login limiter. Pass nil to disable.
func WithUserLimiter(l *slidingwindow.Limiter) Option {
	return func(c *Config) {
		c.UserLimiter = l
	}
}

// WithAddrLimiter sets the per-address login limiter. Pass nil to disable.
func WithAddrLimiter(l *slidingwindow.Limiter) Option {
	return func(c *Config) {
		c.AddrLimiter = l
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.Logger = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.now = now
		}
	}
}
