package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/pkg/logger"
)

const defaultCleanupSpec = "@hourly"

// Cleaner periodically sweeps expired cookie sessions and stale token-ledger
// rows. Expired sessions keep referential integrity on their own thanks to
// the invalidate-then-issue login flow; this sweep only stops dead rows from
// piling up between logins.
type Cleaner struct {
	sessions *iauth.SessionStore
	tokens   *iauth.TokenStore
	cron     *cron.Cron
	log      *zap.Logger

	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil store skips the corresponding sweep.
func NewCleaner(sessions *iauth.SessionStore, tokens *iauth.TokenStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions: sessions,
		tokens:   tokens,
		schedule: defaultCleanupSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.sessions == nil && c.tokens == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("credential sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the sweep immediately. Used by the scheduler, tests, and
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	var sessions, tokens int64

	if c.sessions != nil {
		swept, err := c.sessions.SweepExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			sessions = swept
		}
	}

	if c.tokens != nil {
		swept, err := c.tokens.SweepExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			tokens = swept
		}
	}

	if sessions > 0 || tokens > 0 {
		c.log.Info("credential sweep complete",
			zap.Int64("sessions", sessions),
			zap.Int64("tokens", tokens))
	}

	return errs
}
