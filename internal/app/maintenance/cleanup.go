package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hoaxify/hoaxify/internal/monitoring"
	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/metrics"
)

const (
	defaultTokenSpec      = "@every 1h"
	defaultAttachmentSpec = "@every 24h"

	// JobTokens and JobAttachments name the sweeps in the job tracker.
	JobTokens      = "tokens"
	JobAttachments = "attachments"
)

// TokenSweeper removes idle bearer tokens.
type TokenSweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// AttachmentSweeper removes attachments that were never claimed by a hoax.
type AttachmentSweeper interface {
	RemoveUnusedAttachments(ctx context.Context) (int, error)
}

// Cleaner coordinates background maintenance tasks: purging idle tokens and
// removing orphaned attachments.
type Cleaner struct {
	tokens      TokenSweeper
	attachments AttachmentSweeper
	tracker     *monitoring.JobTracker
	cron        *cron.Cron
	now         func() time.Time
	log         *zap.Logger
	started     bool

	tokenSchedule      string
	attachmentSchedule string
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

// WithNow overrides the clock used to time job runs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithAttachmentSchedule overrides the cron specification for the orphaned attachment sweep.
func WithAttachmentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.attachmentSchedule = spec
		}
	}
}

// WithTracker records each run so the health probes can report on it.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil sweeper
// results in the corresponding job being skipped.
func NewCleaner(tokens TokenSweeper, attachments AttachmentSweeper, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:             tokens,
		attachments:        attachments,
		now:                time.Now,
		tokenSchedule:      defaultTokenSpec,
		attachmentSchedule: defaultAttachmentSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if c.tokens == nil && c.attachments == nil {
		return nil
	}

	if c.tokens != nil {
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			if err := c.sweepTokens(context.Background()); err != nil {
				c.log.Warn("token cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.attachments != nil {
		if _, err := c.cron.AddFunc(c.attachmentSchedule, func() {
			if err := c.sweepAttachments(context.Background()); err != nil {
				c.log.Warn("attachment cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	c.started = true
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil || !c.started {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. A failing
// sweep does not prevent the next one from running.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.tokens != nil {
		errs = multierr.Append(errs, c.sweepTokens(ctx))
	}
	if c.attachments != nil {
		errs = multierr.Append(errs, c.sweepAttachments(ctx))
	}
	return errs
}

func (c *Cleaner) sweepTokens(ctx context.Context) error {
	started := c.now()
	removed, err := c.tokens.CleanupExpired(ctx)
	c.record(JobTokens, removed, started, err)
	return err
}

func (c *Cleaner) sweepAttachments(ctx context.Context) error {
	started := c.now()
	removed, err := c.attachments.RemoveUnusedAttachments(ctx)
	c.record(JobAttachments, int64(removed), started, err)
	return err
}

func (c *Cleaner) record(job string, removed int64, started time.Time, err error) {
	elapsed := c.now().Sub(started)
	c.tracker.Record(job, removed, elapsed, err)

	if err != nil {
		if job == JobTokens {
			metrics.SweepFailures.WithLabelValues(job).Inc()
		}
		return
	}
	if removed > 0 {
		c.log.Info("maintenance sweep completed",
			zap.String("job", job),
			zap.Int64("removed", removed),
			zap.Duration("elapsed", elapsed),
		)
	}
}
