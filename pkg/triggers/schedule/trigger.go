// Package schedule fires the batch disconnection run on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"github.com/robfig/cron/v3"
)

const (
	DefaultCronExpr = "0 6 * * *"
	DefaultLockTTL  = time.Hour

	lockKey = "batch-run"
)

// Locker keeps two workers from running the same batch at once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type Trigger struct {
	CronExpr string
	Enabled  bool
	LockTTL  time.Duration

	location *time.Location
	locker   Locker
	cron     *cron.Cron
	callback protocol.TriggerCallback
	ctx      context.Context
	logger   *slog.Logger
}

type Option func(*Trigger)

func WithLocker(locker Locker) Option {
	return func(t *Trigger) {
		t.locker = locker
	}
}

// WithLocation evaluates the cron expression in location instead of local time.
func WithLocation(location *time.Location) Option {
	return func(t *Trigger) {
		t.location = location
	}
}

func WithLockTTL(ttl time.Duration) Option {
	return func(t *Trigger) {
		t.LockTTL = ttl
	}
}

func NewTrigger(cronExpr string, logger *slog.Logger, opts ...Option) (*Trigger, error) {
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}

	if logger == nil {
		logger = slog.Default()
	}

	trigger := &Trigger{
		CronExpr: cronExpr,
		Enabled:  true,
		LockTTL:  DefaultLockTTL,
		location: time.Local,
		logger: logger.With(
			"module", "schedule_trigger",
			"cron", cronExpr,
		),
	}

	for _, opt := range opts {
		opt(trigger)
	}

	err := trigger.Validate()
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	_, err := cron.ParseStandard(t.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if t.LockTTL <= 0 {
		return errors.New("schedule trigger lock ttl must be positive")
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "ScheduleTrigger is disabled.")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting ScheduleTrigger", "location", t.location.String())
	t.callback = callback
	t.ctx = context.WithoutCancel(ctx)

	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(t.logger.Handler(), slog.LevelWarn))

	t.cron = cron.New(
		cron.WithLocation(t.location),
		cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		),
	)

	id, err := t.cron.AddFunc(t.CronExpr, t.fire)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	t.logger.InfoContext(ctx, "Added cron job", "entry_id", id)
	t.cron.Start()

	return nil
}

// fire runs the callback synchronously so SkipIfStillRunning sees overlapping runs.
func (t *Trigger) fire() {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	t.logger.InfoContext(ctx, "Cron job triggered")

	if t.locker != nil {
		release, ok, err := t.locker.TryLock(ctx, lockKey, t.LockTTL)
		if err != nil {
			t.logger.ErrorContext(ctx, "Failed to take batch lock", "error", err)

			return
		}

		if !ok {
			t.logger.InfoContext(ctx, "Batch already running elsewhere, skipping")

			return
		}

		defer release()
	}

	triggerData := map[string]any{
		"trigger":   "schedule",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	err := t.callback(ctx, triggerData)
	if err != nil {
		t.logger.ErrorContext(ctx, "Scheduled batch failed", "error", err)
	}
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping ScheduleTrigger")

	if t.cron != nil {
		<-t.cron.Stop().Done()
	}

	return nil
}
