// Package queue consumes CRM record update notifications pushed onto a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultQueue = "autodisconnect:record-updates"

	popTimeout   = time.Second
	errorBackoff = time.Second
)

var errNotAnObject = errors.New("notification is not a JSON object")

type Trigger struct {
	Queue   string
	Enabled bool

	client   redis.UniversalClient
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTrigger(client redis.UniversalClient, queue string, logger *slog.Logger) (*Trigger, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	if logger == nil {
		logger = slog.Default()
	}

	trigger := &Trigger{
		Queue:   queue,
		Enabled: true,
		client:  client,
		stopCh:  make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"queue", queue,
		),
	}

	err := trigger.Validate()
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.Queue == "" {
		return errors.New("queue trigger queue name is required")
	}

	if t.client == nil {
		return errors.New("queue trigger requires a redis client")
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "QueueTrigger is disabled.")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting QueueTrigger")
	t.callback = callback

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			err := t.processMessage(ctx)
			if err != nil && ctx.Err() == nil {
				t.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(errorBackoff)
			}
		}
	}
}

// processMessage pops one notification and hands it to the callback. A
// malformed notification is logged and dropped.
func (t *Trigger) processMessage(ctx context.Context) error {
	result, err := t.client.BLPop(ctx, popTimeout, t.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	notification, err := decodeNotification(message)
	if err != nil {
		t.logger.WarnContext(ctx, "Dropping malformed notification", "error", err, "message", message)

		return nil
	}

	err = t.callback(ctx, notification)
	if err != nil {
		t.logger.ErrorContext(ctx, "Error handling notification", "error", err)
	}

	return nil
}

// decodeNotification parses a queued JSON object and stamps it with the
// receive time when it carries no timestamp.
func decodeNotification(message string) (map[string]any, error) {
	var notification map[string]any

	err := json.Unmarshal([]byte(message), &notification)
	if err != nil {
		return nil, err
	}

	if notification == nil {
		return nil, errNotAnObject
	}

	if notification["timestamp"] == nil {
		notification["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	return notification, nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping QueueTrigger")

	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()

	return nil
}
