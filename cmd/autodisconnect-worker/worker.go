package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/netwirefiber/autodisconnect/pkg/eventbus"
	"github.com/netwirefiber/autodisconnect/pkg/events"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

type source struct {
	name     string
	trigger  protocol.Trigger
	callback protocol.TriggerCallback
}

// Worker runs the long-lived triggers until its context ends.
type Worker struct {
	sources    []source
	subscriber eventbus.EventSubscriber
	onEvent    eventbus.EventHandler
	logger     *slog.Logger
}

func NewWorker(logger *slog.Logger) *Worker {
	return &Worker{logger: logger.With("module", "worker")}
}

// AddTrigger registers trigger to be started with callback.
func (w *Worker) AddTrigger(name string, trigger protocol.Trigger, callback protocol.TriggerCallback) {
	w.sources = append(w.sources, source{name: name, trigger: trigger, callback: callback})
}

// SubscribeRecordUpdates routes record.updated events from subscriber to handler.
func (w *Worker) SubscribeRecordUpdates(subscriber eventbus.EventSubscriber, handler eventbus.EventHandler) {
	w.subscriber = subscriber
	w.onEvent = handler
}

// Run starts every trigger, blocks until ctx is done and then stops them in
// reverse order.
func (w *Worker) Run(ctx context.Context) error {
	if len(w.sources) == 0 && w.subscriber == nil {
		return errors.New("worker has nothing to run")
	}

	started := make([]source, 0, len(w.sources))

	stopAll := func() error {
		var errs []error

		stopCtx := context.WithoutCancel(ctx)

		for i := len(started) - 1; i >= 0; i-- {
			err := started[i].trigger.Stop(stopCtx)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to stop %s trigger: %w", started[i].name, err))
			}
		}

		return errors.Join(errs...)
	}

	for _, s := range w.sources {
		err := s.trigger.Validate()
		if err == nil {
			err = s.trigger.Start(ctx, s.callback)
		}

		if err != nil {
			return errors.Join(fmt.Errorf("failed to start %s trigger: %w", s.name, err), stopAll())
		}

		started = append(started, s)

		w.logger.InfoContext(ctx, "Trigger started", "trigger", s.name)
	}

	if w.subscriber != nil {
		err := w.subscriber.Handle(events.RecordUpdatedEvent, w.onEvent)
		if err == nil {
			err = w.subscriber.Subscribe(ctx)
		}

		if err != nil {
			return errors.Join(fmt.Errorf("failed to subscribe to record updates: %w", err), stopAll())
		}

		w.logger.InfoContext(ctx, "Subscribed to record updates", "topic", events.Topic)
	}

	<-ctx.Done()

	w.logger.InfoContext(ctx, "Shutting down worker")

	return stopAll()
}
