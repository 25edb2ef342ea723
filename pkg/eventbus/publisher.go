package eventbus

import (
	"context"
	"fmt"

	"github.com/netwirefiber/autodisconnect/pkg/events"
	"github.com/netwirefiber/autodisconnect/pkg/models"
)

// RunPublisher publishes the lifecycle event of every finished run. It
// satisfies the workflow's run sink contract.
type RunPublisher struct {
	publisher EventPublisher
}

func NewRunPublisher(publisher EventPublisher) *RunPublisher {
	return &RunPublisher{publisher: publisher}
}

func (p *RunPublisher) RunFinished(ctx context.Context, record models.RunRecord) error {
	event, ok := events.FromRunRecord(record)
	if !ok {
		return nil
	}

	busEvent, ok := event.(Event)
	if !ok {
		return fmt.Errorf("run event %T cannot be published", event)
	}

	err := p.publisher.Publish(ctx, record.PaymentID, busEvent)
	if err != nil {
		return fmt.Errorf("failed to publish run %s: %w", record.ID, err)
	}

	return nil
}
