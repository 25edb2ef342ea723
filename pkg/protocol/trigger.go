package protocol

import (
	"context"
)

type TriggerCallback func(ctx context.Context, data map[string]any) error

// Trigger is a long-running source of workflow invocations.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
	Validate() error
}
