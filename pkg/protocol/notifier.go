package protocol

import "context"

// Notifier is the operator-facing notification surface. Only triggers use it.
type Notifier interface {
	NotifySuccess(ctx context.Context, message string)
	NotifyError(ctx context.Context, message string)
	ShowProgress(ctx context.Context)
	HideProgress(ctx context.Context)
}
