// Package notify provides protocol.Notifier implementations for surfaces
// without an interactive UI.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) NotifySuccess(ctx context.Context, message string) {
	n.logger.InfoContext(ctx, message)
}

func (n *LogNotifier) NotifyError(ctx context.Context, message string) {
	n.logger.ErrorContext(ctx, message)
}

func (n *LogNotifier) ShowProgress(ctx context.Context) {
	n.logger.DebugContext(ctx, "Working...")
}

func (n *LogNotifier) HideProgress(context.Context) {}

// Recorder keeps notifications so a caller can return them, for example in
// an HTTP response. The progress indicator state is tracked too.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	inProgress    bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NotifySuccess(_ context.Context, message string) {
	r.add(LevelSuccess, message)
}

func (r *Recorder) NotifyError(_ context.Context, message string) {
	r.add(LevelError, message)
}

func (r *Recorder) ShowProgress(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inProgress = true
}

func (r *Recorder) HideProgress(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inProgress = false
}

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, Notification{Level: level, Message: message})
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Notification(nil), r.notifications...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notifications) == 0 {
		return Notification{}, false
	}

	return r.notifications[len(r.notifications)-1], true
}

func (r *Recorder) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inProgress
}

// Multi fans notifications out to several notifiers.
type Multi []protocol.Notifier

func (m Multi) NotifySuccess(ctx context.Context, message string) {
	for _, n := range m {
		n.NotifySuccess(ctx, message)
	}
}

func (m Multi) NotifyError(ctx context.Context, message string) {
	for _, n := range m {
		n.NotifyError(ctx, message)
	}
}

func (m Multi) ShowProgress(ctx context.Context) {
	for _, n := range m {
		n.ShowProgress(ctx)
	}
}

func (m Multi) HideProgress(ctx context.Context) {
	for _, n := range m {
		n.HideProgress(ctx)
	}
}
