package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ protocol.Notifier = (*LogNotifier)(nil)
	_ protocol.Notifier = (*Recorder)(nil)
	_ protocol.Notifier = Multi(nil)
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	recorder := NewRecorder()

	_, ok := recorder.Last()
	assert.False(t, ok)

	recorder.ShowProgress(ctx)
	assert.True(t, recorder.InProgress())

	recorder.NotifyError(ctx, "Errors on 1 of 2 payment(s). Check logs.")
	recorder.NotifySuccess(ctx, "Processed 2 payment(s).")
	recorder.HideProgress(ctx)

	assert.False(t, recorder.InProgress())
	assert.Equal(t, []Notification{
		{Level: LevelError, Message: "Errors on 1 of 2 payment(s). Check logs."},
		{Level: LevelSuccess, Message: "Processed 2 payment(s)."},
	}, recorder.Notifications())

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, last.Level)
}

func TestMultiAndLogNotifier(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	recorder := NewRecorder()

	notifier := Multi{NewLogNotifier(logger), recorder}
	notifier.ShowProgress(context.Background())
	notifier.NotifyError(context.Background(), "No payments to process right now.")
	notifier.HideProgress(context.Background())

	assert.Contains(t, buf.String(), "No payments to process right now.")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Len(t, recorder.Notifications(), 1)
	assert.False(t, recorder.InProgress())
}
