package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordUpdated(t *testing.T) {
	event := NewRecordUpdated("notif-1", "Payments", models.Record{"id": "171x5"})

	assert.Equal(t, "notif-1", event.ID)
	assert.Equal(t, RecordUpdatedEvent, event.GetType())
	assert.Equal(t, "171x5", event.RecordID())

	generated := NewRecordUpdated("", "Payments", nil)
	assert.NotEmpty(t, generated.ID)
}

func TestRecordUpdated_JSONSerialization(t *testing.T) {
	original := NewRecordUpdated("notif-1", "Payments", models.Record{"id": "171x5", "retrycounter": "4"})

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"module":"Payments"`)

	var deserialized RecordUpdated

	err = json.Unmarshal(jsonData, &deserialized)
	require.NoError(t, err)

	assert.Equal(t, original.ID, deserialized.ID)
	assert.Equal(t, "4", deserialized.Record.String("retrycounter"))
}

func TestFromRunRecord(t *testing.T) {
	started := time.Date(2025, time.October, 3, 10, 0, 0, 0, time.UTC)
	record := models.RunRecord{
		ID:         "run-1",
		PaymentID:  "171x5",
		Trigger:    models.TriggerBatch,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	record.State = models.RunStateDone
	event, ok := FromRunRecord(record)
	require.True(t, ok)

	completed, isCompleted := event.(DisconnectionCompleted)
	require.True(t, isCompleted)
	assert.Equal(t, 3*time.Second, completed.Duration)
	assert.Equal(t, "run-1", completed.RunID)

	record.State = models.RunStateFlagged
	record.Reason = "missing pppoe username"
	event, ok = FromRunRecord(record)
	require.True(t, ok)

	flagged, isFlagged := event.(DisconnectionFlagged)
	require.True(t, isFlagged)
	assert.Equal(t, "missing pppoe username", flagged.Reason)
	assert.Equal(t, DisconnectionFlaggedEvent, flagged.GetType())

	record.State = models.RunStateSkipped
	_, ok = FromRunRecord(record)
	assert.False(t, ok)
}
