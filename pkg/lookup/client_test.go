package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/mocks"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newClient(records *mocks.MockRecordStore, router *mocks.MockRouter) *lookup.Client {
	return lookup.NewClient(records, router, lookup.WithLogger(log.Discard()), lookup.WithCallTimeout(time.Second))
}

func TestClient_FindPPPoEAccount(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		err       error
		expected  models.PPPoEAccount
		checkKind func(error) bool
	}{
		{
			name:     "first element wins",
			payload:  []byte(`[{".id":"*3","name":"jdoe123","disabled":"false"},{".id":"*4"}]`),
			expected: models.PPPoEAccount{ID: "*3", Name: "jdoe123"},
		},
		{
			name:     "disabled account",
			payload:  []byte(`[{".id":"*9","name":"jdoe123","disabled":"true"}]`),
			expected: models.PPPoEAccount{ID: "*9", Name: "jdoe123", Disabled: true},
		},
		{
			name:      "empty array",
			payload:   []byte(`[]`),
			checkKind: lookup.IsNotFound,
		},
		{
			name:      "missing .id",
			payload:   []byte(`[{"name":"jdoe123"}]`),
			checkKind: lookup.IsNotFound,
		},
		{
			name:      "not json",
			payload:   []byte(`<html>bad gateway</html>`),
			checkKind: lookup.IsParse,
		},
		{
			name:      "object instead of array",
			payload:   []byte(`{".id":"*3"}`),
			checkKind: lookup.IsParse,
		},
		{
			name:      "empty body",
			payload:   []byte("  "),
			checkKind: lookup.IsTransport,
		},
		{
			name:      "router error",
			err:       errors.New("connection refused"),
			checkKind: lookup.IsTransport,
		},
		{
			name:      "router reports not found",
			err:       protocol.ErrNotFound,
			checkKind: lookup.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &mocks.MockRouter{}
			router.On("FindAccount", mock.Anything, "jdoe123").Return(tt.payload, tt.err)

			account, err := newClient(&mocks.MockRecordStore{}, router).FindPPPoEAccount(context.Background(), "jdoe123")

			if tt.checkKind != nil {
				require.Error(t, err)
				assert.True(t, tt.checkKind(err), "unexpected kind: %v", err)

				var lookupErr *lookup.Error
				require.ErrorAs(t, err, &lookupErr)
				assert.Equal(t, "FindPPPoEAccount", lookupErr.Op)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, account)
		})
	}
}

func TestClient_GetRecord(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		records := &mocks.MockRecordStore{}
		records.On("Get", mock.Anything, "Invoice", "40").Return(models.Record{"id": "40"}, nil)

		record, err := newClient(records, &mocks.MockRouter{}).GetRecord(context.Background(), "Invoice", "40")

		require.NoError(t, err)
		assert.Equal(t, "40", record.String("id"))
	})

	t.Run("not found", func(t *testing.T) {
		records := &mocks.MockRecordStore{}
		records.On("Get", mock.Anything, "Invoice", "40").Return(nil, protocol.ErrNotFound)

		_, err := newClient(records, &mocks.MockRouter{}).GetRecord(context.Background(), "Invoice", "40")

		assert.True(t, lookup.IsNotFound(err))
		assert.ErrorIs(t, err, protocol.ErrNotFound)
	})

	t.Run("empty record is transport", func(t *testing.T) {
		records := &mocks.MockRecordStore{}
		records.On("Get", mock.Anything, "Invoice", "40").Return(models.Record{}, nil)

		_, err := newClient(records, &mocks.MockRouter{}).GetRecord(context.Background(), "Invoice", "40")

		assert.True(t, lookup.IsTransport(err))
		assert.Contains(t, err.Error(), "Invoice/40")
	})
}

func TestClient_CallTimeout(t *testing.T) {
	router := &mocks.MockRouter{}
	router.On("SetAccountEnabled", mock.Anything, "*3", false).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(context.DeadlineExceeded)

	client := lookup.NewClient(&mocks.MockRecordStore{}, router, lookup.WithCallTimeout(20*time.Millisecond))

	err := client.SetPPPoEAccountEnabled(context.Background(), "*3", false)

	assert.True(t, lookup.IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_PutAndQueryFailuresAreTransport(t *testing.T) {
	records := &mocks.MockRecordStore{}
	records.On("Put", mock.Anything, "Payments", "5", mock.Anything).Return(protocol.ErrNotFound)
	records.On("Query", mock.Anything, "Payments", mock.Anything).Return(nil, errors.New("boom"))

	client := newClient(records, &mocks.MockRouter{})

	assert.True(t, lookup.IsTransport(client.PutRecord(context.Background(), "Payments", "5", map[string]any{"x": "1"})))

	_, err := client.QueryRecords(context.Background(), "Payments", models.Filter{})
	assert.True(t, lookup.IsTransport(err))
}
