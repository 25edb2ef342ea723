package access

import (
	"context"
	"errors"
	"testing"

	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/mocks"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dealRecord(username string) models.Record {
	return models.Record{"id": "77", "cf_potentials_pppoeusername": username}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{input: "Enabled", expected: StatusEnabled},
		{input: "disabled", expected: StatusDisabled},
		{input: " DISABLED ", expected: StatusDisabled},
		{input: "", wantErr: true},
		{input: "paused", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, err := ParseStatus(tt.input)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				assert.Equal(t, MessageMissingStatus, UserMessage(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestToggler_Set(t *testing.T) {
	tests := []struct {
		status  Status
		enabled bool
		message string
	}{
		{status: StatusDisabled, enabled: false, message: "Internet access status disabled successfully."},
		{status: StatusEnabled, enabled: true, message: "Internet access status enabled successfully."},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			client := &mocks.MockLookupClient{}
			client.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
			client.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{ID: "*3"}, nil)
			client.On("SetPPPoEAccountEnabled", mock.Anything, "*3", tt.enabled).Return(nil)
			client.On("PutRecord", mock.Anything, "Potentials", "77", map[string]any{
				"cf_potentials_internetaccessstatus": string(tt.status),
			}).Return(nil)

			message, err := NewToggler(client, "Potentials", log.Discard()).Set(context.Background(), "77", tt.status)

			require.NoError(t, err)
			assert.Equal(t, tt.message, message)
			client.AssertExpectations(t)
		})
	}
}

func TestToggler_SetFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mocks.MockLookupClient)
		message string
	}{
		{
			name: "deal fetch failure",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(nil, &lookup.Error{Kind: lookup.ErrTransport})
			},
			message: MessageDealFetchFailed,
		},
		{
			name: "missing username",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord(""), nil)
			},
			message: MessageMissingUsername,
		},
		{
			name: "account not found",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
				c.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{}, &lookup.Error{Kind: lookup.ErrNotFound})
			},
			message: MessageUserNotFound,
		},
		{
			name: "malformed router response",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
				c.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{}, &lookup.Error{Kind: lookup.ErrParse})
			},
			message: MessageInvalidResponse,
		},
		{
			name: "router unreachable",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
				c.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{}, &lookup.Error{Kind: lookup.ErrTransport})
			},
			message: MessageFetchFailed,
		},
		{
			name: "toggle failure",
			setup: func(c *mocks.MockLookupClient) {
				c.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
				c.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{ID: "*3"}, nil)
				c.On("SetPPPoEAccountEnabled", mock.Anything, "*3", false).Return(errors.New("boom"))
			},
			message: MessageUpdateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mocks.MockLookupClient{}
			tt.setup(client)

			_, err := NewToggler(client, "Potentials", log.Discard()).Set(context.Background(), "77", StatusDisabled)

			require.Error(t, err)
			assert.Equal(t, tt.message, UserMessage(err))
			client.AssertNotCalled(t, "PutRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestToggler_SetDealWriteIsBestEffort(t *testing.T) {
	client := &mocks.MockLookupClient{}
	client.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord("jdoe123"), nil)
	client.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{ID: "*3"}, nil)
	client.On("SetPPPoEAccountEnabled", mock.Anything, "*3", false).Return(nil)
	client.On("PutRecord", mock.Anything, "Potentials", "77", mock.Anything).Return(errors.New("crm down"))

	message, err := NewToggler(client, "Potentials", log.Discard()).Set(context.Background(), "77", StatusDisabled)

	require.NoError(t, err)
	assert.Equal(t, "Internet access status disabled successfully.", message)
}

func TestToggler_Apply(t *testing.T) {
	client := &mocks.MockLookupClient{}
	client.On("GetRecord", mock.Anything, "Potentials", "77").Return(dealRecord(""), nil)

	notifier := &mocks.MockNotifier{}
	notifier.On("ShowProgress", mock.Anything).Return()
	notifier.On("HideProgress", mock.Anything).Return()
	notifier.On("NotifyError", mock.Anything, MessageMissingUsername).Return()

	err := NewToggler(client, "Potentials", log.Discard()).Apply(context.Background(), notifier, "77", StatusDisabled)

	require.ErrorIs(t, err, ErrMissingUsername)
	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "NotifySuccess", mock.Anything, mock.Anything)
}
