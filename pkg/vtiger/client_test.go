package vtiger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Username: "automation", AccessKey: "secret"}, log.Discard())
	require.NoError(t, err)

	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url", Username: "u", AccessKey: "k"}, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "https://crm.example.com/restapi/vtap/api", Username: "u"}, nil)
	assert.Error(t, err)
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "automation", user)
		assert.Equal(t, "secret", pass)

		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/records", r.URL.Path)
		assert.Equal(t, "Payments", r.URL.Query().Get("module"))
		assert.Equal(t, "5", r.URL.Query().Get("id"))

		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"171x5","paymentsno":"PAY-5","retrycounter":4}}`))
	})

	record, err := client.Get(context.Background(), "Payments", "171x5")

	require.NoError(t, err)
	assert.Equal(t, "PAY-5", record.String("paymentsno"))

	counter, ok := record.Int("retrycounter")
	assert.True(t, ok)
	assert.Equal(t, 4, counter)
}

func TestClient_GetNotFound(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "http 404",
			status:  http.StatusNotFound,
			body:    ``,
			wantErr: protocol.ErrNotFound,
		},
		{
			name:    "envelope error",
			status:  http.StatusOK,
			body:    `{"success":false,"error":{"code":"RECORD_NOT_FOUND","message":"Record you are trying to access is not found"}}`,
			wantErr: protocol.ErrNotFound,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantErr: ErrRequestFailed,
		},
		{
			name:    "access denied",
			status:  http.StatusOK,
			body:    `{"success":false,"error":{"code":"ACCESS_DENIED","message":"Permission to perform the operation is denied"}}`,
			wantErr: ErrRequestFailed,
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    `<html></html>`,
			wantErr: ErrBadEnvelope,
		},
		{
			name:    "null result",
			status:  http.StatusOK,
			body:    `{"success":true,"result":null}`,
			wantErr: ErrBadEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Get(context.Background(), "Invoice", "40")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Put(t *testing.T) {
	var body map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"171x5"}}`))
	})

	err := client.Put(context.Background(), "Payments", "171x5", map[string]any{
		models.FieldInternetDisabledByPlatform: "1",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"module":                               "Payments",
		"id":                                   "5",
		"cf_payments_internetdisabledbyvtiger": "1",
	}, body)
}

func TestClient_Query(t *testing.T) {
	filter := models.Filter{ListID: 171}.And(
		models.Equal(models.FieldPaymentStatus, "Failure"),
		models.LastMonth(models.FieldCreatedTime),
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Payments", r.URL.Query().Get("module"))
		assert.Equal(t, "171", r.URL.Query().Get("filterid"))
		assert.JSONEq(t, `[[["paymentsstatus","equal",["Failure"]],["createdtime","lastmonth",""]]]`, r.URL.Query().Get("q"))

		_, _ = w.Write([]byte(`{"success":true,"result":[{"id":"171x5"},{"id":"171x6"}]}`))
	})

	records, err := client.Query(context.Background(), "Payments", filter)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "171x6", records[1].String("id"))
}

func TestClient_QueryRejectsNonArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("filterid"))

		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"171x5"}}`))
	})

	_, err := client.Query(context.Background(), "Payments", models.Filter{}.And(models.LastMonth(models.FieldCreatedTime)))

	assert.ErrorIs(t, err, ErrBadEnvelope)
}
