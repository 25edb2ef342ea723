//go:build integration

package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/netwirefiber/autodisconnect/pkg/cache"
	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/mocks"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/persistence/postgresql"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/batch"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/event"
	"github.com/netwirefiber/autodisconnect/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "autodisconnect",
				"POSTGRES_USER":     "autodisconnect",
				"POSTGRES_PASSWORD": "autodisconnect",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://autodisconnect:autodisconnect@%s:%s/autodisconnect?sslmode=disable", host, port.Port())
}

func dueClient() *mocks.MockLookupClient {
	client := &mocks.MockLookupClient{}
	client.On("GetRecord", mock.Anything, "Payments", "171x5").Return(models.Record{
		"id":             "171x5",
		"paymentsno":     "PAY-5",
		"paymentsstatus": "Failure",
		"retrycounter":   "4",
		"createdtime":    "2025-09-12 14:00:00",
		"related_to":     "12x40",
	}, nil)
	client.On("GetRecord", mock.Anything, "Invoice", "40").Return(models.Record{
		"id":           "12x40",
		"potential_id": map[string]any{"id": "77", "module": "Potentials"},
	}, nil)
	client.On("GetRecord", mock.Anything, "Potentials", "77").Return(models.Record{
		"id":                          "13x77",
		"cf_potentials_pppoeusername": "jdoe123",
	}, nil)
	client.On("FindPPPoEAccount", mock.Anything, "jdoe123").Return(models.PPPoEAccount{ID: "*3", Name: "jdoe123"}, nil)
	client.On("SetPPPoEAccountEnabled", mock.Anything, "*3", false).Return(nil)
	client.On("PutRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return client
}

func TestIntegration_DisconnectIsRecorded(t *testing.T) {
	ctx := context.Background()

	store, err := postgresql.NewPersistence(ctx, log.Discard(), setupTestDB(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	client := dueClient()

	workflow, err := disconnect.NewWorkflow(disconnect.DefaultConfig(), client,
		disconnect.WithLogger(log.Discard()),
		disconnect.WithSink(disconnect.RunSinkFunc(store.RunRepository().Save)),
	)
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(
		event.NewTrigger(workflow, cache.NewMemoryDeduplicator(time.Hour), log.Discard()),
		workflow,
		batch.NewTrigger(workflow, client, batch.WithLogger(log.Discard())),
		&stubToggler{},
		store,
		validator.New(validator.WithRequiredStructEnabled()),
		log.Discard(),
	)

	app := fiber.New()
	handlers.Register(app)

	resp, body := doRequest(t, app, http.MethodPost, "/payments/171x5/disconnect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var outcome disconnect.Outcome
	require.NoError(t, json.Unmarshal(body, &outcome))
	assert.Equal(t, models.RunStateDone, outcome.State)

	resp, body = doRequest(t, app, http.MethodGet, "/runs?payment_id=171x5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var runs web.RunsResponse
	require.NoError(t, json.Unmarshal(body, &runs))
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, outcome.RunID, runs.Runs[0].ID)
	assert.Equal(t, models.TriggerManual, runs.Runs[0].Trigger)

	resp, _ = doRequest(t, app, http.MethodGet, "/runs/"+outcome.RunID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
