// Package web provides HTTP handlers for the disconnection service.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/netwirefiber/autodisconnect/pkg/access"
	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/events"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/notify"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/event"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/manual"
	"github.com/xeipuuv/gojsonschema"
)

type EventHandler interface {
	Handle(ctx context.Context, event events.RecordUpdated) (disconnect.Outcome, bool, error)
}

type PaymentProcessor interface {
	Process(ctx context.Context, paymentID string, trigger models.TriggerKind) (disconnect.Outcome, error)
}

type AccessToggler interface {
	Set(ctx context.Context, dealID string, status access.Status) (string, error)
}

type APIHandlers struct {
	events      EventHandler
	processor   PaymentProcessor
	batch       manual.Batch
	toggler     AccessToggler
	persistence persistence.Persistence
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	events EventHandler,
	processor PaymentProcessor,
	batch manual.Batch,
	toggler AccessToggler,
	persistence persistence.Persistence,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandlers{
		events:      events,
		processor:   processor,
		batch:       batch,
		toggler:     toggler,
		persistence: persistence,
		validator:   validator,
		logger:      logger.With("module", "api"),
	}
}

// Register mounts every endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Post("/webhooks/record-updated", h.RecordUpdated)
	router.Post("/runs/manual", h.ManualRun)
	router.Get("/runs", h.ListRuns)
	router.Get("/runs/:id", h.GetRun)
	router.Post("/payments/:id/disconnect", h.DisconnectPayment)
	router.Post("/deals/:id/internet-access", h.SetInternetAccess)
}

// RecordUpdated receives CRM record update notifications.
func (h *APIHandlers) RecordUpdated(c fiber.Ctx) error {
	var payload map[string]any

	err := json.Unmarshal(c.Body(), &payload)
	if err != nil || payload == nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = validateJSONSchema(payload, recordUpdatedSchema)
	if err != nil {
		return badRequest(c, err.Error())
	}

	notification, err := event.FromTriggerData(payload)
	if err != nil {
		return handleError(c, err)
	}

	outcome, handled, err := h.events.Handle(c.Context(), notification)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to handle notification", "event_id", notification.ID, "error", err)

		return internalError(c, err)
	}

	response := WebhookResponse{Handled: handled}
	if handled {
		response.Outcome = &outcome
	}

	return c.Status(fiber.StatusAccepted).JSON(response)
}

// ManualRun processes every due payment and returns the summary together
// with the notification an operator would have seen.
func (h *APIHandlers) ManualRun(c fiber.Ctx) error {
	recorder := notify.NewRecorder()

	summary, err := manual.NewTrigger(h.batch, recorder, h.logger).Run(c.Context())

	response := ManualRunResponse{Summary: summary}
	if last, ok := recorder.Last(); ok {
		response.Notification = &last
	}

	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(response)
	}

	return c.JSON(response)
}

func (h *APIHandlers) DisconnectPayment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Payment ID is required")
	}

	outcome, err := h.processor.Process(c.Context(), id, models.TriggerManual)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(outcome)
}

func (h *APIHandlers) SetInternetAccess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Deal ID is required")
	}

	var req InternetAccessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, access.MessageMissingStatus)
	}

	status, err := access.ParseStatus(req.Status)
	if err != nil {
		return handleError(c, err)
	}

	message, err := h.toggler.Set(c.Context(), id, status)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(InternetAccessResponse{
		DealID:  id,
		Status:  string(status),
		Message: message,
	})
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	opts := persistence.ListRunsOptions{
		PaymentID: c.Query("payment_id"),
		State:     models.RunState(c.Query("state")),
		Trigger:   models.TriggerKind(c.Query("trigger")),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		opts.Limit = limit
	}

	runs, err := h.persistence.RunRepository().List(c.Context(), opts)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(RunsResponse{Runs: runs, Count: len(runs)})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.persistence.RunRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Autodisconnect API is healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Autodisconnect API is unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// validateJSONSchema validates data against the provided JSON schema.
func validateJSONSchema(data map[string]any, schema map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
