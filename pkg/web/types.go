// Package web provides HTTP request and response types for the disconnection API.
package web

import (
	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/notify"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/batch"
)

// InternetAccessRequest is the body of POST /deals/:id/internet-access.
type InternetAccessRequest struct {
	Status string `json:"status" validate:"required,oneof=Enabled Disabled enabled disabled"`
}

type InternetAccessResponse struct {
	DealID  string `json:"deal_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type WebhookResponse struct {
	Handled bool                `json:"handled"`
	Outcome *disconnect.Outcome `json:"outcome,omitempty"`
}

type ManualRunResponse struct {
	Summary      batch.Summary        `json:"summary"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

type RunsResponse struct {
	Runs  []models.RunRecord `json:"runs"`
	Count int                `json:"count"`
}

// recordUpdatedSchema accepts either a {"id", "module", "record"}
// notification or a bare record carrying its own id.
var recordUpdatedSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":        map[string]any{"type": "string"},
		"module":    map[string]any{"type": "string"},
		"timestamp": map[string]any{"type": "string"},
		"record": map[string]any{
			"type":     "object",
			"required": []any{"id"},
			"properties": map[string]any{
				"id": map[string]any{"type": []any{"string", "number"}},
			},
		},
	},
	"anyOf": []any{
		map[string]any{"required": []any{"record"}},
		map[string]any{"required": []any{"id"}},
	},
}
