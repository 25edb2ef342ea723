package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/netwirefiber/autodisconnect/pkg/access"
	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/event"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleError maps domain errors onto problem responses.
func handleError(c fiber.Ctx, err error) error {
	var accessErr *access.Error

	switch {
	case errors.As(err, &accessErr):
		if errors.Is(err, access.ErrInvalidStatus) {
			return badRequest(c, accessErr.Message)
		}

		if lookup.IsNotFound(err) {
			return problem(c, fiber.StatusNotFound, "not_found", accessErr.Message)
		}

		return problem(c, fiber.StatusUnprocessableEntity, "internet_access_error", accessErr.Message)

	case errors.Is(err, event.ErrMissingRecord):
		return badRequest(c, err.Error())

	case persistence.IsRunNotFound(err):
		return notFound(c, "run not found")

	case lookup.IsNotFound(err):
		return notFound(c, err.Error())

	case lookup.IsTransport(err), lookup.IsParse(err):
		return problem(c, fiber.StatusBadGateway, "upstream_error", err.Error())

	default:
		return internalError(c, err)
	}
}
