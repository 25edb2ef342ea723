// Package main provides the autodisconnect API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/manual"
	"github.com/netwirefiber/autodisconnect/pkg/web"
)

type API struct {
	logger      *slog.Logger
	events      web.EventHandler
	processor   web.PaymentProcessor
	batch       manual.Batch
	toggler     web.AccessToggler
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	events web.EventHandler,
	processor web.PaymentProcessor,
	batch manual.Batch,
	toggler web.AccessToggler,
	persistence persistence.Persistence,
) *API {
	return &API{
		logger:      logger,
		events:      events,
		processor:   processor,
		batch:       batch,
		toggler:     toggler,
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.events, a.processor, a.batch, a.toggler, a.persistence, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Autodisconnect API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
