package restapi

import (
	"net/http"

	"github.com/andreyxaxa/analytics-bridge/internal/controller/restapi/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *fiber.App) {
	// Probes
	app.Get("/health", health)

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func health(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusOK).JSON(response.Health{Status: "ok"})
}
