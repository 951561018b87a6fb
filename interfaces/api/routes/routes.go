package routes

import (
	"github.com/gofiber/fiber/v2"

	"clipstream/interfaces/api/handlers"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers) {
	SetupHealthRoutes(app)

	api := app.Group("/api/v1")

	SetupVideoRoutes(api, h)
	SetupPipelineRoutes(api, h)
}
