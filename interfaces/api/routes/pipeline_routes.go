package routes

import (
	"github.com/gofiber/fiber/v2"

	"clipstream/interfaces/api/handlers"
)

func SetupPipelineRoutes(api fiber.Router, h *handlers.Handlers) {
	jobs := api.Group("/jobs")

	jobs.Get("/:id", h.PipelineHandler.GetStatus)
	jobs.Post("/:id/retry", h.PipelineHandler.Retry)
}
