package routes

import (
	"github.com/gofiber/fiber/v2"

	"clipstream/interfaces/api/handlers"
)

func SetupVideoRoutes(api fiber.Router, h *handlers.Handlers) {
	videos := api.Group("/videos")

	videos.Post("/", h.VideoHandler.Create)
	videos.Get("/", h.VideoHandler.ListPublished)
	videos.Get("/:slug", h.VideoHandler.GetBySlug)
	videos.Post("/:id/enqueue", h.PipelineHandler.Enqueue)
}
