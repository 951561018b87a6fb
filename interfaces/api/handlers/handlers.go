package handlers

import (
	"clipstream/domain/services"
)

// Services contains everything the handlers depend on.
type Services struct {
	VideoService    services.VideoService
	PipelineService services.PipelineService
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	VideoHandler    *VideoHandler
	PipelineHandler *PipelineHandler
}

func NewHandlers(s *Services) *Handlers {
	return &Handlers{
		VideoHandler:    NewVideoHandler(s.VideoService),
		PipelineHandler: NewPipelineHandler(s.PipelineService),
	}
}
