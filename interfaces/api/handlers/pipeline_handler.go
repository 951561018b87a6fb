package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clipstream/domain/dto"
	"clipstream/domain/models"
	"clipstream/domain/services"
	"clipstream/pkg/logger"
	"clipstream/pkg/utils"
)

type PipelineHandler struct {
	pipeline services.PipelineService
}

func NewPipelineHandler(pipeline services.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Enqueue schedules a processing run for a video, e.g. after a re-upload of
// its raw media. Returns 202; progress is observed via the job status
// endpoint.
func (h *PipelineHandler) Enqueue(c *fiber.Ctx) error {
	ctx := c.UserContext()

	videoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid video ID")
	}

	jobID, err := h.pipeline.Enqueue(ctx, videoID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return utils.NotFoundResponse(c, "Video not found")
		case errors.Is(err, models.ErrActiveJobExists):
			return utils.ConflictResponse(c, "Video already has an active processing job")
		}
		logger.ErrorContext(ctx, "Failed to enqueue job", "video_id", videoID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.AcceptedResponse(c, dto.EnqueueResponse{JobID: jobID.String()})
}

// Retry re-attempts a failed job.
func (h *PipelineHandler) Retry(c *fiber.Ctx) error {
	ctx := c.UserContext()

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid job ID")
	}

	if err := h.pipeline.Retry(ctx, jobID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return utils.NotFoundResponse(c, "Job not found")
		case errors.Is(err, models.ErrInvalidTransition):
			return utils.ConflictResponse(c, "Only failed jobs can be retried")
		}
		logger.ErrorContext(ctx, "Failed to retry job", "job_id", jobID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.AcceptedResponse(c, dto.EnqueueResponse{JobID: jobID.String()})
}

// GetStatus returns the job's current snapshot for UI polling.
func (h *PipelineHandler) GetStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid job ID")
	}

	status, err := h.pipeline.GetStatus(ctx, jobID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.NotFoundResponse(c, "Job not found")
		}
		logger.ErrorContext(ctx, "Failed to load job status", "job_id", jobID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, status)
}
