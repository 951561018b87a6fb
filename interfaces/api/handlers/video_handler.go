package handlers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clipstream/domain/dto"
	"clipstream/domain/models"
	"clipstream/domain/services"
	"clipstream/pkg/logger"
	"clipstream/pkg/utils"
)

type VideoHandler struct {
	videoService services.VideoService
	validate     *validator.Validate
}

func NewVideoHandler(videoService services.VideoService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		validate:     validator.New(),
	}
}

// Create registers an uploaded video and kicks off its processing run.
// The raw file must already be in the blob store; this endpoint takes its
// key, not the bytes.
func (h *VideoHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := uuid.Parse(c.Get("X-User-ID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Missing or invalid X-User-ID header")
	}

	var req dto.CreateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Unparseable create video body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			return utils.ValidationErrorResponse(c, details)
		}
		return utils.BadRequestResponse(c, "Invalid request")
	}

	video, jobID, err := h.videoService.Create(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, models.ErrActiveJobExists) {
			return utils.ConflictResponse(c, "Video already has an active processing job")
		}
		logger.ErrorContext(ctx, "Failed to create video", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.CreatedResponse(c, fiber.Map{
		"video": dto.NewVideoResponse(video),
		"jobId": jobID.String(),
	})
}

// GetBySlug serves the public playback lookup.
func (h *VideoHandler) GetBySlug(c *fiber.Ctx) error {
	ctx := c.UserContext()
	slug := c.Params("slug")

	video, err := h.videoService.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.NotFoundResponse(c, "Video not found")
		}
		logger.ErrorContext(ctx, "Failed to load video", "slug", slug, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, dto.NewVideoResponse(video))
}

// ListPublished returns the public catalog, newest publications first.
func (h *VideoHandler) ListPublished(c *fiber.Ctx) error {
	ctx := c.UserContext()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	videos, total, err := h.videoService.ListPublished(ctx, offset, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list videos", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.PaginatedSuccessResponse(c, dto.NewVideoResponses(videos), total, page, limit)
}
