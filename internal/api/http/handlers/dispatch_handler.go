package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// DispatchHandler exposes the staff side of the dispatch state machine.
type DispatchHandler struct {
	dispatch *service.DispatchService
}

// NewDispatchHandler constructs handler.
func NewDispatchHandler(dispatchService *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatchService}
}

// Respond POST /dispatch/:id/respond.
func (h *DispatchHandler) Respond(c *fiber.Ctx) error {
	var req dto.RespondDispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var accept bool
	switch strings.ToLower(req.Response) {
	case "accept", "accepted":
		accept = true
	case "decline", "declined":
		accept = false
	default:
		return apperrors.NewValidationError("response must be accept or decline", map[string]any{"response": req.Response})
	}

	updated, err := h.dispatch.RespondToDispatch(c.Context(), requireProfile(c), c.Params("id"), accept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDispatchResponse(updated)})
}

// ListJobs GET /jobs.
func (h *DispatchHandler) ListJobs(c *fiber.Ctx) error {
	jobs, err := h.dispatch.ListStaffJobs(c.Context(), requireProfile(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDispatchListResponse(jobs)})
}
