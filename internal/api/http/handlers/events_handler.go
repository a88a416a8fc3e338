package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// EventsHandler manages event, staffing and chat endpoints.
type EventsHandler struct {
	events   *service.EventService
	dispatch *service.DispatchService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService, dispatchService *service.DispatchService) *EventsHandler {
	return &EventsHandler{events: eventService, dispatch: dispatchService}
}

// CreateEvent POST /events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": req.Date})
	}

	requirements := make([]service.RequirementInput, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		requirements = append(requirements, service.RequirementInput{Role: r.Role, Quantity: r.Quantity})
	}

	event, err := h.events.CreateEvent(c.Context(), requireProfile(c), service.CreateEventInput{
		Title:        req.Title,
		Description:  req.Description,
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
		City:         req.City,
		ClientID:     req.ClientID,
		VendorID:     req.VendorID,
		Status:       req.Status,
		Requirements: requirements,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// ListEvents GET /events.
func (h *EventsHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.events.ListEvents(c.Context(), requireProfile(c), parseEventQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventListResponse(events)})
}

// GetEvent GET /events/:id.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.events.GetEvent(c.Context(), requireProfile(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// UpdateEventStatus PATCH /events/:id/status.
func (h *EventsHandler) UpdateEventStatus(c *fiber.Ctx) error {
	var req dto.UpdateEventStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, err := h.events.UpdateEventStatus(c.Context(), requireProfile(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// GetStaffing GET /events/:id/staffing.
func (h *EventsHandler) GetStaffing(c *fiber.Ctx) error {
	staffing, err := h.dispatch.EventStaffing(c.Context(), requireProfile(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffingResponse(staffing)})
}

// IssueDispatch POST /events/:id/dispatch.
func (h *EventsHandler) IssueDispatch(c *fiber.Ctx) error {
	var req dto.IssueDispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	requests, err := h.dispatch.IssueDispatch(c.Context(), requireProfile(c), c.Params("id"), req.Role, req.StaffIDs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDispatchListResponse(requests)})
}

// ListEventDispatches GET /events/:id/dispatch.
func (h *EventsHandler) ListEventDispatches(c *fiber.Ctx) error {
	requests, err := h.dispatch.ListEventDispatches(c.Context(), requireProfile(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDispatchListResponse(requests)})
}

// ListEligibleStaff GET /events/:id/eligible-staff?role=.
func (h *EventsHandler) ListEligibleStaff(c *fiber.Ctx) error {
	role := domain.StaffRole(c.Query("role"))
	candidates, err := h.dispatch.EligibleStaff(c.Context(), requireProfile(c), c.Params("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffProfileListResponse(candidates)})
}

// PostMessage POST /events/:id/messages.
func (h *EventsHandler) PostMessage(c *fiber.Ctx) error {
	var req dto.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.events.PostMessage(c.Context(), requireProfile(c), service.PostMessageInput{
		EventID:            c.Params("id"),
		Content:            req.Content,
		IsPrivate:          req.IsPrivate,
		PrivateRecipientID: req.PrivateRecipientID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// ListMessages GET /events/:id/messages.
func (h *EventsHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.events.ListMessages(c.Context(), requireProfile(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMessageListResponse(messages)})
}

func parseEventQuery(c *fiber.Ctx) repository.EventFilter {
	filter := repository.EventFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.EventStatus(strings.TrimSpace(part)))
		}
	}
	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
