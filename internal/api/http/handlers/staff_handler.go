package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// StaffHandler manages the staff directory and the invite lifecycle.
type StaffHandler struct {
	invites   *service.InviteService
	directory *service.DirectoryService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(inviteService *service.InviteService, directoryService *service.DirectoryService) *StaffHandler {
	return &StaffHandler{invites: inviteService, directory: directoryService}
}

// CreateInvite POST /staff/invite. Responds 200 with the signup URL; the
// dashboard copies it out for the invitee.
func (h *StaffHandler) CreateInvite(c *fiber.Ctx) error {
	var req dto.CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.invites.CreateInvite(c.Context(), requireProfile(c), service.CreateInviteInput{
		Email:      req.Email,
		StaffRoles: req.StaffRoles,
		City:       req.City,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.CreateInviteResponse{
		Success:   true,
		InviteURL: created.InviteURL,
		Invite:    dto.NewInviteResponse(created.Invite),
	})
}

// ListInvites GET /staff/invite. Responds with the bare invite list.
func (h *StaffHandler) ListInvites(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 100)
	invites, err := h.invites.ListInvites(c.Context(), requireProfile(c), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewInviteListResponse(invites))
}

// ValidateInvite GET /staff/invite/validate?token=. Public: backs the signup
// page before any session exists.
func (h *StaffHandler) ValidateInvite(c *fiber.Ctx) error {
	invite, err := h.invites.ValidateInvite(c.Context(), c.Query("token"))
	if err != nil {
		return inviteTokenError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewInviteResponse(invite)})
}

// CompleteOnboarding POST /staff/complete-onboarding. Unknown, used and
// expired tokens all surface as 400 here: the caller submitted a bad token,
// whatever the underlying reason.
func (h *StaffHandler) CompleteOnboarding(c *fiber.Ctx) error {
	var req dto.CompleteOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token is required", nil)
	}

	if _, err := h.invites.CompleteOnboarding(c.Context(), requireProfile(c), req.Token); err != nil {
		return inviteTokenError(err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// ListMembers GET /staff/members.
func (h *StaffHandler) ListMembers(c *fiber.Ctx) error {
	filter := repository.StaffProfileFilter{}
	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	if status := c.Query("status"); status != "" {
		s := domain.StaffStatus(status)
		filter.Status = &s
	}
	if role := c.Query("role"); role != "" {
		r := domain.StaffRole(role)
		filter.Role = &r
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 100)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	members, err := h.directory.ListStaffMembers(c.Context(), requireProfile(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberListResponse(members)})
}

// GetMember GET /staff/members/:id.
func (h *StaffHandler) GetMember(c *fiber.Ctx) error {
	member, err := h.directory.GetStaffMember(c.Context(), requireProfile(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}

// UpdateMember PATCH /staff/members/:id.
func (h *StaffHandler) UpdateMember(c *fiber.Ctx) error {
	var req dto.UpdateStaffMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.directory.UpdateStaffMember(c.Context(), requireProfile(c), c.Params("id"), service.UpdateStaffMemberInput{
		StaffRoles: req.StaffRoles,
		City:       req.City,
		Status:     req.Status,
		Phone:      req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffMemberResponse(member)})
}

// inviteTokenError collapses token lookup failures to 400. The distinction
// between unknown, used and expired stays in the error code.
func inviteTokenError(err error) error {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code == "NOT_FOUND" || domainErr.Code == "EXPIRED" {
		return apperrors.NewDomainError(domainErr.Code, domainErr.Message, fiber.StatusBadRequest, domainErr.Details)
	}
	return err
}
