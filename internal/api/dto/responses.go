package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SessionResponse carries an issued access token.
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   ProfileResponse `json:"profile"`
}

// ProfileResponse is the public view of an identity profile.
type ProfileResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      domain.UserRole `json:"role"`
	Phone     *string         `json:"phone,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewProfileResponse maps the domain profile.
func NewProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

// EventResponse is the API view of a staffing event.
type EventResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  *string               `json:"description,omitempty"`
	Date         string                `json:"date"`
	StartTime    string                `json:"start_time"`
	EndTime      string                `json:"end_time"`
	Location     string                `json:"location"`
	City         string                `json:"city"`
	ClientID     *string               `json:"client_id,omitempty"`
	VendorID     *string               `json:"vendor_id,omitempty"`
	CreatedBy    string                `json:"created_by"`
	Status       domain.EventStatus    `json:"status"`
	Requirements []RequirementResponse `json:"requirements"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// RequirementResponse is one role requirement.
type RequirementResponse struct {
	ID       string           `json:"id"`
	Role     domain.StaffRole `json:"role"`
	Quantity int              `json:"quantity"`
}

// NewEventResponse maps the domain event.
func NewEventResponse(e *domain.Event) EventResponse {
	requirements := make([]RequirementResponse, 0, len(e.Requirements))
	for _, req := range e.Requirements {
		requirements = append(requirements, RequirementResponse{
			ID:       req.ID,
			Role:     req.Role,
			Quantity: req.Quantity,
		})
	}
	return EventResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Date:         e.Date.Format("2006-01-02"),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Location:     e.Location,
		City:         e.City,
		ClientID:     e.ClientID,
		VendorID:     e.VendorID,
		CreatedBy:    e.CreatedBy,
		Status:       e.Status,
		Requirements: requirements,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// NewEventListResponse maps a slice of events.
func NewEventListResponse(list []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for i := range list {
		out = append(out, NewEventResponse(&list[i]))
	}
	return out
}

// DispatchResponse is the API view of a dispatch request.
type DispatchResponse struct {
	ID          string                `json:"id"`
	EventID     string                `json:"event_id"`
	StaffID     string                `json:"staff_id"`
	Role        domain.StaffRole      `json:"role"`
	Status      domain.DispatchStatus `json:"status"`
	SentAt      time.Time             `json:"sent_at"`
	RespondedAt *time.Time            `json:"responded_at,omitempty"`
}

// NewDispatchResponse maps the domain dispatch request.
func NewDispatchResponse(d *domain.DispatchRequest) DispatchResponse {
	return DispatchResponse{
		ID:          d.ID,
		EventID:     d.EventID,
		StaffID:     d.StaffID,
		Role:        d.Role,
		Status:      d.Status,
		SentAt:      d.SentAt,
		RespondedAt: d.RespondedAt,
	}
}

// NewDispatchListResponse maps a slice of dispatch requests.
func NewDispatchListResponse(list []domain.DispatchRequest) []DispatchResponse {
	out := make([]DispatchResponse, 0, len(list))
	for i := range list {
		out = append(out, NewDispatchResponse(&list[i]))
	}
	return out
}

// StaffingResponse reports event fulfillment.
type StaffingResponse struct {
	EventID       string               `json:"event_id"`
	Roles         []service.RoleStatus `json:"roles"`
	TotalRequired int                  `json:"total_required"`
	TotalFilled   int                  `json:"total_filled"`
	TotalPending  int                  `json:"total_pending"`
	PercentFilled float64              `json:"percent_filled"`
	Complete      bool                 `json:"complete"`
}

// NewStaffingResponse maps the aggregate.
func NewStaffingResponse(s *service.EventStaffing) StaffingResponse {
	return StaffingResponse{
		EventID:       s.EventID,
		Roles:         s.Roles,
		TotalRequired: s.TotalRequired,
		TotalFilled:   s.TotalFilled,
		TotalPending:  s.TotalPending,
		PercentFilled: s.PercentFilled(),
		Complete:      s.Complete(),
	}
}

// MessageResponse is the API view of a chat message.
type MessageResponse struct {
	ID                 string    `json:"id"`
	EventID            string    `json:"event_id"`
	SenderID           string    `json:"sender_id"`
	Content            string    `json:"content"`
	IsPrivate          bool      `json:"is_private"`
	PrivateRecipientID *string   `json:"private_recipient_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewMessageResponse maps the domain message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:                 m.ID,
		EventID:            m.EventID,
		SenderID:           m.SenderID,
		Content:            m.Content,
		IsPrivate:          m.IsPrivate,
		PrivateRecipientID: m.PrivateRecipientID,
		CreatedAt:          m.CreatedAt,
	}
}

// NewMessageListResponse maps a slice of messages.
func NewMessageListResponse(list []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(list))
	for i := range list {
		out = append(out, NewMessageResponse(&list[i]))
	}
	return out
}

// InviteResponse is the API view of a staff invite. The token is exposed:
// admins copy the signup link out of the dashboard.
type InviteResponse struct {
	ID         string             `json:"id"`
	Email      string             `json:"email"`
	InvitedBy  string             `json:"invited_by"`
	StaffRoles []domain.StaffRole `json:"staffRoles"`
	City       string             `json:"city"`
	Token      string             `json:"token"`
	Accepted   bool               `json:"accepted"`
	CreatedAt  time.Time          `json:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// NewInviteResponse maps the domain invite.
func NewInviteResponse(i *domain.StaffInvite) InviteResponse {
	return InviteResponse{
		ID:         i.ID,
		Email:      i.Email,
		InvitedBy:  i.InvitedBy,
		StaffRoles: i.StaffRoles,
		City:       i.City,
		Token:      i.Token,
		Accepted:   i.Accepted,
		CreatedAt:  i.CreatedAt,
		ExpiresAt:  i.ExpiresAt,
	}
}

// NewInviteListResponse maps a slice of invites.
func NewInviteListResponse(list []domain.StaffInvite) []InviteResponse {
	out := make([]InviteResponse, 0, len(list))
	for i := range list {
		out = append(out, NewInviteResponse(&list[i]))
	}
	return out
}

// CreateInviteResponse is the invite-creation envelope.
type CreateInviteResponse struct {
	Success   bool           `json:"success"`
	InviteURL string         `json:"inviteUrl"`
	Invite    InviteResponse `json:"invite"`
}

// SuccessResponse is the bare acknowledgement envelope.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// StaffMemberResponse joins a profile with its staff record.
type StaffMemberResponse struct {
	ID         string             `json:"id"`
	Email      string             `json:"email"`
	Name       string             `json:"name"`
	Phone      *string            `json:"phone,omitempty"`
	StaffRoles []domain.StaffRole `json:"staff_roles"`
	City       string             `json:"city"`
	Status     domain.StaffStatus `json:"status"`
}

// NewStaffMemberResponse maps the joined directory record.
func NewStaffMemberResponse(m *service.StaffMember) StaffMemberResponse {
	return StaffMemberResponse{
		ID:         m.Profile.ID,
		Email:      m.Profile.Email,
		Name:       m.Profile.Name,
		Phone:      m.Profile.Phone,
		StaffRoles: m.Staff.StaffRoles,
		City:       m.Staff.City,
		Status:     m.Staff.Status,
	}
}

// NewStaffMemberListResponse maps a slice of directory records.
func NewStaffMemberListResponse(list []service.StaffMember) []StaffMemberResponse {
	out := make([]StaffMemberResponse, 0, len(list))
	for i := range list {
		out = append(out, NewStaffMemberResponse(&list[i]))
	}
	return out
}

// StaffProfileResponse is the bare staff record, used for eligibility lists.
type StaffProfileResponse struct {
	ID         string             `json:"id"`
	StaffRoles []domain.StaffRole `json:"staff_roles"`
	City       string             `json:"city"`
	Status     domain.StaffStatus `json:"status"`
}

// NewStaffProfileListResponse maps a slice of staff profiles.
func NewStaffProfileListResponse(list []domain.StaffProfile) []StaffProfileResponse {
	out := make([]StaffProfileResponse, 0, len(list))
	for _, sp := range list {
		out = append(out, StaffProfileResponse{
			ID:         sp.ID,
			StaffRoles: sp.StaffRoles,
			City:       sp.City,
			Status:     sp.Status,
		})
	}
	return out
}
