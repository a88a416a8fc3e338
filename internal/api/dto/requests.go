package dto

import "github.com/spec-kit/dispatch-service/internal/domain"

// RegisterRequest is the signup payload for client and vendor accounts.
type RegisterRequest struct {
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
}

// LoginRequest is the credential login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RequirementRequest is one role requirement on a new event.
type RequirementRequest struct {
	Role     domain.StaffRole `json:"role"`
	Quantity int              `json:"quantity"`
}

// CreateEventRequest is the new-event payload. Date is RFC 3339 date form
// (2006-01-02); times are clock strings kept opaque by the service.
type CreateEventRequest struct {
	Title        string               `json:"title"`
	Description  *string              `json:"description,omitempty"`
	Date         string               `json:"date"`
	StartTime    string               `json:"start_time"`
	EndTime      string               `json:"end_time"`
	Location     string               `json:"location"`
	City         string               `json:"city"`
	ClientID     *string              `json:"client_id,omitempty"`
	VendorID     *string              `json:"vendor_id,omitempty"`
	Status       domain.EventStatus   `json:"status,omitempty"`
	Requirements []RequirementRequest `json:"requirements"`
}

// UpdateEventStatusRequest moves an event along its lifecycle.
type UpdateEventStatusRequest struct {
	Status domain.EventStatus `json:"status"`
}

// IssueDispatchRequest targets one role with a set of candidates.
type IssueDispatchRequest struct {
	Role     domain.StaffRole `json:"role"`
	StaffIDs []string         `json:"staff_ids"`
}

// RespondDispatchRequest carries the staff member's decision.
type RespondDispatchRequest struct {
	Response string `json:"response"`
}

// PostMessageRequest appends to an event's chat.
type PostMessageRequest struct {
	Content            string  `json:"content"`
	IsPrivate          bool    `json:"is_private"`
	PrivateRecipientID *string `json:"private_recipient_id,omitempty"`
}

// CreateInviteRequest mints a staff invite.
type CreateInviteRequest struct {
	Email      string             `json:"email"`
	StaffRoles []domain.StaffRole `json:"staffRoles"`
	City       string             `json:"city"`
}

// CompleteOnboardingRequest redeems an invite token for the caller's account.
type CompleteOnboardingRequest struct {
	Token string `json:"token"`
}

// UpdateStaffMemberRequest edits staff directory fields. Absent fields are
// left unchanged.
type UpdateStaffMemberRequest struct {
	StaffRoles []domain.StaffRole  `json:"staff_roles,omitempty"`
	City       *string             `json:"city,omitempty"`
	Status     *domain.StaffStatus `json:"status,omitempty"`
	Phone      *string             `json:"phone,omitempty"`
}

// IdentityWebhookRequest is the identity-provider event envelope.
type IdentityWebhookRequest struct {
	Type string              `json:"type"`
	Data IdentityWebhookData `json:"data"`
}

// IdentityWebhookData is the user record inside the envelope.
type IdentityWebhookData struct {
	ID             string                  `json:"id"`
	EmailAddresses []IdentityWebhookEmail  `json:"email_addresses"`
	FirstName      string                  `json:"first_name"`
	LastName       string                  `json:"last_name"`
	PublicMetadata IdentityWebhookMetadata `json:"public_metadata"`
}

// IdentityWebhookEmail is one address on the provider account.
type IdentityWebhookEmail struct {
	EmailAddress string `json:"email_address"`
}

// IdentityWebhookMetadata carries the provider-side role assignment.
type IdentityWebhookMetadata struct {
	Role domain.UserRole `json:"role"`
}
