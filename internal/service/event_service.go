package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

const messagePreviewLength = 80

// messagePreview truncates notification previews without splitting a
// multi-byte rune at the cut point.
func messagePreview(content string) string {
	if len(content) <= messagePreviewLength {
		return content
	}
	cut := messagePreviewLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// eventStatusOrder defines the forward-only lifecycle. Transitions may skip
// stages but never move backwards.
var eventStatusOrder = map[domain.EventStatus]int{
	domain.EventStatusDraft:     0,
	domain.EventStatusOpen:      1,
	domain.EventStatusLive:      2,
	domain.EventStatusCompleted: 3,
}

// EventService manages staffing events, their role requirements and the
// per-event chat channel.
type EventService struct {
	eventsRepo repository.EventRepository
	messages   repository.MessageRepository
	dispatches repository.DispatchRepository
	profiles   repository.ProfileRepository
	dispatcher events.Dispatcher
}

// EventDependencies bundles repositories.
type EventDependencies struct {
	EventRepo    repository.EventRepository
	MessageRepo  repository.MessageRepository
	DispatchRepo repository.DispatchRepository
	ProfileRepo  repository.ProfileRepository
	Dispatcher   events.Dispatcher
}

// NewEventService creates the service.
func NewEventService(deps EventDependencies) *EventService {
	return &EventService{
		eventsRepo: deps.EventRepo,
		messages:   deps.MessageRepo,
		dispatches: deps.DispatchRepo,
		profiles:   deps.ProfileRepo,
		dispatcher: deps.Dispatcher,
	}
}

// RequirementInput is one role requirement on a new event.
type RequirementInput struct {
	Role     domain.StaffRole
	Quantity int
}

// CreateEventInput carries new-event parameters.
type CreateEventInput struct {
	Title        string
	Description  *string
	Date         time.Time
	StartTime    string
	EndTime      string
	Location     string
	City         string
	ClientID     *string
	VendorID     *string
	Status       domain.EventStatus
	Requirements []RequirementInput
}

// CreateEvent creates an event with its role requirements in one atomic
// write. Requirement roles must be unique per event and quantities
// non-negative; zero quantities are allowed.
func (s *EventService) CreateEvent(ctx context.Context, actor *domain.Profile, input CreateEventInput) (*domain.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.City) == "" {
		return nil, apperrors.NewValidationError("city is required", nil)
	}
	status := input.Status
	if status == "" {
		status = domain.EventStatusDraft
	}
	if _, ok := eventStatusOrder[status]; !ok {
		return nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": input.Status})
	}

	seen := make(map[domain.StaffRole]struct{}, len(input.Requirements))
	requirements := make([]domain.RoleRequirement, 0, len(input.Requirements))
	for _, req := range input.Requirements {
		if !domain.ValidStaffRole(req.Role) {
			return nil, apperrors.NewValidationError("invalid staff role", map[string]any{"role": req.Role})
		}
		if _, dup := seen[req.Role]; dup {
			return nil, apperrors.NewValidationError("duplicate role requirement", map[string]any{"role": req.Role})
		}
		if req.Quantity < 0 {
			return nil, apperrors.NewValidationError("quantity must not be negative", map[string]any{"role": req.Role})
		}
		seen[req.Role] = struct{}{}
		requirements = append(requirements, domain.RoleRequirement{Role: req.Role, Quantity: req.Quantity})
	}

	event := &domain.Event{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Date:         input.Date,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Location:     input.Location,
		City:         input.City,
		ClientID:     input.ClientID,
		VendorID:     input.VendorID,
		CreatedBy:    actor.ID,
		Status:       status,
		Requirements: requirements,
	}
	if err := s.eventsRepo.Create(ctx, event); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventEventCreated,
		EventID: event.ID,
		Actor:   events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.EventCreatedPayload{Title: event.Title, City: event.City, Status: event.Status},
	})
	return event, nil
}

// GetEvent loads an event with its requirements. Staff callers only see
// events they hold a dispatch request for.
func (s *EventService) GetEvent(ctx context.Context, actor *domain.Profile, eventID string) (*domain.Event, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if actor.Role == domain.RoleStaff {
		dispatched, err := s.staffDispatchedTo(ctx, eventID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !dispatched {
			return nil, apperrors.NewForbidden("not dispatched to this event")
		}
	}
	return event, nil
}

// ListEvents returns events matching the filter, earliest date first.
func (s *EventService) ListEvents(ctx context.Context, actor *domain.Profile, filter repository.EventFilter) ([]domain.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	result, err := s.eventsRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return result, nil
}

// UpdateEventStatus moves an event along its lifecycle. Backward moves are
// rejected with INVALID_STATE.
func (s *EventService) UpdateEventStatus(ctx context.Context, actor *domain.Profile, eventID string, next domain.EventStatus) (*domain.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	nextOrder, ok := eventStatusOrder[next]
	if !ok {
		return nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": next})
	}

	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if nextOrder < eventStatusOrder[event.Status] {
		return nil, apperrors.NewInvalidState("event status cannot move backwards", map[string]any{
			"from": event.Status,
			"to":   next,
		})
	}

	if err := s.eventsRepo.UpdateStatus(ctx, eventID, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	event.Status = next
	return event, nil
}

// PostMessageInput carries a chat message submission.
type PostMessageInput struct {
	EventID            string
	Content            string
	IsPrivate          bool
	PrivateRecipientID *string
}

// PostMessage appends a message to an event's chat. Admins can always post;
// staff must hold an accepted dispatch for the event. Private messages
// require a recipient and are only readable by sender, recipient and admins.
func (s *EventService) PostMessage(ctx context.Context, actor *domain.Profile, input PostMessageInput) (*domain.Message, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}
	if input.IsPrivate && (input.PrivateRecipientID == nil || *input.PrivateRecipientID == "") {
		return nil, apperrors.NewValidationError("private messages require a recipient", nil)
	}
	if !input.IsPrivate && input.PrivateRecipientID != nil {
		return nil, apperrors.NewValidationError("recipient is only valid on private messages", nil)
	}

	if _, err := s.eventsRepo.GetByID(ctx, input.EventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": input.EventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		placed, err := s.dispatches.HasAccepted(ctx, input.EventID, actor.ID)
		if err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
		if !placed {
			return nil, apperrors.NewForbidden("only staff placed on the event may post")
		}
	default:
		return nil, apperrors.NewForbidden("chat is limited to admins and placed staff")
	}

	msg := &domain.Message{
		EventID:            input.EventID,
		SenderID:           actor.ID,
		Content:            input.Content,
		IsPrivate:          input.IsPrivate,
		PrivateRecipientID: input.PrivateRecipientID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventMessagePosted,
		EventID: msg.EventID,
		Actor:   events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.MessagePostedPayload{
			MessageID:   msg.ID,
			SenderID:    msg.SenderID,
			IsPrivate:   msg.IsPrivate,
			BodyPreview: messagePreview(msg.Content),
		},
	})
	return msg, nil
}

// ListMessages returns the event's chat in chronological order, filtered to
// what the caller may see. Staff must be placed on the event to read at all.
func (s *EventService) ListMessages(ctx context.Context, actor *domain.Profile, eventID string) ([]domain.Message, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		placed, err := s.dispatches.HasAccepted(ctx, eventID, actor.ID)
		if err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
		if !placed {
			return nil, apperrors.NewForbidden("only staff placed on the event may read")
		}
	default:
		return nil, apperrors.NewForbidden("chat is limited to admins and placed staff")
	}

	all, err := s.messages.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	visible := make([]domain.Message, 0, len(all))
	for _, msg := range all {
		if msg.VisibleTo(actor.ID, actor.Role) {
			visible = append(visible, msg)
		}
	}
	return visible, nil
}

func (s *EventService) staffDispatchedTo(ctx context.Context, eventID, staffID string) (bool, error) {
	dispatches, err := s.dispatches.List(ctx, repository.DispatchFilter{EventID: &eventID, StaffID: &staffID})
	if err != nil {
		return false, apperrors.NewStoreFailure(err)
	}
	return len(dispatches) > 0, nil
}

func (s *EventService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
