package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// RoleStatus reports fulfillment accounting for one (event, role) pair.
type RoleStatus struct {
	Role     domain.StaffRole `json:"role"`
	Filled   int              `json:"filled"`
	Pending  int              `json:"pending"`
	Unfilled int              `json:"unfilled"`
	Total    int              `json:"total"`
}

// EventStaffing aggregates fulfillment across every role requirement of an
// event.
type EventStaffing struct {
	EventID       string       `json:"event_id"`
	Roles         []RoleStatus `json:"roles"`
	TotalRequired int          `json:"total_required"`
	TotalFilled   int          `json:"total_filled"`
	TotalPending  int          `json:"total_pending"`
}

// PercentFilled returns the fill ratio for progress reporting. An event with
// no required staff reports 0 rather than dividing by zero.
func (s EventStaffing) PercentFilled() float64 {
	if s.TotalRequired == 0 {
		return 0
	}
	return float64(s.TotalFilled) / float64(s.TotalRequired) * 100
}

// Complete reports whether every requirement is filled. Vacuously true for
// events with no requirements.
func (s EventStaffing) Complete() bool {
	return s.TotalFilled >= s.TotalRequired
}

// ComputeRoleStatus derives filled/pending/unfilled counts for a requirement
// from the dispatch requests issued against its (event, role) pair. Returns
// nil when the requirement is absent: the role is not tracked for the event.
// Unfilled is clamped at zero; over-dispatching is permitted and reported as
// zero unfilled, never negative.
func ComputeRoleStatus(requirement *domain.RoleRequirement, dispatches []domain.DispatchRequest) *RoleStatus {
	if requirement == nil {
		return nil
	}

	status := RoleStatus{Role: requirement.Role, Total: requirement.Quantity}
	for _, d := range dispatches {
		if d.EventID != requirement.EventID || d.Role != requirement.Role {
			continue
		}
		switch d.Status {
		case domain.DispatchStatusAccepted:
			status.Filled++
		case domain.DispatchStatusPending:
			status.Pending++
		}
	}

	status.Unfilled = requirement.Quantity - status.Filled - status.Pending
	if status.Unfilled < 0 {
		status.Unfilled = 0
	}
	return &status
}

// AggregateEventStaffing folds ComputeRoleStatus over every requirement of
// the event.
func AggregateEventStaffing(event *domain.Event, dispatches []domain.DispatchRequest) EventStaffing {
	staffing := EventStaffing{EventID: event.ID, Roles: make([]RoleStatus, 0, len(event.Requirements))}
	for i := range event.Requirements {
		status := ComputeRoleStatus(&event.Requirements[i], dispatches)
		staffing.Roles = append(staffing.Roles, *status)
		staffing.TotalRequired += status.Total
		staffing.TotalFilled += status.Filled
		staffing.TotalPending += status.Pending
	}
	return staffing
}

// DispatchService governs dispatch issuance, the request state machine and
// fulfillment accounting.
type DispatchService struct {
	dispatches repository.DispatchRepository
	eventsRepo repository.EventRepository
	staff      repository.StaffProfileRepository
	dispatcher events.Dispatcher
}

// DispatchDependencies bundles repositories.
type DispatchDependencies struct {
	DispatchRepo repository.DispatchRepository
	EventRepo    repository.EventRepository
	StaffRepo    repository.StaffProfileRepository
	Dispatcher   events.Dispatcher
}

// NewDispatchService creates the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	return &DispatchService{
		dispatches: deps.DispatchRepo,
		eventsRepo: deps.EventRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
	}
}

// EventStaffing reports per-role and total fulfillment for an event.
func (s *DispatchService) EventStaffing(ctx context.Context, actor *domain.Profile, eventID string) (*EventStaffing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	dispatches, err := s.dispatches.List(ctx, repository.DispatchFilter{EventID: &eventID})
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	staffing := AggregateEventStaffing(event, dispatches)
	return &staffing, nil
}

// IssueDispatch creates one pending request per candidate. The caller
// supplies the eligible candidate set (available, role-capable, same city);
// this operation only rejects an empty role or candidate set. All requests
// are inserted atomically.
func (s *DispatchService) IssueDispatch(ctx context.Context, actor *domain.Profile, eventID string, role domain.StaffRole, staffIDs []string) ([]domain.DispatchRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if role == "" || !domain.ValidStaffRole(role) {
		return nil, apperrors.NewValidationError("valid staff role required", map[string]any{"role": role})
	}
	if len(staffIDs) == 0 {
		return nil, apperrors.NewValidationError("candidate set must not be empty", nil)
	}

	if _, err := s.eventsRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	requests := make([]*domain.DispatchRequest, 0, len(staffIDs))
	for _, staffID := range staffIDs {
		requests = append(requests, &domain.DispatchRequest{
			EventID: eventID,
			StaffID: staffID,
			Role:    role,
			Status:  domain.DispatchStatusPending,
		})
	}
	if err := s.dispatches.CreateBatch(ctx, requests); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	result := make([]domain.DispatchRequest, 0, len(requests))
	for _, req := range requests {
		result = append(result, *req)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventDispatchIssued,
		EventID: eventID,
		Actor:   events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.DispatchIssuedPayload{Role: role, StaffIDs: staffIDs},
	})
	return result, nil
}

// RespondToDispatch applies the staff member's decision to their pending
// request. Acceptance additionally forces the staff profile to assigned,
// unconditionally: the system tracks a single placement per staff member.
// Responding to an already-responded request fails with INVALID_STATE; the
// transition itself is a conditional update at the store, so a concurrent
// responder loses cleanly rather than overwriting.
func (s *DispatchService) RespondToDispatch(ctx context.Context, actor *domain.Profile, dispatchID string, accept bool) (*domain.DispatchRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("staff role required")
	}

	existing, err := s.dispatches.GetByID(ctx, dispatchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("dispatch request", map[string]any{"dispatch_id": dispatchID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if existing.StaffID != actor.ID {
		return nil, apperrors.NewForbidden("dispatch request belongs to another staff member")
	}
	if existing.Status != domain.DispatchStatusPending {
		return nil, apperrors.NewInvalidState("dispatch request already handled", map[string]any{
			"dispatch_id": dispatchID,
			"status":      existing.Status,
		})
	}

	var updated *domain.DispatchRequest
	if accept {
		updated, err = s.dispatches.Accept(ctx, dispatchID)
	} else {
		updated, err = s.dispatches.Decline(ctx, dispatchID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race: someone responded between the read and the update
			return nil, apperrors.NewInvalidState("dispatch request already handled", map[string]any{
				"dispatch_id": dispatchID,
			})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventDispatchResponded,
		EventID: updated.EventID,
		Actor:   events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.DispatchRespondedPayload{
			DispatchID: updated.ID,
			StaffID:    updated.StaffID,
			Role:       updated.Role,
			NewStatus:  updated.Status,
		},
	})
	return updated, nil
}

// ListEventDispatches returns all requests issued against an event.
func (s *DispatchService) ListEventDispatches(ctx context.Context, actor *domain.Profile, eventID string) ([]domain.DispatchRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dispatches, err := s.dispatches.List(ctx, repository.DispatchFilter{EventID: &eventID})
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return dispatches, nil
}

// ListStaffJobs returns the acting staff member's own dispatch requests.
func (s *DispatchService) ListStaffJobs(ctx context.Context, actor *domain.Profile) ([]domain.DispatchRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("staff role required")
	}
	dispatches, err := s.dispatches.List(ctx, repository.DispatchFilter{StaffID: &actor.ID})
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return dispatches, nil
}

// EligibleStaff lists candidates for a role at an event: available, carrying
// the role, in the event's city. This feeds the dispatch modal; issuance
// itself does not re-validate.
func (s *DispatchService) EligibleStaff(ctx context.Context, actor *domain.Profile, eventID string, role domain.StaffRole) ([]domain.StaffProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !domain.ValidStaffRole(role) {
		return nil, apperrors.NewValidationError("valid staff role required", map[string]any{"role": role})
	}
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	available := domain.StaffStatusAvailable
	candidates, err := s.staff.List(ctx, repository.StaffProfileFilter{
		City:   &event.City,
		Status: &available,
		Role:   &role,
	})
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return candidates, nil
}

func (s *DispatchService) publishEvent(ctx context.Context, event events.Event) {
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

func requireAdmin(actor *domain.Profile) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}
