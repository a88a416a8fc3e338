package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Identity webhook event types, mirroring the provider's envelope.
const (
	IdentityUserCreated = "user.created"
	IdentityUserUpdated = "user.updated"
	IdentityUserDeleted = "user.deleted"
)

// IdentityEvent is the parsed payload of an identity-provider webhook.
type IdentityEvent struct {
	Type  string
	ID    string
	Email string
	Name  string
	Role  domain.UserRole
}

// DirectoryService keeps the local profile directory in sync with the
// identity provider and serves the staff directory.
type DirectoryService struct {
	profiles   repository.ProfileRepository
	staff      repository.StaffProfileRepository
	dispatcher events.Dispatcher

	defaultCity string
}

// DirectoryDependencies bundles repositories and sync policy.
type DirectoryDependencies struct {
	ProfileRepo repository.ProfileRepository
	StaffRepo   repository.StaffProfileRepository
	Dispatcher  events.Dispatcher
	DefaultCity string
}

// NewDirectoryService creates the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		profiles:    deps.ProfileRepo,
		staff:       deps.StaffRepo,
		dispatcher:  deps.Dispatcher,
		defaultCity: deps.DefaultCity,
	}
}

// SyncIdentity applies a verified identity webhook to the local directory.
// Created profiles default to the staff role when the provider carries none,
// and staff profiles are provisioned in the default city, available for
// dispatch. Sync is idempotent: replays of created fall through to update,
// and deletes of unknown profiles succeed.
func (s *DirectoryService) SyncIdentity(ctx context.Context, event IdentityEvent) error {
	if event.ID == "" {
		return apperrors.NewValidationError("identity event missing user id", nil)
	}

	switch event.Type {
	case IdentityUserCreated, IdentityUserUpdated:
		return s.upsertProfile(ctx, event)
	case IdentityUserDeleted:
		if err := s.profiles.Delete(ctx, event.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewStoreFailure(err)
		}
		s.publishSync(ctx, event.ID, "", "deleted")
		return nil
	default:
		return apperrors.NewValidationError("unsupported identity event type", map[string]any{"type": event.Type})
	}
}

func (s *DirectoryService) upsertProfile(ctx context.Context, event IdentityEvent) error {
	role := event.Role
	if role == "" {
		role = domain.RoleStaff
	}
	if !domain.ValidUserRole(role) {
		return apperrors.NewValidationError("invalid role on identity event", map[string]any{"role": event.Role})
	}

	existing, err := s.profiles.GetByID(ctx, event.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewStoreFailure(err)
	}

	if existing == nil {
		profile := &domain.Profile{
			ID:    event.ID,
			Email: strings.ToLower(event.Email),
			Name:  event.Name,
			Role:  role,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return apperrors.NewStoreFailure(err)
		}
		if role == domain.RoleStaff {
			if err := s.ensureStaffProfile(ctx, profile.ID); err != nil {
				return err
			}
		}
		s.publishSync(ctx, profile.ID, role, "created")
		return nil
	}

	existing.Email = strings.ToLower(event.Email)
	existing.Name = event.Name
	existing.Role = role
	if err := s.profiles.Update(ctx, existing); err != nil {
		return apperrors.NewStoreFailure(err)
	}
	if role == domain.RoleStaff {
		if err := s.ensureStaffProfile(ctx, existing.ID); err != nil {
			return err
		}
	}
	s.publishSync(ctx, existing.ID, role, "updated")
	return nil
}

func (s *DirectoryService) ensureStaffProfile(ctx context.Context, profileID string) error {
	_, err := s.staff.GetByID(ctx, profileID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewStoreFailure(err)
	}
	staff := &domain.StaffProfile{
		ID:     profileID,
		City:   s.defaultCity,
		Status: domain.StaffStatusAvailable,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return apperrors.NewStoreFailure(err)
	}
	return nil
}

// StaffMember joins the identity profile with its staff profile for
// directory listings.
type StaffMember struct {
	Profile domain.Profile      `json:"profile"`
	Staff   domain.StaffProfile `json:"staff"`
}

// ListStaffMembers returns the staff directory matching the filter.
func (s *DirectoryService) ListStaffMembers(ctx context.Context, actor *domain.Profile, filter repository.StaffProfileFilter) ([]StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staffProfiles, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	members := make([]StaffMember, 0, len(staffProfiles))
	for _, sp := range staffProfiles {
		profile, err := s.profiles.GetByID(ctx, sp.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// staff row orphaned from its profile; skip rather than fail the listing
				continue
			}
			return nil, apperrors.NewStoreFailure(err)
		}
		members = append(members, StaffMember{Profile: *profile, Staff: sp})
	}
	return members, nil
}

// GetStaffMember loads one staff member by profile id.
func (s *DirectoryService) GetStaffMember(ctx context.Context, actor *domain.Profile, id string) (*StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": id})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": id})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	return &StaffMember{Profile: *profile, Staff: *staff}, nil
}

// UpdateStaffMemberInput carries editable staff directory fields. Nil fields
// are left unchanged.
type UpdateStaffMemberInput struct {
	StaffRoles []domain.StaffRole
	City       *string
	Status     *domain.StaffStatus
	Phone      *string
}

// UpdateStaffMember edits a staff member's roles, city, availability or
// contact details.
func (s *DirectoryService) UpdateStaffMember(ctx context.Context, actor *domain.Profile, id string, input UpdateStaffMemberInput) (*StaffMember, error) {
	member, err := s.GetStaffMember(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.StaffRoles != nil {
		for _, role := range input.StaffRoles {
			if !domain.ValidStaffRole(role) {
				return nil, apperrors.NewValidationError("invalid staff role", map[string]any{"role": role})
			}
		}
		member.Staff.StaffRoles = input.StaffRoles
	}
	if input.City != nil {
		if strings.TrimSpace(*input.City) == "" {
			return nil, apperrors.NewValidationError("city must not be empty", nil)
		}
		member.Staff.City = *input.City
	}
	if input.Status != nil {
		if !domain.ValidStaffStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid staff status", map[string]any{"status": *input.Status})
		}
		member.Staff.Status = *input.Status
	}
	if err := s.staff.Update(ctx, &member.Staff); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": id})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	if input.Phone != nil {
		member.Profile.Phone = input.Phone
		if err := s.profiles.Update(ctx, &member.Profile); err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
	}
	return member, nil
}

func (s *DirectoryService) publishSync(ctx context.Context, profileID string, role domain.UserRole, action string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventProfileSynced,
		Actor:     events.Actor{ID: profileID, Role: role},
		Timestamp: time.Now(),
		Payload:   events.ProfileSyncedPayload{ProfileID: profileID, Role: role, Action: action},
	})
}
