package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// InviteService manages single-use staff invites: creation, validation and
// the onboarding completion that converts an invite into a staff account.
type InviteService struct {
	invites    repository.InviteRepository
	profiles   repository.ProfileRepository
	staff      repository.StaffProfileRepository
	dispatcher events.Dispatcher

	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// InviteDependencies bundles repositories and invite policy.
type InviteDependencies struct {
	InviteRepo  repository.InviteRepository
	ProfileRepo repository.ProfileRepository
	StaffRepo   repository.StaffProfileRepository
	Dispatcher  events.Dispatcher
	BaseURL     string
	TTL         time.Duration
	Now         func() time.Time
}

// NewInviteService creates the service.
func NewInviteService(deps InviteDependencies) *InviteService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &InviteService{
		invites:    deps.InviteRepo,
		profiles:   deps.ProfileRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
		ttl:        deps.TTL,
		now:        now,
	}
}

// CreateInviteInput carries the admin's invite parameters.
type CreateInviteInput struct {
	Email      string
	StaffRoles []domain.StaffRole
	City       string
}

// CreatedInvite is an invite together with its signup URL.
type CreatedInvite struct {
	Invite    *domain.StaffInvite
	InviteURL string
}

// CreateInvite mints a single-use invite with a fresh random token and a
// fixed expiry window.
func (s *InviteService) CreateInvite(ctx context.Context, actor *domain.Profile, input CreateInviteInput) (*CreatedInvite, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if len(input.StaffRoles) == 0 {
		return nil, apperrors.NewValidationError("at least one staff role is required", nil)
	}
	for _, role := range input.StaffRoles {
		if !domain.ValidStaffRole(role) {
			return nil, apperrors.NewValidationError("invalid staff role", map[string]any{"role": role})
		}
	}
	if strings.TrimSpace(input.City) == "" {
		return nil, apperrors.NewValidationError("city is required", nil)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	issued := s.now()
	invite := &domain.StaffInvite{
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		InvitedBy:  actor.ID,
		StaffRoles: input.StaffRoles,
		City:       input.City,
		Token:      token,
		Accepted:   false,
		CreatedAt:  issued,
		ExpiresAt:  issued.Add(s.ttl),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventInviteCreated,
		Actor: events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.InviteCreatedPayload{
			Email: invite.Email,
			City:  invite.City,
			Roles: invite.StaffRoles,
		},
	})

	return &CreatedInvite{
		Invite:    invite,
		InviteURL: fmt.Sprintf("%s/sign-up?token=%s", s.baseURL, token),
	}, nil
}

// ListInvites returns invites, newest first.
func (s *InviteService) ListInvites(ctx context.Context, actor *domain.Profile, limit, offset int) ([]domain.StaffInvite, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	invites, err := s.invites.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return invites, nil
}

// ValidateInvite resolves a token to its unaccepted invite. Unknown or
// already-used tokens are NOT_FOUND; a known token past its expiry is
// EXPIRED. Public: served to the signup page before any account exists.
func (s *InviteService) ValidateInvite(ctx context.Context, token string) (*domain.StaffInvite, error) {
	if token == "" {
		return nil, apperrors.NewValidationError("token is required", nil)
	}
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("invite", nil)
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if invite.Expired(s.now()) {
		return nil, apperrors.NewExpired("invite", map[string]any{"expired_at": invite.ExpiresAt})
	}
	return invite, nil
}

// CompleteOnboarding consumes an invite on behalf of the authenticated
// caller: marks the invite accepted, promotes the caller's profile to the
// staff role and provisions a staff profile with the invite's roles and
// city, available for dispatch. The invite is consumed with a conditional
// update, so a token can be redeemed at most once even under concurrent
// submissions.
func (s *InviteService) CompleteOnboarding(ctx context.Context, actor *domain.Profile, token string) (*domain.Profile, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	invite, err := s.ValidateInvite(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.invites.MarkAccepted(ctx, token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// consumed or expired between validation and redemption
			if invite.Expired(s.now()) {
				return nil, apperrors.NewExpired("invite", map[string]any{"expired_at": invite.ExpiresAt})
			}
			return nil, apperrors.NewNotFound("invite", nil)
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	if actor.Role != domain.RoleStaff {
		actor.Role = domain.RoleStaff
		if err := s.profiles.Update(ctx, actor); err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
	}

	existing, err := s.staff.GetByID(ctx, actor.ID)
	switch {
	case err == nil:
		existing.StaffRoles = invite.StaffRoles
		existing.City = invite.City
		if err := s.staff.Update(ctx, existing); err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		staffProfile := &domain.StaffProfile{
			ID:         actor.ID,
			StaffRoles: invite.StaffRoles,
			City:       invite.City,
			Status:     domain.StaffStatusAvailable,
		}
		if err := s.staff.Create(ctx, staffProfile); err != nil {
			return nil, apperrors.NewStoreFailure(err)
		}
	default:
		return nil, apperrors.NewStoreFailure(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventProfileSynced,
		Actor: events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.ProfileSyncedPayload{
			ProfileID: actor.ID,
			Role:      actor.Role,
			Action:    "onboarded",
		},
	})
	return actor, nil
}

func (s *InviteService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
