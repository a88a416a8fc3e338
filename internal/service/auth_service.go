package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AuthService handles local credential accounts and session tokens. Staff
// accounts are not created here; they come through invites or the identity
// webhook.
type AuthService struct {
	profiles   repository.ProfileRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles collaborators.
type AuthDependencies struct {
	ProfileRepo repository.ProfileRepository
	Tokens      *auth.TokenManager
	BcryptCost  int
}

// NewAuthService creates the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		profiles:   deps.ProfileRepo,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
	}
}

// RegisterInput carries a signup submission.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.UserRole
	Phone    *string
}

// Session is an issued access token with its subject.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Profile   *domain.Profile
}

// Register creates a client or vendor account. The default role is client.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}
	if role != domain.RoleClient && role != domain.RoleVendor {
		return nil, apperrors.NewValidationError("self-registration is limited to client and vendor roles", map[string]any{"role": role})
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStoreFailure(err)
	}

	hashed, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	profile := &domain.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		Phone:        input.Phone,
		PasswordHash: &hashed,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}

	return s.issueSession(profile)
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	if profile.PasswordHash == nil {
		// provisioned upstream; no local credential to check
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*profile.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issueSession(profile)
}

func (s *AuthService) issueSession(profile *domain.Profile) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Profile: profile}, nil
}
