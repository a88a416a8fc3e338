package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

func newAuthFixture() (*AuthService, *fakeProfileRepo) {
	profiles := newFakeProfileRepo()
	svc := NewAuthService(AuthDependencies{
		ProfileRepo: profiles,
		Tokens:      auth.NewTokenManager("test-secret", 60),
		BcryptCost:  4,
	})
	return svc, profiles
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to client role and issues token", func(t *testing.T) {
		svc, _ := newAuthFixture()
		session, err := svc.Register(ctx, RegisterInput{
			Email:    "Client@Example.com",
			Name:     "Pat Client",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleClient, session.Profile.Role)
		assert.Equal(t, "client@example.com", session.Profile.Email)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("staff and admin self-registration rejected", func(t *testing.T) {
		svc, _ := newAuthFixture()
		for _, role := range []domain.UserRole{domain.RoleStaff, domain.RoleAdmin} {
			_, err := svc.Register(ctx, RegisterInput{
				Email: "x@example.com", Name: "X", Password: "long enough", Role: role,
			})
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc, _ := newAuthFixture()
		input := RegisterInput{Email: "dup@example.com", Name: "Dup", Password: "long enough"}
		_, err := svc.Register(ctx, input)
		require.NoError(t, err)
		_, err = svc.Register(ctx, input)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc, _ := newAuthFixture()
		_, err := svc.Register(ctx, RegisterInput{Email: "x@example.com", Name: "X", Password: "short"})
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, _ := newAuthFixture()
		_, err := svc.Register(ctx, RegisterInput{Email: "pat@example.com", Name: "Pat", Password: "correct horse"})
		require.NoError(t, err)

		session, err := svc.Login(ctx, "pat@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "pat@example.com", session.Profile.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := newAuthFixture()
		_, err := svc.Register(ctx, RegisterInput{Email: "pat@example.com", Name: "Pat", Password: "correct horse"})
		require.NoError(t, err)

		_, err = svc.Login(ctx, "pat@example.com", "battery staple")
		assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _ := newAuthFixture()
		_, err := svc.Login(ctx, "nobody@example.com", "whatever pass")
		assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("webhook-provisioned account has no local credential", func(t *testing.T) {
		svc, profiles := newAuthFixture()
		require.NoError(t, profiles.Create(ctx, &domain.Profile{
			ID: "synced-1", Email: "synced@example.com", Name: "Synced", Role: domain.RoleStaff,
		}))

		_, err := svc.Login(ctx, "synced@example.com", "anything long")
		assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	})
}
