package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-secret", 30)

	token, expiresAt, err := tm.GenerateToken("profile-1", domain.RoleStaff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", claims.SubjectID)
	assert.Equal(t, domain.RoleStaff, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("unit-secret", 30)
	token, _, err := tm.GenerateToken("profile-1", domain.RoleAdmin)
	require.NoError(t, err)

	other := NewTokenManager("different-secret", 30)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("unit-secret", 30)
	_, err := tm.ParseToken("not.a.token")
	assert.Error(t, err)
}
