package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	service := auth.NewJWTService("test-secret", 12*time.Hour)

	userID := uuid.New()
	token, err := service.GenerateToken(userID, "laura@example.com", models.RoleLector)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "laura@example.com", claims.Email)
	assert.Equal(t, models.RoleLector, claims.Role)
}

func TestJWTExpired(t *testing.T) {
	service := auth.NewJWTService("test-secret", -time.Minute)

	token, err := service.GenerateToken(uuid.New(), "laura@example.com", models.RoleLector)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTWrongSecret(t *testing.T) {
	issuer := auth.NewJWTService("secret-a", 12*time.Hour)
	verifier := auth.NewJWTService("secret-b", 12*time.Hour)

	token, err := issuer.GenerateToken(uuid.New(), "laura@example.com", models.RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTGarbage(t *testing.T) {
	service := auth.NewJWTService("test-secret", 12*time.Hour)

	_, err := service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
