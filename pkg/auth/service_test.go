package auth

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/config"
	"github.com/smartfab/model-factory-mes/internal/database"
	"github.com/smartfab/model-factory-mes/internal/middleware"
	"github.com/smartfab/model-factory-mes/internal/models"
)

func newTestAuth(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret: "test-secret-key-that-is-long-enough!",
		JWTExpiry: time.Hour,
	}
	return NewService(db, cfg)
}

func TestLoginIssuesBearerToken(t *testing.T) {
	s := newTestAuth(t)
	ws := uint(6)
	_, err := s.CreateUser("cell6", "cell6123", models.RoleOperator, &ws)
	require.NoError(t, err)

	result, err := s.Login("cell6", "cell6123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	require.NotNil(t, result.User)
	assert.Equal(t, models.RoleOperator, result.User.Role)

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(result.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret-key-that-is-long-enough!"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "cell6", claims.Username)
	assert.Equal(t, models.RoleOperator, claims.Role)
	require.NotNil(t, claims.WorkstationID)
	assert.EqualValues(t, 6, *claims.WorkstationID)
	assert.Equal(t, "cell6", claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestAuth(t)
	_, err := s.CreateUser("admin", "admin123", models.RoleAdmin, nil)
	require.NoError(t, err)

	_, err = s.Login("admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUserUnauthorized, apperrors.As(err).Code)

	_, err = s.Login("ghost", "admin123")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUserUnauthorized, apperrors.As(err).Code)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	s := newTestAuth(t)
	user, err := s.CreateUser("operator", "operator123", models.RoleOperator, nil)
	require.NoError(t, err)
	require.NoError(t, s.Deactivate(user.ID))

	_, err = s.Login("operator", "operator123")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUserUnauthorized, apperrors.As(err).Code)
}

func TestCreateUserValidatesRole(t *testing.T) {
	s := newTestAuth(t)

	_, err := s.CreateUser("odd", "password", "WIZARD", nil)
	require.Error(t, err)
	_, err = s.CreateUser("", "password", models.RoleViewer, nil)
	require.Error(t, err)
}

func TestPasswordsAreStoredHashed(t *testing.T) {
	s := newTestAuth(t)
	user, err := s.CreateUser("hashed", "plaintext", models.RoleViewer, nil)
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
}
