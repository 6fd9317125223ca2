package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/config"
	"github.com/smartfab/model-factory-mes/internal/middleware"
	"github.com/smartfab/model-factory-mes/internal/models"
)

// Service issues bearer tokens and manages user accounts. No session state is
// kept on the server; a token is self-contained until it expires.
type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// LoginResult is the wire shape of a successful authentication.
type LoginResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Login verifies the credentials against the stored salted hash and issues a
// token. Invalid credentials and disabled accounts are indistinguishable to
// the caller.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Forbidden(apperrors.CodeUserUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden(apperrors.CodeUserUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Forbidden(apperrors.CodeUserUnauthorized, "invalid credentials")
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	return s.issue(&user)
}

// Refresh re-issues a token for an already authenticated user.
func (s *Service) Refresh(userID uint) (*LoginResult, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden(apperrors.CodeUserUnauthorized, "account disabled")
	}
	return s.issue(user)
}

func (s *Service) issue(user *models.User) (*LoginResult, error) {
	expiresAt := time.Now().Add(s.cfg.JWTExpiry)
	claims := middleware.Claims{
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Role,
		WorkstationID: user.WorkstationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserUnauthorized, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) ListUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("id").Find(&users).Error
	return users, err
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(username, password, role string, workstationID *uint) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.BadRequest(apperrors.CodeUserUnauthorized, "username and password are required")
	}
	switch role {
	case models.RoleAdmin, models.RoleOperator, models.RoleCustomer, models.RoleViewer:
	default:
		return nil, apperrors.BadRequest(apperrors.CodeUserUnauthorized, "unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:      username,
		PasswordHash:  string(hash),
		Role:          role,
		WorkstationID: workstationID,
		IsActive:      true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Deactivate disables an account without deleting its audit trail.
func (s *Service) Deactivate(id uint) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("is_active", false).Error
}
