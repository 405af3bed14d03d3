package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

// Reset tokens are valid for one hour from issuance.
const resetTokenTTL = time.Hour

// ResetMailer hands reset emails to the delivery queue. Delivery is
// best effort: the token is already committed when this is called, and
// a failed enqueue is only logged.
type ResetMailer interface {
	EnqueueResetEmail(ctx context.Context, user *models.User, token string) error
}

type Service struct {
	db     *gorm.DB
	jwt    *JWTService
	audit  *audit.Service
	mailer ResetMailer
	logger *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, auditSvc *audit.Service, mailer ResetMailer, logger *slog.Logger) *Service {
	return &Service{db: db, jwt: jwt, audit: auditSvc, mailer: mailer, logger: logger}
}

// Login verifies credentials and returns the user with a signed session
// token. Inactive users are rejected even with correct credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", ErrInactiveUser
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}

	s.audit.RecordBestEffort(ctx, &user, audit.ActionLogin,
		fmt.Sprintf("Usuario %s inició sesión.", user.Name))

	return &user, token, nil
}

// Logout only records the event; the session cookie is cleared by the
// handler.
func (s *Service) Logout(ctx context.Context, user *models.User) {
	s.audit.RecordBestEffort(ctx, user, audit.ActionLogout,
		fmt.Sprintf("Usuario %s cerró sesión.", user.Name))
}

// ChangePassword sets a new password for an authenticated user and
// clears the forced-change flag.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": false,
	}).Error
	if err != nil {
		return err
	}

	s.audit.RecordBestEffort(ctx, user, audit.ActionPasswordChange,
		fmt.Sprintf("Usuario %s cambió su clave.", user.Name))

	return nil
}

// RequestPasswordReset issues a fresh token for the account, replacing
// any previous one, and queues the email after the token has been
// committed. ErrUserNotFound is returned for unknown addresses.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_token":         token,
		"reset_token_expires": expires,
	}).Error
	if err != nil {
		return err
	}

	if s.mailer == nil {
		s.logger.Warn("no mailer configured, reset email not sent", "email", email)
		return nil
	}
	if err := s.mailer.EnqueueResetEmail(ctx, &user, token); err != nil {
		s.logger.Error("failed to enqueue reset email", "email", email, "error", err)
	}

	return nil
}

// UserByResetToken resolves a token without consuming it, so the reset
// form can be shown. Expiry is checked here and again at consumption.
func (s *Service) UserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return nil, ErrInvalidResetToken
	}

	return &user, nil
}

// ResetPassword consumes a token: sets the new password, clears the
// token and the forced-change flag. A consumed token cannot be reused.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.UserByResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_hash":        hash,
		"reset_token":          "",
		"reset_token_expires":  nil,
		"must_change_password": false,
	}).Error
}

// GetUserByID loads a user with grant sets, ready for access checks.
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Groups").
		Preload("Dashboards").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func generateResetToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
