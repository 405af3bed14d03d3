package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrGroupNotFound     = errors.New("group not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidRole       = errors.New("invalid role")
	ErrSelfDeactivation  = errors.New("cannot deactivate own account")
)

type Service struct {
	db    *gorm.DB
	audit *audit.Service
}

func NewService(db *gorm.DB, auditSvc *audit.Service) *Service {
	return &Service{db: db, audit: auditSvc}
}

type CreateUserInput struct {
	Name               string
	Email              string
	Password           string
	Role               models.Role
	MustChangePassword bool
	GroupIDs           []uuid.UUID
	DashboardIDs       []uuid.UUID
}

type UpdateUserInput struct {
	Name               string
	Email              string
	Password           string // empty = unchanged
	Role               models.Role
	MustChangePassword bool
	GroupIDs           []uuid.UUID
	DashboardIDs       []uuid.UUID
}

// CreateUser validates before any row is written: a duplicate email is
// rejected up front so the caller can re-display the form. The user row,
// both grant sets and the audit entry commit in one transaction.
func (s *Service) CreateUser(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", input.Email).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:               input.Name,
		Email:              input.Email,
		PasswordHash:       hash,
		Role:               input.Role,
		IsActive:           true,
		MustChangePassword: input.MustChangePassword,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := s.replaceGrants(tx, &user, input.GroupIDs, input.DashboardIDs); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, audit.ActionUserCreate,
			fmt.Sprintf("Creó el usuario %s (%s) con rol %s.", user.Name, user.Email, user.Role))
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateUser replaces the user's core fields and both grant sets in one
// transaction; on any failure nothing changes, previous grants included.
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != user.Email {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ? AND id <> ?", input.Email, id).Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrEmailTaken
		}
	}

	updates := map[string]interface{}{
		"name":                 input.Name,
		"email":                input.Email,
		"role":                 input.Role,
		"must_change_password": input.MustChangePassword,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return err
		}
		if err := s.replaceGrants(tx, user, input.GroupIDs, input.DashboardIDs); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, audit.ActionUserEdit,
			fmt.Sprintf("Actualizó datos y permisos de %s.", input.Name))
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, id)
}

// SetPermissions replaces both grant sets with exactly the given ids in
// one transaction.
func (s *Service) SetPermissions(ctx context.Context, actor *models.User, userID uuid.UUID, groupIDs, dashboardIDs []uuid.UUID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.replaceGrants(tx, user, groupIDs, dashboardIDs); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, audit.ActionUserEdit,
			fmt.Sprintf("Actualizó permisos de %s.", user.Name))
	})
}

// replaceGrants swaps both association sets. Ids that reference nothing
// are dropped silently rather than aborting the whole edit.
func (s *Service) replaceGrants(tx *gorm.DB, user *models.User, groupIDs, dashboardIDs []uuid.UUID) error {
	var groups []models.Group
	if len(groupIDs) > 0 {
		if err := tx.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			return err
		}
	}
	var dashboards []models.Dashboard
	if len(dashboardIDs) > 0 {
		if err := tx.Where("id IN ?", dashboardIDs).Find(&dashboards).Error; err != nil {
			return err
		}
	}

	if err := tx.Model(user).Association("Groups").Replace(groups); err != nil {
		return err
	}
	return tx.Model(user).Association("Dashboards").Replace(dashboards)
}

// ToggleActive flips a user's active flag. A user can never deactivate
// their own account: the attempt changes nothing and writes no entry.
func (s *Service) ToggleActive(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if actor != nil && actor.ID == id {
		return nil, ErrSelfDeactivation
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	newState := !user.IsActive
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("is_active", newState).Error; err != nil {
			return err
		}
		verb := "desactivado"
		if newState {
			verb = "activado"
		}
		return s.audit.Record(tx, actor, audit.ActionUserToggle,
			fmt.Sprintf("Usuario %s fue %s.", user.Name, verb))
	})
	if err != nil {
		return nil, err
	}

	user.IsActive = newState
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
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

type ListUsersFilters struct {
	Search string // substring of name or email
	Role   models.Role
	State  string // "activo", "inactivo" or empty
}

type UserPage struct {
	Users      []models.User
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

const usersPerPage = 10

// ListUsers returns one page of the admin panel's user table, filtered
// and ordered by name.
func (s *Service) ListUsers(ctx context.Context, filters ListUsersFilters, page int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}

	q := s.db.WithContext(ctx).Model(&models.User{})
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if filters.Role != "" {
		q = q.Where("role = ?", filters.Role)
	}
	switch filters.State {
	case "activo":
		q = q.Where("is_active = ?", true)
	case "inactivo":
		q = q.Where("is_active = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := q.Order("name ASC").
		Offset((page - 1) * usersPerPage).
		Limit(usersPerPage).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + usersPerPage - 1) / usersPerPage)

	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		PerPage:    usersPerPage,
		TotalPages: totalPages,
	}, nil
}

// ListAllUsers returns every user ordered by name, for filter dropdowns.
func (s *Service) ListAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, err
}
