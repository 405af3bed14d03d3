package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/gorm"
)

type DashboardInput struct {
	Title       string
	Description string
	EmbedURL    string
	GroupID     *uuid.UUID
	Orden       int

	// Storage key + original filename; both empty when no new image was
	// uploaded (edits keep the existing one).
	PreviewImage     string
	PreviewImageName string
}

func (s *Service) CreateDashboard(ctx context.Context, actor *models.User, input DashboardInput) (*models.Dashboard, error) {
	dashboard := models.Dashboard{
		Title:            input.Title,
		Description:      input.Description,
		EmbedURL:         input.EmbedURL,
		GroupID:          input.GroupID,
		Orden:            input.Orden,
		PreviewImage:     input.PreviewImage,
		PreviewImageName: input.PreviewImageName,
		IsActive:         true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dashboard).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, audit.ActionDashboardCreate,
			fmt.Sprintf("Creó el dashboard '%s'.", dashboard.Title))
	})
	if err != nil {
		return nil, err
	}

	return &dashboard, nil
}

func (s *Service) UpdateDashboard(ctx context.Context, actor *models.User, id uuid.UUID, input DashboardInput) (*models.Dashboard, error) {
	dashboard, err := s.GetDashboard(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"embed_url":   input.EmbedURL,
		"group_id":    input.GroupID,
		"orden":       input.Orden,
	}
	if input.PreviewImage != "" {
		updates["preview_image"] = input.PreviewImage
		updates["preview_image_name"] = input.PreviewImageName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(dashboard).Updates(updates).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, audit.ActionDashboardEdit,
			fmt.Sprintf("Editó el dashboard '%s'.", input.Title))
	})
	if err != nil {
		return nil, err
	}

	return s.GetDashboard(ctx, id)
}

func (s *Service) ToggleDashboard(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Dashboard, error) {
	dashboard, err := s.GetDashboard(ctx, id)
	if err != nil {
		return nil, err
	}

	newState := !dashboard.IsActive
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(dashboard).Update("is_active", newState).Error; err != nil {
			return err
		}
		verb := "desactivado"
		if newState {
			verb = "activado"
		}
		return s.audit.Record(tx, actor, audit.ActionDashboardToggle,
			fmt.Sprintf("Dashboard '%s' fue %s.", dashboard.Title, verb))
	})
	if err != nil {
		return nil, err
	}

	dashboard.IsActive = newState
	return dashboard, nil
}

func (s *Service) GetDashboard(ctx context.Context, id uuid.UUID) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	err := s.db.WithContext(ctx).Preload("Group").First(&dashboard, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDashboardNotFound
		}
		return nil, err
	}
	return &dashboard, nil
}

// ListDashboards returns the whole catalog for the management view,
// grouped together and in display order. Inactive dashboards are
// included here; only the end-user viewer hides them.
func (s *Service) ListDashboards(ctx context.Context) ([]models.Dashboard, error) {
	var dashboards []models.Dashboard
	err := s.db.WithContext(ctx).
		Preload("Group").
		Order("group_id ASC, orden ASC").
		Find(&dashboards).Error
	return dashboards, err
}

func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// ListGroups returns every group in display order, for assignment and
// catalog forms.
func (s *Service) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.WithContext(ctx).Order("orden ASC, created_at ASC").Find(&groups).Error
	return groups, err
}
