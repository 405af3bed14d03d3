package audit

import (
	"context"
	"log/slog"

	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/gorm"
)

// Action labels as they appear in the viewer's filter dropdown.
const (
	ActionLogin           = "Inicio de Sesión"
	ActionLogout          = "Cierre de Sesión"
	ActionPasswordChange  = "Cambio de Clave"
	ActionUserCreate      = "Creación de Usuario"
	ActionUserEdit        = "Edición de Usuario"
	ActionUserToggle      = "Cambio de Estado"
	ActionDashboardCreate = "Creación de Dashboard"
	ActionDashboardEdit   = "Edición de Dashboard"
	ActionDashboardToggle = "Cambio de Estado Dashboard"
)

func KnownActions() []string {
	return []string{
		ActionLogin,
		ActionLogout,
		ActionPasswordChange,
		ActionUserCreate,
		ActionUserEdit,
		ActionUserToggle,
		ActionDashboardCreate,
		ActionDashboardEdit,
		ActionDashboardToggle,
	}
}

// Service writes and reads the append-only audit trail. The actor is
// always passed explicitly; there is no ambient current-user lookup.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Record appends one entry using the given handle, which may be a
// transaction. Inside a transaction a failed write rolls the whole
// operation back, which is what keeps mutation-and-log atomic.
func (s *Service) Record(db *gorm.DB, actor *models.User, action, details string) error {
	entry := models.AuditLog{
		Action:  action,
		Details: details,
	}
	if actor != nil {
		id := actor.ID
		entry.UserID = &id
		entry.UserName = actor.Name
	}
	return db.Create(&entry).Error
}

// RecordBestEffort appends an entry outside any transaction and only
// logs failures. Used for authentication events, where a broken audit
// store must not lock users out.
func (s *Service) RecordBestEffort(ctx context.Context, actor *models.User, action, details string) {
	if err := s.Record(s.db.WithContext(ctx), actor, action, details); err != nil {
		s.logger.Error("failed to write audit log", "action", action, "error", err)
	}
}
