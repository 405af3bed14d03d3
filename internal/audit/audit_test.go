package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (*audit.Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return audit.NewService(db, testutil.TestLogger()), db
}

func TestRecord(t *testing.T) {
	service, db := setupAuditService(t)

	actor := testutil.CreateTestAdmin(t, db)

	t.Run("stores the denormalized actor name", func(t *testing.T) {
		err := service.Record(db, actor, audit.ActionUserCreate, "Creó el usuario X.")
		require.NoError(t, err)

		var entry models.AuditLog
		require.NoError(t, db.First(&entry).Error)
		assert.Equal(t, actor.Name, entry.UserName)
		require.NotNil(t, entry.UserID)
		assert.Equal(t, actor.ID, *entry.UserID)
		assert.False(t, entry.Timestamp.IsZero())
	})

	t.Run("the name survives actor deletion", func(t *testing.T) {
		ghost := testutil.CreateTestLector(t, db)
		require.NoError(t, service.Record(db, ghost, audit.ActionLogin, "Inició sesión."))
		require.NoError(t, db.Delete(ghost).Error)

		var entry models.AuditLog
		require.NoError(t, db.Where("action = ?", audit.ActionLogin).First(&entry).Error)
		assert.Equal(t, ghost.Name, entry.UserName)
	})

	t.Run("nil actor is allowed", func(t *testing.T) {
		err := service.Record(db, nil, audit.ActionLogout, "Sesión expirada.")
		require.NoError(t, err)

		var entry models.AuditLog
		require.NoError(t, db.Where("action = ?", audit.ActionLogout).First(&entry).Error)
		assert.Nil(t, entry.UserID)
		assert.Empty(t, entry.UserName)
	})
}

func TestQuery(t *testing.T) {
	service, db := setupAuditService(t)
	ctx := context.Background()

	actorA := testutil.CreateTestAdmin(t, db)
	actorB := testutil.CreateTestLector(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		actor := actorA
		action := audit.ActionLogin
		if i%2 == 1 {
			actor = actorB
			action = audit.ActionUserEdit
		}
		entry := models.AuditLog{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UserID:    &actor.ID,
			UserName:  actor.Name,
			Action:    action,
			Details:   "entrada",
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	t.Run("newest first, fixed page size", func(t *testing.T) {
		page, err := service.Query(ctx, audit.QueryFilters{}, 1, audit.DefaultPerPage)
		require.NoError(t, err)
		assert.EqualValues(t, 20, page.Total)
		assert.Len(t, page.Entries, audit.DefaultPerPage)
		assert.Equal(t, 2, page.TotalPages)

		for i := 1; i < len(page.Entries); i++ {
			assert.False(t, page.Entries[i-1].Timestamp.Before(page.Entries[i].Timestamp))
		}
	})

	t.Run("filters are conjunctive", func(t *testing.T) {
		page, err := service.Query(ctx, audit.QueryFilters{
			UserID: &actorA.ID,
			Action: audit.ActionLogin,
		}, 1, audit.DefaultPerPage)
		require.NoError(t, err)
		assert.EqualValues(t, 10, page.Total)
		for _, e := range page.Entries {
			assert.Equal(t, audit.ActionLogin, e.Action)
			assert.Equal(t, actorA.ID, *e.UserID)
		}
	})

	t.Run("action filter alone", func(t *testing.T) {
		page, err := service.Query(ctx, audit.QueryFilters{Action: audit.ActionUserEdit}, 1, audit.DefaultPerPage)
		require.NoError(t, err)
		assert.EqualValues(t, 10, page.Total)
	})

	t.Run("out of range page is empty, not an error", func(t *testing.T) {
		page, err := service.Query(ctx, audit.QueryFilters{}, 99, audit.DefaultPerPage)
		require.NoError(t, err)
		assert.Empty(t, page.Entries)
		assert.EqualValues(t, 20, page.Total)
	})

	t.Run("QueryAll ignores pagination", func(t *testing.T) {
		entries, err := service.QueryAll(ctx, audit.QueryFilters{})
		require.NoError(t, err)
		assert.Len(t, entries, 20)
	})
}
