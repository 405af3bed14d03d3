package access_test

import (
	"context"
	"testing"

	"github.com/mahosalu/estadisticas/internal/access"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func loadUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	var user models.User
	err := db.Preload("Groups").Preload("Dashboards").First(&user, "id = ?", id).Error
	require.NoError(t, err)
	return &user
}

func TestCanViewGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	admin := testutil.CreateTestAdmin(t, db)
	lector := testutil.CreateTestLector(t, db)
	group := testutil.CreateTestGroup(t, db, "Urgencias", 1)

	t.Run("admin sees any active group", func(t *testing.T) {
		assert.True(t, access.CanViewGroup(admin, group))
	})

	t.Run("admin does not see inactive groups", func(t *testing.T) {
		inactive := testutil.CreateTestGroup(t, db, "Archivo", 2)
		inactive.IsActive = false
		require.NoError(t, db.Save(inactive).Error)
		assert.False(t, access.CanViewGroup(admin, inactive))
	})

	t.Run("lector without grant is denied", func(t *testing.T) {
		assert.False(t, access.CanViewGroup(lector, group))
	})

	t.Run("lector with grant is allowed", func(t *testing.T) {
		testutil.GrantGroup(t, db, lector, group)
		granted := loadUser(t, db, lector.ID.String())
		assert.True(t, access.CanViewGroup(granted, group))
	})
}

func TestCanViewDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	admin := testutil.CreateTestAdmin(t, db)
	lector := testutil.CreateTestLector(t, db)
	group := testutil.CreateTestGroup(t, db, "Urgencias", 1)
	dashboard := testutil.CreateTestDashboard(t, db, group, "Ingresos diarios")

	t.Run("admin sees any active dashboard", func(t *testing.T) {
		assert.True(t, access.CanViewDashboard(admin, dashboard))
	})

	t.Run("inactive dashboard is invisible to everyone", func(t *testing.T) {
		off := testutil.CreateTestDashboard(t, db, group, "Retirado")
		off.IsActive = false
		require.NoError(t, db.Save(off).Error)

		testutil.GrantDashboard(t, db, lector, off)
		granted := loadUser(t, db, lector.ID.String())

		assert.False(t, access.CanViewDashboard(admin, off))
		assert.False(t, access.CanViewDashboard(granted, off))
	})

	t.Run("lector needs an explicit dashboard grant", func(t *testing.T) {
		assert.False(t, access.CanViewDashboard(lector, dashboard))

		testutil.GrantDashboard(t, db, lector, dashboard)
		granted := loadUser(t, db, lector.ID.String())
		assert.True(t, access.CanViewDashboard(granted, dashboard))
	})
}

func TestGrantAxesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	lector := testutil.CreateTestLector(t, db)
	group := testutil.CreateTestGroup(t, db, "Urgencias", 1)
	dashboard := testutil.CreateTestDashboard(t, db, group, "Ingresos diarios")

	// A group grant alone opens the group but none of its dashboards.
	testutil.GrantGroup(t, db, lector, group)
	user := loadUser(t, db, lector.ID.String())

	assert.True(t, access.CanViewGroup(user, group))
	assert.False(t, access.CanViewDashboard(user, dashboard))

	// A dashboard grant alone works without the enclosing group grant.
	other := testutil.CreateTestLector(t, db)
	testutil.GrantDashboard(t, db, other, dashboard)
	user = loadUser(t, db, other.ID.String())

	assert.False(t, access.CanViewGroup(user, group))
	assert.True(t, access.CanViewDashboard(user, dashboard))
}

func TestVisibleGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	evaluator := access.NewEvaluator(db)
	ctx := context.Background()

	admin := testutil.CreateTestAdmin(t, db)
	lector := testutil.CreateTestLector(t, db)

	second := testutil.CreateTestGroup(t, db, "Consultas", 2)
	first := testutil.CreateTestGroup(t, db, "Urgencias", 1)
	inactive := testutil.CreateTestGroup(t, db, "Archivo", 3)
	inactive.IsActive = false
	require.NoError(t, db.Save(inactive).Error)

	t.Run("admin sees active groups in display order", func(t *testing.T) {
		groups, err := evaluator.VisibleGroups(ctx, admin)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, first.ID, groups[0].ID)
		assert.Equal(t, second.ID, groups[1].ID)
	})

	t.Run("lector sees only the granted set, ordered", func(t *testing.T) {
		testutil.GrantGroup(t, db, lector, second)
		testutil.GrantGroup(t, db, lector, first)
		user := loadUser(t, db, lector.ID.String())

		groups, err := evaluator.VisibleGroups(ctx, user)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, first.ID, groups[0].ID)
		assert.Equal(t, second.ID, groups[1].ID)
	})

	t.Run("lector with no grants sees nothing", func(t *testing.T) {
		empty := testutil.CreateTestLector(t, db)
		groups, err := evaluator.VisibleGroups(ctx, empty)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

func TestVisibleDashboards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	evaluator := access.NewEvaluator(db)
	ctx := context.Background()

	admin := testutil.CreateTestAdmin(t, db)
	lector := testutil.CreateTestLector(t, db)
	group := testutil.CreateTestGroup(t, db, "Urgencias", 1)

	granted := testutil.CreateTestDashboard(t, db, group, "Ingresos diarios")
	notGranted := testutil.CreateTestDashboard(t, db, group, "Camas ocupadas")
	inactive := testutil.CreateTestDashboard(t, db, group, "Retirado")
	inactive.IsActive = false
	require.NoError(t, db.Save(inactive).Error)

	testutil.GrantGroup(t, db, lector, group)
	testutil.GrantDashboard(t, db, lector, granted)
	testutil.GrantDashboard(t, db, lector, inactive)

	t.Run("admin sees every active dashboard of the group", func(t *testing.T) {
		dashboards, err := evaluator.VisibleDashboards(ctx, admin, group)
		require.NoError(t, err)
		assert.Len(t, dashboards, 2)
	})

	t.Run("lector sees the granted active intersection", func(t *testing.T) {
		user := loadUser(t, db, lector.ID.String())
		dashboards, err := evaluator.VisibleDashboards(ctx, user, group)
		require.NoError(t, err)
		require.Len(t, dashboards, 1)
		assert.Equal(t, granted.ID, dashboards[0].ID)
		for _, d := range dashboards {
			assert.NotEqual(t, notGranted.ID, d.ID)
		}
	})
}
