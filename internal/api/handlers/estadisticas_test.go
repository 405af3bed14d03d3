package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/access"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/api/handlers"
	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/testutil"
	"github.com/mahosalu/estadisticas/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	t.Helper()
	tc := testutil.NewTestContext(t)

	templates, err := web.LoadTemplates()
	require.NoError(t, err)

	auditService := audit.NewService(tc.DB, testutil.TestLogger())
	authService := auth.NewService(tc.DB, tc.JWTService, auditService, nil, testutil.TestLogger())
	adminService := admin.NewService(tc.DB, auditService)
	evaluator := access.NewEvaluator(tc.DB)
	renderer := handlers.NewRenderer(templates, middleware.NewCSRFStore(), authService)
	handler := handlers.NewStatsHandler(evaluator, adminService, renderer)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/estadisticas/", handler.Groups)
		r.Get("/estadisticas/grupo/{id}", handler.GroupDashboards)
		r.Get("/estadisticas/ver/{id}", handler.ViewDashboard)
	})

	return r, tc
}

func TestViewerCatalogFiltering(t *testing.T) {
	router, tc := setupStatsTestRouter(t)
	defer tc.Cleanup()

	granted := testutil.CreateTestGroup(t, tc.DB, "Urgencias", 1)
	other := testutil.CreateTestGroup(t, tc.DB, "Consultas", 2)

	lector := testutil.CreateTestLector(t, tc.DB)
	testutil.GrantGroup(t, tc.DB, lector, granted)
	lectorToken := testutil.GenerateTestToken(t, tc.JWTService, lector)

	t.Run("lector sees only granted groups", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "Urgencias")
		assert.NotContains(t, rr.Body.String(), "Consultas")
	})

	t.Run("admin sees every active group", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "Urgencias")
		assert.Contains(t, rr.Body.String(), "Consultas")
	})

	t.Run("ungranted group answers 404", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/grupo/"+other.ID.String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("nonexistent group answers the same 404", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/grupo/"+uuid.New().String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestViewerDashboardAccess(t *testing.T) {
	router, tc := setupStatsTestRouter(t)
	defer tc.Cleanup()

	group := testutil.CreateTestGroup(t, tc.DB, "Urgencias", 1)
	grantedDash := testutil.CreateTestDashboard(t, tc.DB, group, "Ingresos diarios")
	otherDash := testutil.CreateTestDashboard(t, tc.DB, group, "Camas ocupadas")

	lector := testutil.CreateTestLector(t, tc.DB)
	testutil.GrantGroup(t, tc.DB, lector, group)
	testutil.GrantDashboard(t, tc.DB, lector, grantedDash)
	lectorToken := testutil.GenerateTestToken(t, tc.JWTService, lector)

	t.Run("group listing intersects with dashboard grants", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/grupo/"+group.ID.String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "Ingresos diarios")
		assert.NotContains(t, rr.Body.String(), "Camas ocupadas")
	})

	t.Run("granted dashboard renders the embed", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/ver/"+grantedDash.ID.String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), grantedDash.EmbedURL)
	})

	t.Run("ungranted dashboard answers 404", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/ver/"+otherDash.ID.String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("nonexistent dashboard answers the same 404", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/ver/"+uuid.New().String(), nil, lectorToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("inactive dashboard is 404 even for admin", func(t *testing.T) {
		require.NoError(t, tc.DB.Model(&models.Dashboard{}).
			Where("id = ?", otherDash.ID).
			Update("is_active", false).Error)

		req := testutil.SessionRequest(t, "GET", "/estadisticas/ver/"+otherDash.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
