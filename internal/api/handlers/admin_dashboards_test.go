package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/api/handlers"
	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/testutil"
	"github.com/mahosalu/estadisticas/internal/uploads"
	"github.com/mahosalu/estadisticas/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDashboardTestRouter(t *testing.T) (*chi.Mux, *uploads.Store, *testutil.TestSetup) {
	t.Helper()
	tc := testutil.NewTestContext(t)

	templates, err := web.LoadTemplates()
	require.NoError(t, err)

	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	auditService := audit.NewService(tc.DB, testutil.TestLogger())
	authService := auth.NewService(tc.DB, tc.JWTService, auditService, nil, testutil.TestLogger())
	adminService := admin.NewService(tc.DB, auditService)
	renderer := handlers.NewRenderer(templates, middleware.NewCSRFStore(), authService)
	handler := handlers.NewAdminDashboardHandler(adminService, store, renderer)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Post("/admin/crear_dashboard", handler.Create)
	})

	return r, store, tc
}

func dashboardUploadRequest(t *testing.T, fields map[string]string, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	fw, err := mw.CreateFormFile("imagen", "captura.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("imagen"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/admin/crear_dashboard", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	return req
}

func storedFiles(t *testing.T, store *uploads.Store) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	return entries
}

func TestCreateDashboardHandler(t *testing.T) {
	router, store, tc := setupDashboardTestRouter(t)
	defer tc.Cleanup()

	t.Run("valid submission stores the image", func(t *testing.T) {
		req := dashboardUploadRequest(t, map[string]string{
			"titulo":     "Ingresos diarios",
			"url_iframe": "https://bi.example.com/embed/ingresos",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusSeeOther)
		assert.Len(t, storedFiles(t, store), 1)

		var count int64
		require.NoError(t, tc.DB.Model(&models.Dashboard{}).
			Where("title = ?", "Ingresos diarios").Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("rejected submission leaves no file behind", func(t *testing.T) {
		before := len(storedFiles(t, store))

		req := dashboardUploadRequest(t, map[string]string{
			"titulo":     "",
			"url_iframe": "https://bi.example.com/embed/x",
		}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "El título es obligatorio")
		assert.Len(t, storedFiles(t, store), before)
	})
}
