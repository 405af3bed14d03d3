package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	protected := middleware.Auth(tc.JWTService)(okHandler())

	t.Run("valid session passes through", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, tc.Token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("missing cookie redirects browsers to login", func(t *testing.T) {
		req := testutil.AnonymousRequest(t, "GET", "/estadisticas/", nil)
		req.Header.Set("Accept", "text/html")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, "garbage")
		req.Header.Set("Accept", "application/json")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("claims land on the context", func(t *testing.T) {
		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, tc.Admin.ID, middleware.GetUserID(r.Context()))
			assert.Equal(t, tc.Admin.Email, middleware.GetUserEmail(r.Context()))
			assert.Equal(t, tc.Admin.Role, middleware.GetUserRole(r.Context()))
			w.WriteHeader(http.StatusOK)
		})
		handler = middleware.Auth(tc.JWTService)(handler)

		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, tc.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	lector := testutil.CreateTestLector(t, tc.DB)
	lectorToken := testutil.GenerateTestToken(t, tc.JWTService, lector)

	protected := middleware.Auth(tc.JWTService)(middleware.RequireAdmin(okHandler()))

	t.Run("admin allowed", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/admin/panel", nil, tc.Token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("lector gets a bare 403", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/admin/panel", nil, lectorToken)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestForcePasswordChange(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	auditService := audit.NewService(tc.DB, testutil.TestLogger())
	authService := auth.NewService(tc.DB, tc.JWTService, auditService, nil, testutil.TestLogger())

	flagged := testutil.CreateTestLector(t, tc.DB)
	require.NoError(t, tc.DB.Model(flagged).Update("must_change_password", true).Error)
	flaggedToken := testutil.GenerateTestToken(t, tc.JWTService, flagged)

	protected := middleware.Auth(tc.JWTService)(
		middleware.ForcePasswordChange(authService)(okHandler()))

	t.Run("flagged user is redirected", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, flaggedToken)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/cambiar_clave", rr.Header().Get("Location"))
	})

	t.Run("regular user passes through", func(t *testing.T) {
		req := testutil.SessionRequest(t, "GET", "/estadisticas/", nil, tc.Token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}
