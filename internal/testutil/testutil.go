package testutil

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Dashboard{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "Password123"

// CreateTestAdmin creates an active Admin user
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, models.RoleAdmin)
}

// CreateTestLector creates an active Lector user with no grants
func CreateTestLector(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, models.RoleLector)
}

func createUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name:         "Test " + string(role),
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestGroup creates an active dashboard group
func CreateTestGroup(t *testing.T, db *gorm.DB, name string, orden int) *models.Group {
	t.Helper()

	group := &models.Group{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name:     name,
		Orden:    orden,
		IsActive: true,
	}

	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	return group
}

// CreateTestDashboard creates an active dashboard in the given group
func CreateTestDashboard(t *testing.T, db *gorm.DB, group *models.Group, title string) *models.Dashboard {
	t.Helper()

	dashboard := &models.Dashboard{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:    title,
		EmbedURL: "https://bi.example.com/embed/" + uuid.New().String()[:8],
		IsActive: true,
	}
	if group != nil {
		dashboard.GroupID = &group.ID
	}

	if err := db.Create(dashboard).Error; err != nil {
		t.Fatalf("failed to create test dashboard: %v", err)
	}

	return dashboard
}

// GrantGroup gives the user access to the group
func GrantGroup(t *testing.T, db *gorm.DB, user *models.User, group *models.Group) {
	t.Helper()
	if err := db.Model(user).Association("Groups").Append(group); err != nil {
		t.Fatalf("failed to grant group: %v", err)
	}
}

// GrantDashboard gives the user access to the dashboard
func GrantDashboard(t *testing.T, db *gorm.DB, user *models.User, dashboard *models.Dashboard) {
	t.Helper()
	if err := db.Model(user).Association("Dashboards").Append(dashboard); err != nil {
		t.Fatalf("failed to grant dashboard: %v", err)
	}
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 12*time.Hour)
}

// GenerateTestToken generates a valid session token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// SessionRequest creates an HTTP request carrying the session cookie
func SessionRequest(t *testing.T, method, path string, form url.Values, token string) *http.Request {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}

	return req
}

// AnonymousRequest creates an HTTP request without a session
func AnonymousRequest(t *testing.T, method, path string, form url.Values) *http.Request {
	t.Helper()
	return SessionRequest(t, method, path, form, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// TestLogger returns a logger that discards everything
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSetup holds the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Admin      *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, admin user and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	admin := CreateTestAdmin(t, db)
	token := GenerateTestToken(t, jwtService, admin)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Admin:      admin,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
