package api

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mahosalu/estadisticas/internal/access"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/api/handlers"
	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/audit"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/uploads"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Logger       *slog.Logger
	JWTService   *auth.JWTService
	AuthService  *auth.Service
	AdminService *admin.Service
	AuditService *audit.Service
	Evaluator    *access.Evaluator
	Uploads      *uploads.Store
	Templates    *template.Template
	StaticFS     fs.FS

	CookieMaxAge   int // session cookie lifetime in seconds
	AllowedOrigins []string
	RateLimitReqs  int // per credential endpoint, per window
	RateLimitSecs  int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	csrfStore := middleware.NewCSRFStore()
	renderer := handlers.NewRenderer(cfg.Templates, csrfStore, cfg.AuthService)

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, renderer, cfg.CookieMaxAge)
	userHandler := handlers.NewAdminUserHandler(cfg.AdminService, renderer)
	dashboardHandler := handlers.NewAdminDashboardHandler(cfg.AdminService, cfg.Uploads, renderer)
	logHandler := handlers.NewLogHandler(cfg.AuditService, cfg.AdminService, renderer)
	statsHandler := handlers.NewStatsHandler(cfg.Evaluator, cfg.AdminService, renderer)

	r.Get("/health", healthHandler.Health)

	// Credential endpoints get their own rate limit. CSRF only covers
	// authenticated forms; these are anonymous and carry no session to
	// key a token on.
	r.Group(func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
		}

		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
		r.Get("/solicitar-reseteo", authHandler.RequestResetPage)
		r.Post("/solicitar-reseteo", authHandler.RequestReset)
		r.Get("/resetear-clave/{token}", authHandler.ResetPasswordPage)
		r.Post("/resetear-clave/{token}", authHandler.ResetPassword)
	})

	// Everything below needs a session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService))
		r.Use(middleware.CSRF(csrfStore))

		// Reachable even with a pending mandatory password change.
		r.Get("/cambiar_clave", authHandler.ChangePasswordPage)
		r.Post("/cambiar_clave", authHandler.ChangePassword)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ForcePasswordChange(cfg.AuthService))

			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				user := renderer.CurrentUser(req)
				if user == nil {
					http.Redirect(w, req, "/login", http.StatusSeeOther)
					return
				}
				http.Redirect(w, req, handlers.RoleHome(user), http.StatusSeeOther)
			})

			r.Route("/estadisticas", func(r chi.Router) {
				r.Get("/", statsHandler.Groups)
				r.Get("/grupo/{id}", statsHandler.GroupDashboards)
				r.Get("/ver/{id}", statsHandler.ViewDashboard)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/panel", userHandler.Panel)
				r.Get("/crear_usuario", userHandler.CreateUserPage)
				r.Post("/crear_usuario", userHandler.CreateUser)
				r.Get("/editar_usuario/{id}", userHandler.EditUserPage)
				r.Post("/editar_usuario/{id}", userHandler.EditUser)
				r.Post("/toggle_activo/{id}", userHandler.ToggleActive)

				r.Get("/dashboards", dashboardHandler.List)
				r.Get("/crear_dashboard", dashboardHandler.CreatePage)
				r.Post("/crear_dashboard", dashboardHandler.Create)
				r.Get("/editar_dashboard/{id}", dashboardHandler.EditPage)
				r.Post("/editar_dashboard/{id}", dashboardHandler.Edit)
				r.Post("/toggle_dashboard/{id}", dashboardHandler.Toggle)

				r.Get("/ver_logs", logHandler.View)
				r.Get("/exportar_logs_xlsx", logHandler.Export)
			})
		})
	})

	if cfg.StaticFS != nil {
		fileServer := http.FileServer(http.FS(cfg.StaticFS))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}
	if cfg.Uploads != nil {
		uploadServer := http.FileServer(http.Dir(cfg.Uploads.Dir()))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadServer))
	}

	return &Router{r}
}
