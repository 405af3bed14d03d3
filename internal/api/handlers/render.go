package handlers

import (
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/web"
)

// Renderer executes page templates with the shared chrome every view
// needs: the signed-in user, the pending flash and the CSRF token.
type Renderer struct {
	templates *template.Template
	csrf      *middleware.CSRFStore
	users     *auth.Service
}

func NewRenderer(templates *template.Template, csrf *middleware.CSRFStore, users *auth.Service) *Renderer {
	return &Renderer{templates: templates, csrf: csrf, users: users}
}

func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	if _, ok := data["User"]; !ok {
		data["User"] = rn.CurrentUser(r)
	}
	data["Flash"] = web.PopFlash(w, r)
	if rn.csrf != nil {
		data["CSRFToken"] = middleware.GetCSRFToken(r, rn.csrf)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rn.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// CurrentUser loads the authenticated user with grant sets, or nil on
// anonymous pages.
func (rn *Renderer) CurrentUser(r *http.Request) *models.User {
	id := middleware.GetUserID(r.Context())
	if id == uuid.Nil {
		return nil
	}
	user, err := rn.users.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

// RoleHome is where a fresh session lands.
func RoleHome(user *models.User) string {
	if user.Role.BypassesGrants() {
		return "/admin/panel"
	}
	return "/estadisticas/"
}
