package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/access"
	"github.com/mahosalu/estadisticas/internal/admin"
)

// StatsHandler serves the viewer side: the group catalog and the
// embedded dashboards. Denied and nonexistent resources are both
// answered with 404 so the response never reveals whether an id
// exists.
type StatsHandler struct {
	evaluator    *access.Evaluator
	adminService *admin.Service
	renderer     *Renderer
}

func NewStatsHandler(evaluator *access.Evaluator, adminService *admin.Service, renderer *Renderer) *StatsHandler {
	return &StatsHandler{evaluator: evaluator, adminService: adminService, renderer: renderer}
}

func (h *StatsHandler) Groups(w http.ResponseWriter, r *http.Request) {
	user := h.renderer.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	groups, err := h.evaluator.VisibleGroups(r.Context(), user)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, "grupos.html", map[string]interface{}{
		"Groups": groups,
	})
}

func (h *StatsHandler) GroupDashboards(w http.ResponseWriter, r *http.Request) {
	user := h.renderer.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	group, err := h.adminService.GetGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, admin.ErrGroupNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !access.CanViewGroup(user, group) {
		http.NotFound(w, r)
		return
	}

	dashboards, err := h.evaluator.VisibleDashboards(r.Context(), user, group)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, "grupo_dashboards.html", map[string]interface{}{
		"Group":      group,
		"Dashboards": dashboards,
	})
}

func (h *StatsHandler) ViewDashboard(w http.ResponseWriter, r *http.Request) {
	user := h.renderer.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	dashboard, err := h.adminService.GetDashboard(r.Context(), id)
	if err != nil {
		if errors.Is(err, admin.ErrDashboardNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !access.CanViewDashboard(user, dashboard) {
		http.NotFound(w, r)
		return
	}

	h.renderer.Render(w, r, "ver_dashboard.html", map[string]interface{}{
		"Dashboard": dashboard,
	})
}
