package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/api/dto"
	"github.com/mahosalu/estadisticas/internal/database/models"
	"github.com/mahosalu/estadisticas/internal/web"
)

type AdminUserHandler struct {
	adminService *admin.Service
	renderer     *Renderer
}

func NewAdminUserHandler(adminService *admin.Service, renderer *Renderer) *AdminUserHandler {
	return &AdminUserHandler{adminService: adminService, renderer: renderer}
}

func (h *AdminUserHandler) Panel(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	filters := admin.ListUsersFilters{
		Search: r.URL.Query().Get("busqueda"),
		Role:   models.Role(r.URL.Query().Get("rol_filtro")),
		State:  r.URL.Query().Get("estado_filtro"),
	}

	userPage, err := h.adminService.ListUsers(r.Context(), filters, page)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, "admin_panel.html", map[string]interface{}{
		"Page":    userPage,
		"Filters": filters,
		"Roles":   models.AllRoles(),
	})
}

func (h *AdminUserHandler) CreateUserPage(w http.ResponseWriter, r *http.Request) {
	h.renderCreateForm(w, r, dto.UserForm{Role: models.RoleLector}, nil)
}

func (h *AdminUserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := dto.ParseUserForm(r)

	if errs := form.Validate(true); len(errs) > 0 {
		h.renderCreateForm(w, r, form, errs)
		return
	}

	actor := h.renderer.CurrentUser(r)
	user, err := h.adminService.CreateUser(r.Context(), actor, admin.CreateUserInput{
		Name:               form.Name,
		Email:              form.Email,
		Password:           form.Password,
		Role:               form.Role,
		MustChangePassword: form.MustChangePassword,
		GroupIDs:           form.GroupIDs,
		DashboardIDs:       form.DashboardIDs,
	})
	if err != nil {
		if errors.Is(err, admin.ErrEmailTaken) {
			h.renderCreateForm(w, r, form, map[string]string{"email": "Este email ya está registrado"})
			return
		}
		web.SetFlash(w, "danger", "Error al crear el usuario.")
		http.Redirect(w, r, "/admin/crear_usuario", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", fmt.Sprintf("Usuario %s creado con éxito.", user.Name))
	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *AdminUserHandler) EditUserPage(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	form := dto.UserForm{
		Name:               target.Name,
		Email:              target.Email,
		Role:               target.Role,
		MustChangePassword: target.MustChangePassword,
	}
	h.renderEditForm(w, r, target, form, nil)
}

func (h *AdminUserHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := dto.ParseUserForm(r)

	if errs := form.Validate(false); len(errs) > 0 {
		h.renderEditForm(w, r, target, form, errs)
		return
	}

	actor := h.renderer.CurrentUser(r)
	_, err := h.adminService.UpdateUser(r.Context(), actor, target.ID, admin.UpdateUserInput{
		Name:               form.Name,
		Email:              form.Email,
		Password:           form.Password,
		Role:               form.Role,
		MustChangePassword: form.MustChangePassword,
		GroupIDs:           form.GroupIDs,
		DashboardIDs:       form.DashboardIDs,
	})
	if err != nil {
		if errors.Is(err, admin.ErrEmailTaken) {
			h.renderEditForm(w, r, target, form, map[string]string{"email": "Este email ya está registrado"})
			return
		}
		web.SetFlash(w, "danger", "Error al actualizar el usuario.")
		http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", "Datos y permisos actualizados con éxito.")
	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *AdminUserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	actor := h.renderer.CurrentUser(r)
	user, err := h.adminService.ToggleActive(r.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrSelfDeactivation):
			web.SetFlash(w, "danger", "No puedes desactivar tu propia cuenta.")
		case errors.Is(err, admin.ErrUserNotFound):
			http.NotFound(w, r)
			return
		default:
			web.SetFlash(w, "danger", "Error al cambiar el estado.")
		}
		http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
		return
	}

	state := "desactivado"
	if user.IsActive {
		state = "activado"
	}
	web.SetFlash(w, "success", fmt.Sprintf("Usuario %s %s.", user.Name, state))
	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *AdminUserHandler) targetUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	user, err := h.adminService.GetUser(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	return user, true
}

func (h *AdminUserHandler) renderCreateForm(w http.ResponseWriter, r *http.Request, form dto.UserForm, errs map[string]string) {
	groups, dashboards, err := h.catalog(r)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, "crear_usuario.html", map[string]interface{}{
		"Form":       form,
		"Errors":     errs,
		"Roles":      models.AllRoles(),
		"Groups":     groups,
		"Dashboards": dashboards,
	})
}

func (h *AdminUserHandler) renderEditForm(w http.ResponseWriter, r *http.Request, target *models.User, form dto.UserForm, errs map[string]string) {
	groups, dashboards, err := h.catalog(r)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	grantedGroups := make(map[string]bool, len(target.Groups))
	for _, g := range target.Groups {
		grantedGroups[g.ID.String()] = true
	}
	grantedDashboards := make(map[string]bool, len(target.Dashboards))
	for _, d := range target.Dashboards {
		grantedDashboards[d.ID.String()] = true
	}

	h.renderer.Render(w, r, "editar_usuario.html", map[string]interface{}{
		"Target":            target,
		"Form":              form,
		"Errors":            errs,
		"Roles":             models.AllRoles(),
		"Groups":            groups,
		"Dashboards":        dashboards,
		"GrantedGroups":     grantedGroups,
		"GrantedDashboards": grantedDashboards,
	})
}

func (h *AdminUserHandler) catalog(r *http.Request) ([]models.Group, []models.Dashboard, error) {
	groups, err := h.adminService.ListGroups(r.Context())
	if err != nil {
		return nil, nil, err
	}
	dashboards, err := h.adminService.ListDashboards(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return groups, dashboards, nil
}
