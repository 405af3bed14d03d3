package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/api/dto"
	"github.com/mahosalu/estadisticas/internal/uploads"
	"github.com/mahosalu/estadisticas/internal/web"
)

// Uploaded preview images are small; anything above this is rejected
// by ParseMultipartForm.
const maxUploadSize = 5 << 20

type AdminDashboardHandler struct {
	adminService *admin.Service
	store        *uploads.Store
	renderer     *Renderer
}

func NewAdminDashboardHandler(adminService *admin.Service, store *uploads.Store, renderer *Renderer) *AdminDashboardHandler {
	return &AdminDashboardHandler{adminService: adminService, store: store, renderer: renderer}
}

func (h *AdminDashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	dashboards, err := h.adminService.ListDashboards(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, "admin_dashboards.html", map[string]interface{}{
		"Dashboards": dashboards,
	})
}

func (h *AdminDashboardHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "/admin/crear_dashboard", nil, dto.DashboardForm{}, nil)
}

func (h *AdminDashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, key, name, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	if errs := form.Validate(); len(errs) > 0 {
		h.discardUpload(key)
		h.renderForm(w, r, "/admin/crear_dashboard", nil, form, errs)
		return
	}

	actor := h.renderer.CurrentUser(r)
	_, err := h.adminService.CreateDashboard(r.Context(), actor, admin.DashboardInput{
		Title:            form.Title,
		Description:      form.Description,
		EmbedURL:         form.EmbedURL,
		GroupID:          form.GroupID,
		Orden:            form.Orden,
		PreviewImage:     key,
		PreviewImageName: name,
	})
	if err != nil {
		web.SetFlash(w, "danger", "Error al crear el dashboard.")
		http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", "Dashboard creado con éxito.")
	http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
}

func (h *AdminDashboardHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	dashboard, err := h.adminService.GetDashboard(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form := dto.DashboardForm{
		Title:       dashboard.Title,
		Description: dashboard.Description,
		EmbedURL:    dashboard.EmbedURL,
		GroupID:     dashboard.GroupID,
		Orden:       dashboard.Orden,
	}
	h.renderForm(w, r, "/admin/editar_dashboard/"+id.String(), dashboard, form, nil)
}

func (h *AdminDashboardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	dashboard, err := h.adminService.GetDashboard(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form, key, name, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	action := "/admin/editar_dashboard/" + id.String()
	if errs := form.Validate(); len(errs) > 0 {
		h.discardUpload(key)
		h.renderForm(w, r, action, dashboard, form, errs)
		return
	}

	actor := h.renderer.CurrentUser(r)
	_, err = h.adminService.UpdateDashboard(r.Context(), actor, id, admin.DashboardInput{
		Title:            form.Title,
		Description:      form.Description,
		EmbedURL:         form.EmbedURL,
		GroupID:          form.GroupID,
		Orden:            form.Orden,
		PreviewImage:     key,
		PreviewImageName: name,
	})
	if err != nil {
		web.SetFlash(w, "danger", "Error al actualizar el dashboard.")
		http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", "Dashboard actualizado con éxito.")
	http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
}

func (h *AdminDashboardHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	actor := h.renderer.CurrentUser(r)
	dashboard, err := h.adminService.ToggleDashboard(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, admin.ErrDashboardNotFound) {
			http.NotFound(w, r)
			return
		}
		web.SetFlash(w, "danger", "Error al cambiar el estado del dashboard.")
		http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
		return
	}

	state := "desactivado"
	if dashboard.IsActive {
		state = "activado"
	}
	web.SetFlash(w, "success", "Dashboard "+state+".")
	http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
}

// parseForm reads the multipart dashboard form and stores the preview
// image when one was uploaded. key and name stay empty otherwise.
func (h *AdminDashboardHandler) parseForm(w http.ResponseWriter, r *http.Request) (form dto.DashboardForm, key, name string, ok bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return form, "", "", false
	}
	form = dto.ParseDashboardForm(r)

	file, header, err := r.FormFile("imagen")
	if err != nil {
		// no file selected
		return form, "", "", true
	}
	defer file.Close()

	key, err = h.store.Save(header.Filename, file)
	if err != nil {
		web.SetFlash(w, "danger", "Formato de imagen no permitido.")
		http.Redirect(w, r, "/admin/dashboards", http.StatusSeeOther)
		return form, "", "", false
	}
	return form, key, header.Filename, true
}

// discardUpload drops an image that was stored before its form failed
// validation, so rejected submissions leave nothing behind.
func (h *AdminDashboardHandler) discardUpload(key string) {
	if key != "" {
		_ = h.store.Remove(key)
	}
}

func (h *AdminDashboardHandler) renderForm(w http.ResponseWriter, r *http.Request, action string, target interface{}, form dto.DashboardForm, errs map[string]string) {
	groups, err := h.adminService.ListGroups(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, "dashboard_form.html", map[string]interface{}{
		"Action": action,
		"Target": target,
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
	})
}
