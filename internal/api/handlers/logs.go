package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/admin"
	"github.com/mahosalu/estadisticas/internal/audit"
)

type LogHandler struct {
	auditService *audit.Service
	adminService *admin.Service
	renderer     *Renderer
}

func NewLogHandler(auditService *audit.Service, adminService *admin.Service, renderer *Renderer) *LogHandler {
	return &LogHandler{auditService: auditService, adminService: adminService, renderer: renderer}
}

func (h *LogHandler) View(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	filters := parseLogFilters(r)

	logPage, err := h.auditService.Query(r.Context(), filters, page, audit.DefaultPerPage)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	users, err := h.adminService.ListAllUsers(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, "ver_logs.html", map[string]interface{}{
		"Page":    logPage,
		"Users":   users,
		"Actions": audit.KnownActions(),
		"Filters": logFilterView{
			UserID: r.URL.Query().Get("usuario_id"),
			Action: filters.Action,
		},
		"ExportQuery": exportQuery(filters),
	})
}

// logFilterView mirrors the query string so the form can re-select its
// dropdowns.
type logFilterView struct {
	UserID string
	Action string
}

// Export streams every entry matching the current filters, ignoring
// pagination.
func (h *LogHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters := parseLogFilters(r)

	entries, err := h.auditService.QueryAll(r.Context(), filters)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data, err := audit.ExportXLSX(entries)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="logs_auditoria.xlsx"`)
	w.Write(data)
}

func parseLogFilters(r *http.Request) audit.QueryFilters {
	var filters audit.QueryFilters
	if raw := r.URL.Query().Get("usuario_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filters.UserID = &id
		}
	}
	filters.Action = r.URL.Query().Get("accion")
	return filters
}

// exportQuery rebuilds the filter query string for the export link,
// leading "?" included, so the export matches what is on screen.
func exportQuery(filters audit.QueryFilters) string {
	q := url.Values{}
	if filters.UserID != nil {
		q.Set("usuario_id", filters.UserID.String())
	}
	if filters.Action != "" {
		q.Set("accion", filters.Action)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
