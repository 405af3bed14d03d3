package dto

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mahosalu/estadisticas/internal/api/validation"
	"github.com/mahosalu/estadisticas/internal/database/models"
)

type LoginForm struct {
	Email    string
	Password string
}

func ParseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
}

func (f LoginForm) Validate() map[string]string {
	errors := make(map[string]string)
	if f.Email == "" {
		errors["email"] = "El email es obligatorio"
	}
	if f.Password == "" {
		errors["password"] = "La contraseña es obligatoria"
	}
	return errors
}

type PasswordChangeForm struct {
	NewPassword     string
	ConfirmPassword string
}

func ParsePasswordChangeForm(r *http.Request) PasswordChangeForm {
	return PasswordChangeForm{
		NewPassword:     r.FormValue("nueva_password"),
		ConfirmPassword: r.FormValue("confirmar_password"),
	}
}

func (f PasswordChangeForm) Validate() map[string]string {
	errors := make(map[string]string)
	if f.NewPassword != f.ConfirmPassword {
		errors["confirmar_password"] = "Las contraseñas no coinciden"
	}
	if ok, msg := validation.IsValidPassword(f.NewPassword); !ok {
		errors["nueva_password"] = msg
	}
	return errors
}

// UserForm covers both the create and edit forms; on edit an empty
// password means "leave it unchanged".
type UserForm struct {
	Name               string
	Email              string
	Password           string
	ConfirmPassword    string
	Role               models.Role
	MustChangePassword bool
	GroupIDs           []uuid.UUID
	DashboardIDs       []uuid.UUID
}

func ParseUserForm(r *http.Request) UserForm {
	return UserForm{
		Name:               r.FormValue("nombre"),
		Email:              r.FormValue("email"),
		Password:           r.FormValue("password"),
		ConfirmPassword:    r.FormValue("confirmar_password"),
		Role:               models.Role(r.FormValue("rol")),
		MustChangePassword: r.FormValue("cambio_clave_requerido") == "on",
		GroupIDs:           parseUUIDList(r.Form["permisos_grupos"]),
		DashboardIDs:       parseUUIDList(r.Form["permisos_dashboards"]),
	}
}

func (f UserForm) Validate(passwordRequired bool) map[string]string {
	errors := make(map[string]string)
	if f.Name == "" {
		errors["nombre"] = "El nombre es obligatorio"
	}
	if !validation.IsValidEmail(f.Email) {
		errors["email"] = "Email inválido"
	}
	if !f.Role.Valid() {
		errors["rol"] = "Rol inválido"
	}
	if passwordRequired || f.Password != "" {
		if f.Password != f.ConfirmPassword {
			errors["confirmar_password"] = "Las contraseñas no coinciden"
		}
		if ok, msg := validation.IsValidPassword(f.Password); !ok {
			errors["password"] = msg
		}
	}
	return errors
}

type DashboardForm struct {
	Title       string
	Description string
	EmbedURL    string
	GroupID     *uuid.UUID
	Orden       int
}

func ParseDashboardForm(r *http.Request) DashboardForm {
	form := DashboardForm{
		Title:       r.FormValue("titulo"),
		Description: r.FormValue("descripcion"),
		EmbedURL:    r.FormValue("url_iframe"),
		Orden:       atoiOrZero(r.FormValue("orden")),
	}
	if raw := r.FormValue("grupo_id"); validation.IsValidUUID(raw) {
		if id, err := uuid.Parse(raw); err == nil {
			form.GroupID = &id
		}
	}
	return form
}

func (f DashboardForm) Validate() map[string]string {
	errors := make(map[string]string)
	if f.Title == "" {
		errors["titulo"] = "El título es obligatorio"
	}
	if f.EmbedURL == "" {
		errors["url_iframe"] = "La URL del iframe es obligatoria"
	}
	return errors
}

// parseUUIDList drops ids that do not parse; the assignment operation
// already skips ids that reference nothing.
func parseUUIDList(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
