package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mahosalu/estadisticas/internal/api/dto"
	"github.com/mahosalu/estadisticas/internal/api/middleware"
	"github.com/mahosalu/estadisticas/internal/auth"
	"github.com/mahosalu/estadisticas/internal/web"
)

type AuthHandler struct {
	authService *auth.Service
	renderer    *Renderer
	jwtExpiry   int // cookie lifetime in seconds
}

func NewAuthHandler(authService *auth.Service, renderer *Renderer, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		renderer:    renderer,
		jwtExpiry:   cookieMaxAge,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if user := h.renderer.CurrentUser(r); user != nil {
		http.Redirect(w, r, RoleHome(user), http.StatusFound)
		return
	}
	h.renderer.Render(w, r, "login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := dto.ParseLoginForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderer.Render(w, r, "login.html", map[string]interface{}{
			"Email":  form.Email,
			"Errors": errs,
		})
		return
	}

	user, token, err := h.authService.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			web.SetFlash(w, "danger", "Credenciales incorrectas.")
		case errors.Is(err, auth.ErrInactiveUser):
			web.SetFlash(w, "warning", "Tu cuenta está desactivada.")
		default:
			web.SetFlash(w, "danger", "No se pudo iniciar sesión. Intenta nuevamente.")
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, token)

	if user.MustChangePassword {
		web.SetFlash(w, "warning", "Por seguridad, debes cambiar tu contraseña ahora.")
		http.Redirect(w, r, "/cambiar_clave", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", fmt.Sprintf("Bienvenido, %s", user.Name))
	http.Redirect(w, r, RoleHome(user), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := h.renderer.CurrentUser(r); user != nil {
		h.authService.Logout(r.Context(), user)
	}
	h.clearSessionCookie(w)
	web.SetFlash(w, "success", "Has cerrado sesión correctamente.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "cambiar_clave.html", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	form := dto.ParsePasswordChangeForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderer.Render(w, r, "cambiar_clave.html", map[string]interface{}{
			"Errors": errs,
		})
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.authService.ChangePassword(r.Context(), userID, form.NewPassword); err != nil {
		web.SetFlash(w, "danger", "Error al actualizar la contraseña.")
		http.Redirect(w, r, "/cambiar_clave", http.StatusSeeOther)
		return
	}

	// Force a fresh login with the new password.
	h.clearSessionCookie(w)
	web.SetFlash(w, "success", "Contraseña actualizada. Inicia sesión nuevamente.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) RequestResetPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "solicitar_reseteo.html", nil)
}

func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	err := h.authService.RequestPasswordReset(r.Context(), email)
	switch {
	case err == nil:
		web.SetFlash(w, "success", fmt.Sprintf("Se ha enviado un enlace a %s.", email))
	case errors.Is(err, auth.ErrUserNotFound):
		web.SetFlash(w, "danger", fmt.Sprintf("El correo %s no se encuentra registrado.", email))
	default:
		web.SetFlash(w, "danger", "No se pudo procesar la solicitud.")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if _, err := h.authService.UserByResetToken(r.Context(), token); err != nil {
		web.SetFlash(w, "danger", "Enlace inválido o expirado.")
		http.Redirect(w, r, "/solicitar-reseteo", http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, r, "resetear_clave.html", map[string]interface{}{
		"Token": token,
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	form := dto.ParsePasswordChangeForm(r)
	if errs := form.Validate(); len(errs) > 0 {
		h.renderer.Render(w, r, "resetear_clave.html", map[string]interface{}{
			"Token":  token,
			"Errors": errs,
		})
		return
	}

	if err := h.authService.ResetPassword(r.Context(), token, form.NewPassword); err != nil {
		web.SetFlash(w, "danger", "Enlace inválido o expirado.")
		http.Redirect(w, r, "/solicitar-reseteo", http.StatusSeeOther)
		return
	}

	web.SetFlash(w, "success", "Contraseña restablecida. Inicia sesión.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.jwtExpiry,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
