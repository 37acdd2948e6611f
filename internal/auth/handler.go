package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Login handles POST /login. On success the session cookie is set and the
// response carries the role-dependent redirect target.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	user, token, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.setSessionCookie(w, token)

	redirect := user.RedirectPath()
	if user.PasswordChangeRequired {
		redirect = "/cambiar_clave"
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		User:     ToSessionUserResponse(user),
		Redirect: redirect,
	})
}

// Logout handles GET /logout for an authenticated session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "sesión no iniciada")
		return
	}

	if err := h.Service.Logout(r.Context(), user); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.clearSessionCookie(w)
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "Has cerrado sesión correctamente.",
		"redirect": "/login",
	})
}

// ChangePassword handles POST /cambiar_clave, both the forced flow and
// voluntary rotation. The session is revoked afterwards so the client must
// log in again.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "sesión no iniciada")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user, dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.clearSessionCookie(w)
	h.WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "Contraseña actualizada. Ingresa nuevamente.",
		"redirect": "/login",
	})
}

// RequestReset handles POST /solicitar-reseteo. Responds 200 with a flash
// message either way; the message text still reveals registration status,
// matching current behavior.
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var dto ResetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	message, err := h.Service.RequestReset(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// ResetPassword handles POST /resetear-clave/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	if err := h.Service.ResetPassword(r.Context(), token, dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "Tu contraseña ha sido restablecida. Inicia sesión.",
		"redirect": "/login",
	})
}

// SessionMiddleware authenticates every request from the session cookie and
// injects the freshly loaded user into the request context.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			h.unauthenticated(w)
			return
		}

		user, err := h.Service.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			h.clearSessionCookie(w)
			h.unauthenticated(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
	})
}

// RequirePasswordChanged blocks every authenticated route while the forced
// password-change flag is set. Mounted after SessionMiddleware on all groups
// except the change-password and logout routes.
func (h *Handler) RequirePasswordChanged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if ok && user.PasswordChangeRequired {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			resp := map[string]string{
				"message":  "Debes cambiar tu contraseña para continuar.",
				"redirect": "/cambiar_clave",
			}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				h.Logger.Error("failed to encode forced-change response", "error", err)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	resp := map[string]string{
		"message":  "Acceso restringido al Repositorio de Dirección.",
		"redirect": "/login",
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("failed to encode unauthenticated response", "error", err)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Service.codec.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
