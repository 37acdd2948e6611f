package user

import (
	"encoding/json"
	"net/http"
	"strconv"

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

// ListUsers handles GET /admin/panel?page&busqueda&rol_filtro&estado_filtro.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search:   r.URL.Query().Get("busqueda"),
		State:    r.URL.Query().Get("estado_filtro"),
		PageSize: internal.DefaultPageSizeUsers,
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	} else {
		filter.Page = 1
	}
	if rawRoleID := r.URL.Query().Get("rol_filtro"); rawRoleID != "" {
		if roleID, err := strconv.ParseInt(rawRoleID, 10, 64); err == nil {
			filter.RoleID = &roleID
		}
	}

	users, roles, total, err := h.Service.ListUsers(r.Context(), filter)
	if err != nil {
		h.Logger.Error("ListUsers: query failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "no se pudieron cargar los usuarios")
		return
	}

	h.WriteJSON(w, http.StatusOK, ListUsersResponse{
		Users:   users,
		Roles:   roles,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PageSize,
	})
}

// CreateUser handles POST /admin/crear_usuario.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	created, err := h.Service.CreateUser(r.Context(), dto, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

// LinkIdentity handles POST /admin/vincular_usuario.
func (h *Handler) LinkIdentity(w http.ResponseWriter, r *http.Request) {
	var dto LinkIdentityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	created, err := h.Service.LinkIdentity(r.Context(), dto, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

// GetUser handles GET /admin/editar_usuario/{id}, the edit form payload.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	found, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	roles, err := h.Service.Roles(r.Context())
	if err != nil {
		h.Logger.Error("GetUser: roles lookup failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "no se pudieron cargar los roles")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{
		"user":  found,
		"roles": roles,
	})
}

// EditUser handles POST /admin/editar_usuario/{id}.
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	var dto EditUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	updated, err := h.Service.EditUser(r.Context(), id, dto, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// ToggleActive handles POST /admin/toggle_activo/{id}.
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	updated, err := h.Service.ToggleActive(r.Context(), id, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}
