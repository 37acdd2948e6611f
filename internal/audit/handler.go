package audit

import (
	"net/http"
	"strconv"
	"time"

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

type LogEntryResponse struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *int64    `json:"usuario_id,omitempty"`
	UserName  string    `json:"usuario_nombre"`
	Action    string    `json:"accion"`
	Details   string    `json:"detalles"`
}

type LogsResponse struct {
	Entries      []LogEntryResponse `json:"entries"`
	Total        int64              `json:"total"`
	Page         int                `json:"page"`
	PerPage      int                `json:"per_page"`
	KnownActions []string           `json:"acciones_posibles"`
}

// ListLogs handles GET /admin/ver_logs?page&usuario_id&accion.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := QueryFilter{
		Action:   r.URL.Query().Get("accion"),
		PageSize: internal.DefaultPageSizeLogs,
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	} else {
		filter.Page = 1
	}

	if rawUserID := r.URL.Query().Get("usuario_id"); rawUserID != "" {
		if userID, err := strconv.ParseInt(rawUserID, 10, 64); err == nil {
			filter.UserID = &userID
		}
	}

	entries, total, err := h.Service.Query(r.Context(), filter)
	if err != nil {
		h.Logger.Error("ListLogs: query failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "no se pudieron cargar los registros")
		return
	}

	resp := LogsResponse{
		Entries:      make([]LogEntryResponse, 0, len(entries)),
		Total:        total,
		Page:         filter.Page,
		PerPage:      filter.PageSize,
		KnownActions: KnownActions,
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, LogEntryResponse{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			UserID:    entry.UserID,
			UserName:  entry.UserName,
			Action:    entry.Action,
			Details:   entry.Details,
		})
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
