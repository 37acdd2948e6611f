package document

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service        *Service
	MaxUploadBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = internal.DefaultMaxUploadBytes
	}
	return &Handler{
		BaseHandler:    baseHandler,
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// ListAreas handles GET /admin/areas and GET /repositorio/panel.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Service.ListAreas(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListAreasResponse{Areas: areas})
}

// CreateArea handles POST /admin/area/crear.
func (h *Handler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var dto AreaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	area, err := h.Service.CreateArea(r.Context(), dto, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, area)
}

// EditArea handles POST /admin/area/editar/{id}.
func (h *Handler) EditArea(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	var dto AreaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	area, err := h.Service.EditArea(r.Context(), id, dto, internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, area)
}

// DeleteArea handles POST /admin/area/eliminar/{id}.
func (h *Handler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	if err := h.Service.DeleteArea(r.Context(), id, internal.ActorFromContext(r.Context())); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Área eliminada correctamente."})
}

// AreaDocuments handles GET /admin/area/{id}/documentos and
// GET /repositorio/area/{id}.
func (h *Handler) AreaDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	area, docs, err := h.Service.AreaDocuments(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AreaDocumentsResponse{Area: area, Documents: docs})
}

// UploadDocument handles POST /admin/area/{id}/documentos. The body is a
// multipart form with fields titulo, version, descripcion and the file part
// archivo.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	areaID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	dto, err := h.parseDocumentForm(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.Service.UploadDocument(r.Context(), areaID, UploadDocumentDTO(*dto), internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, doc)
}

// EditDocument handles POST /admin/documento/editar/{id}.
func (h *Handler) EditDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	dto, err := h.parseDocumentForm(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, warning, err := h.Service.EditDocument(r.Context(), id, EditDocumentDTO(*dto), internal.ActorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EditDocumentResponse{Document: doc, Warning: warning})
}

// DeleteDocument handles POST /admin/documento/eliminar/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	if err := h.Service.DeleteDocument(r.Context(), id, internal.ActorFromContext(r.Context())); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Documento eliminado correctamente."})
}

// ViewDocument handles GET /repositorio/documento/{id}/ver, serving the PDF
// inline.
func (h *Handler) ViewDocument(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

// DownloadDocument handles GET /repositorio/documento/{id}/descargar.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "identificador inválido")
		return
	}

	payload, err := h.Service.ServeDocument(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", payload.Mimetype)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, payload.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload.Data); err != nil {
		h.Logger.Error("serve document: write failed", "error", err, "document_id", id)
	}
}

// documentForm is the shared shape of the upload and edit multipart forms.
type documentForm struct {
	Title       string
	Version     string
	Description string
	Filename    string
	Data        []byte
}

func (h *Handler) parseDocumentForm(r *http.Request) (*documentForm, error) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("formulario inválido o archivo demasiado grande")
	}

	form := &documentForm{
		Title:       r.FormValue("titulo"),
		Version:     r.FormValue("version"),
		Description: r.FormValue("descripcion"),
	}

	file, header, err := r.FormFile("archivo")
	if err == http.ErrMissingFile {
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el archivo adjunto")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el archivo adjunto")
	}
	form.Filename = header.Filename
	form.Data = data
	return form, nil
}
