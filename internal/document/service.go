package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/audit"
	documentDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/document"
)

type RepositoryAPI interface {
	ListAreas(ctx context.Context) ([]*documentDatamodel.Area, map[int64]int64, error)
	GetAreaByID(ctx context.Context, id int64) (*documentDatamodel.Area, error)
	CreateArea(ctx context.Context, area *documentDatamodel.Area) error
	UpdateArea(ctx context.Context, area *documentDatamodel.Area) error
	// DeleteAreaCascade removes the area and every document inside it in one
	// transaction, returning how many documents went with it.
	DeleteAreaCascade(ctx context.Context, id int64) (int64, error)

	ListByArea(ctx context.Context, areaID int64) ([]*documentDatamodel.Document, error)
	GetByID(ctx context.Context, id int64) (*documentDatamodel.Document, error)
	GetPayload(ctx context.Context, id int64) (*documentDatamodel.DocumentPayload, error)
	Create(ctx context.Context, doc *documentDatamodel.Document) error
	UpdateMetadata(ctx context.Context, doc *documentDatamodel.Document) error
	// ReplacePayload swaps the stored file and its derived columns together
	// with the text fields, in one transaction.
	ReplacePayload(ctx context.Context, doc *documentDatamodel.Document, data []byte) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo    RepositoryAPI
	auditor audit.Recorder
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		logger:  logger,
	}
}

// ListAreas returns every area with its document count, blob column untouched.
func (s *Service) ListAreas(ctx context.Context) ([]*Area, error) {
	rows, counts, err := s.repo.ListAreas(ctx)
	if err != nil {
		s.logger.Error("list areas failed", "error", err)
		return nil, internal.NewInternalError("error interno", err)
	}
	areas := make([]*Area, 0, len(rows))
	for _, row := range rows {
		areas = append(areas, AreaFromDataModel(row, counts[row.ID]))
	}
	return areas, nil
}

func (s *Service) CreateArea(ctx context.Context, dto AreaDTO, actor *internal.SessionUser) (*Area, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	area := &documentDatamodel.Area{
		Name:        dto.Name,
		Description: dto.Description,
		Icon:        dto.Icon,
	}
	if err := s.repo.CreateArea(ctx, area); err != nil {
		s.logger.Error("create area failed", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("error al crear el área", err)
	}

	s.auditor.Record(ctx, audit.ActionDocuments, fmt.Sprintf("Creó el área '%s'.", area.Name), actor)
	return AreaFromDataModel(area, 0), nil
}

func (s *Service) EditArea(ctx context.Context, id int64, dto AreaDTO, actor *internal.SessionUser) (*Area, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	area, err := s.repo.GetAreaByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}
	if area == nil {
		return nil, internal.ErrAreaNotFound
	}

	area.Name = dto.Name
	area.Description = dto.Description
	area.Icon = dto.Icon
	if err := s.repo.UpdateArea(ctx, area); err != nil {
		s.logger.Error("edit area failed", "error", err, "area_id", id)
		return nil, internal.NewInternalError("error al actualizar el área", err)
	}

	s.auditor.Record(ctx, audit.ActionDocuments, fmt.Sprintf("Editó el área '%s'.", area.Name), actor)
	return AreaFromDataModel(area, 0), nil
}

// DeleteArea removes the area and everything in it. The cascade runs inside
// one transaction so a failure leaves the area intact.
func (s *Service) DeleteArea(ctx context.Context, id int64, actor *internal.SessionUser) error {
	area, err := s.repo.GetAreaByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("error interno", err)
	}
	if area == nil {
		return internal.ErrAreaNotFound
	}

	removed, err := s.repo.DeleteAreaCascade(ctx, id)
	if err != nil {
		s.logger.Error("delete area failed", "error", err, "area_id", id)
		return internal.NewInternalError("error al eliminar el área", err)
	}

	s.auditor.Record(ctx, audit.ActionDocuments,
		fmt.Sprintf("Eliminó el área '%s' y %d documento(s) asociados.", area.Name, removed), actor)
	return nil
}

// AreaDocuments returns an area with the metadata of every document inside.
func (s *Service) AreaDocuments(ctx context.Context, areaID int64) (*Area, []*Document, error) {
	area, err := s.repo.GetAreaByID(ctx, areaID)
	if err != nil {
		return nil, nil, internal.NewInternalError("error interno", err)
	}
	if area == nil {
		return nil, nil, internal.ErrAreaNotFound
	}

	rows, err := s.repo.ListByArea(ctx, areaID)
	if err != nil {
		s.logger.Error("list documents failed", "error", err, "area_id", areaID)
		return nil, nil, internal.NewInternalError("error interno", err)
	}
	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, FromDataModel(row))
	}
	return AreaFromDataModel(area, int64(len(docs))), docs, nil
}

// UploadDocument stores a new PDF. The payload is read fully in memory, its
// SHA-256 digest computed over the raw bytes, and the row written in a single
// transaction so a failure leaves no partial record.
func (s *Service) UploadDocument(ctx context.Context, areaID int64, dto UploadDocumentDTO, actor *internal.SessionUser) (*Document, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	area, err := s.repo.GetAreaByID(ctx, areaID)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}
	if area == nil {
		return nil, internal.ErrAreaNotFound
	}

	digest := sha256.Sum256(dto.Data)
	doc := &documentDatamodel.Document{
		Title:       dto.Title,
		Version:     dto.Version,
		Description: dto.Description,
		Filename:    SanitizeFilename(dto.Filename),
		Mimetype:    "application/pdf",
		SizeBytes:   int64(len(dto.Data)),
		SHA256:      hex.EncodeToString(digest[:]),
		UploadedAt:  internal.NowChile(),
		AreaID:      areaID,
		Data:        dto.Data,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		s.logger.Error("upload document failed", "error", err, "area_id", areaID, "title", dto.Title)
		return nil, internal.NewInternalError("error al guardar el documento", err)
	}

	s.auditor.Record(ctx, audit.ActionDocuments,
		fmt.Sprintf("Subió el documento '%s' al área '%s'.", doc.Title, area.Name), actor)
	return FromDataModel(doc), nil
}

// EditDocument always applies the text fields once the title validates. A
// replacement payload is applied only when its extension is .pdf; otherwise
// the old payload stays and the response carries a warning.
func (s *Service) EditDocument(ctx context.Context, id int64, dto EditDocumentDTO, actor *internal.SessionUser) (*Document, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", internal.NewInternalError("error interno", err)
	}
	if doc == nil {
		return nil, "", internal.ErrDocNotFound
	}

	doc.Title = dto.Title
	doc.Version = dto.Version
	doc.Description = dto.Description

	warning := ""
	switch {
	case dto.HasFile() && IsPDFFilename(dto.Filename):
		digest := sha256.Sum256(dto.Data)
		doc.Filename = SanitizeFilename(dto.Filename)
		doc.SizeBytes = int64(len(dto.Data))
		doc.SHA256 = hex.EncodeToString(digest[:])
		doc.UploadedAt = internal.NowChile()
		if err := s.repo.ReplacePayload(ctx, doc, dto.Data); err != nil {
			s.logger.Error("edit document: payload replace failed", "error", err, "document_id", id)
			return nil, "", internal.NewInternalError("error al actualizar el documento", err)
		}
	case dto.HasFile():
		warning = "El archivo adjunto no es un PDF válido; se conservó el documento anterior."
		if err := s.repo.UpdateMetadata(ctx, doc); err != nil {
			return nil, "", internal.NewInternalError("error al actualizar el documento", err)
		}
	default:
		if err := s.repo.UpdateMetadata(ctx, doc); err != nil {
			return nil, "", internal.NewInternalError("error al actualizar el documento", err)
		}
	}

	s.auditor.Record(ctx, audit.ActionDocuments, fmt.Sprintf("Editó el documento '%s'.", doc.Title), actor)
	return FromDataModel(doc), warning, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id int64, actor *internal.SessionUser) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("error interno", err)
	}
	if doc == nil {
		return internal.ErrDocNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete document failed", "error", err, "document_id", id)
		return internal.NewInternalError("error al eliminar el documento", err)
	}

	s.auditor.Record(ctx, audit.ActionDocuments, fmt.Sprintf("Eliminó el documento '%s'.", doc.Title), actor)
	return nil
}

// ServeDocument loads the payload for viewing or download. A missing row and
// an empty payload both come back as not found so the two cases are
// indistinguishable to the caller.
func (s *Service) ServeDocument(ctx context.Context, id int64) (*Payload, error) {
	payload, err := s.repo.GetPayload(ctx, id)
	if err != nil {
		s.logger.Error("serve document failed", "error", err, "document_id", id)
		return nil, internal.NewInternalError("error interno", err)
	}
	if payload == nil || len(payload.Data) == 0 {
		return nil, internal.ErrDocNotFound
	}
	return &Payload{
		Filename: payload.Filename,
		Mimetype: payload.Mimetype,
		Data:     payload.Data,
	}, nil
}
