package document

import (
	"time"

	documentDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/document"
)

// Area is the API view of a document folder.
type Area struct {
	ID            int64  `json:"id"`
	Name          string `json:"nombre"`
	Description   string `json:"descripcion"`
	Icon          string `json:"icono"`
	DocumentCount int64  `json:"total_documentos"`
}

// Document is the API view of a stored PDF. The payload never travels through
// this struct, only through the serve endpoints.
type Document struct {
	ID          int64     `json:"id"`
	Title       string    `json:"titulo"`
	Version     string    `json:"version"`
	Description string    `json:"descripcion"`
	Filename    string    `json:"filename"`
	Mimetype    string    `json:"mimetype"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	UploadedAt  time.Time `json:"fecha_subida"`
	AreaID      int64     `json:"area_id"`
}

// Payload carries the bytes handed to the HTTP layer for inline viewing or
// download.
type Payload struct {
	Filename string
	Mimetype string
	Data     []byte
}

func AreaFromDataModel(dm *documentDatamodel.Area, documentCount int64) *Area {
	if dm == nil {
		return nil
	}
	return &Area{
		ID:            dm.ID,
		Name:          dm.Name,
		Description:   dm.Description,
		Icon:          dm.Icon,
		DocumentCount: documentCount,
	}
}

func FromDataModel(dm *documentDatamodel.Document) *Document {
	if dm == nil {
		return nil
	}
	return &Document{
		ID:          dm.ID,
		Title:       dm.Title,
		Version:     dm.Version,
		Description: dm.Description,
		Filename:    dm.Filename,
		Mimetype:    dm.Mimetype,
		SizeBytes:   dm.SizeBytes,
		SHA256:      dm.SHA256,
		UploadedAt:  dm.UploadedAt,
		AreaID:      dm.AreaID,
	}
}
