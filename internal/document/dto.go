package document

import (
	"path"
	"strings"

	"github.com/frahmantamala/document-repository/internal"
)

type AreaDTO struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Icon        string `json:"icono"`
}

func (d *AreaDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return internal.NewValidationError("El nombre del área es obligatorio.", internal.ErrCodeValidationFailed)
	}
	if d.Icon == "" {
		d.Icon = "folder"
	}
	return nil
}

// UploadDocumentDTO carries the multipart form fields of an upload. The file
// itself arrives separately as a byte slice plus its original filename.
type UploadDocumentDTO struct {
	Title       string
	Version     string
	Description string
	Filename    string
	Data        []byte
}

func (d *UploadDocumentDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return internal.NewValidationError("El título es obligatorio.", internal.ErrCodeValidationFailed)
	}
	if len(d.Data) == 0 || d.Filename == "" {
		return internal.NewValidationError("Debe adjuntar un archivo PDF.", internal.ErrCodeValidationFailed)
	}
	if !IsPDFFilename(d.Filename) {
		return internal.NewValidationError("Solo se permiten archivos PDF.", internal.ErrCodeValidationFailed)
	}
	return nil
}

// EditDocumentDTO updates title, version and description. A new payload is
// optional; when present it must be a PDF or it is ignored with a warning.
type EditDocumentDTO struct {
	Title       string
	Version     string
	Description string
	Filename    string
	Data        []byte
}

func (d *EditDocumentDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return internal.NewValidationError("El título es obligatorio.", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d *EditDocumentDTO) HasFile() bool {
	return len(d.Data) > 0 && d.Filename != ""
}

// IsPDFFilename accepts any filename whose extension is .pdf, case
// insensitive. Content sniffing is deliberately not performed: the uploader
// is already a trusted admin.
func IsPDFFilename(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

// SanitizeFilename strips directory components and characters that are unsafe
// in a Content-Disposition header.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "documento.pdf"
	}
	return b.String()
}

type ListAreasResponse struct {
	Areas []*Area `json:"areas"`
}

type AreaDocumentsResponse struct {
	Area      *Area       `json:"area"`
	Documents []*Document `json:"documentos"`
}

// EditDocumentResponse reports whether an attached replacement payload was
// accepted. Text updates apply either way.
type EditDocumentResponse struct {
	Document *Document `json:"documento"`
	Warning  string    `json:"warning,omitempty"`
}
