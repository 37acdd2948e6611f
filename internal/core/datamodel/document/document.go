package document

import "time"

// Area groups documents like a folder. It exclusively owns its documents:
// deleting an area cascades to every document inside so no orphan rows
// survive.
type Area struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:nombre;size:100;not null"`
	Description string `gorm:"column:descripcion;size:255"`
	Icon        string `gorm:"column:icono;size:100;default:folder"`

	Documents []Document `gorm:"foreignKey:AreaID;constraint:OnDelete:CASCADE"`
}

func (Area) TableName() string {
	return "areas_documentos"
}

// Document holds PDF metadata plus the payload itself. Data is declared on a
// separate struct so metadata queries never drag the blob out of the
// database; repositories select it explicitly only when serving the file.
type Document struct {
	ID          int64     `gorm:"primaryKey"`
	Title       string    `gorm:"column:titulo;size:200;not null"`
	Version     string    `gorm:"column:version;size:50"`
	Description string    `gorm:"column:descripcion;type:text"`
	Filename    string    `gorm:"column:filename;size:255;not null"`
	Mimetype    string    `gorm:"column:mimetype;size:100;default:application/pdf"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	SHA256      string    `gorm:"column:sha256;size:64"`
	UploadedAt  time.Time `gorm:"column:fecha_subida;index"`
	AreaID      int64     `gorm:"column:area_id;not null;index"`

	Data []byte `gorm:"column:archivo_data;->:false;<-:create"`
}

func (Document) TableName() string {
	return "documentos"
}

// DocumentPayload reads the blob column for the same table. Used only by the
// serve path, where the whole payload is needed in memory anyway.
type DocumentPayload struct {
	ID       int64  `gorm:"primaryKey"`
	Mimetype string `gorm:"column:mimetype"`
	Filename string `gorm:"column:filename"`
	Data     []byte `gorm:"column:archivo_data"`
}

func (DocumentPayload) TableName() string {
	return "documentos"
}
