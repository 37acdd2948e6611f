package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	documentDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/document"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAreas(ctx context.Context) ([]*documentDatamodel.Area, map[int64]int64, error) {
	var areas []*documentDatamodel.Area
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&areas).Error; err != nil {
		return nil, nil, err
	}

	type areaCount struct {
		AreaID int64
		Total  int64
	}
	var counts []areaCount
	err := r.db.WithContext(ctx).
		Model(&documentDatamodel.Document{}).
		Select("area_id AS area_id, COUNT(*) AS total").
		Group("area_id").
		Scan(&counts).Error
	if err != nil {
		return nil, nil, err
	}

	byArea := make(map[int64]int64, len(counts))
	for _, c := range counts {
		byArea[c.AreaID] = c.Total
	}
	return areas, byArea, nil
}

func (r *Repository) GetAreaByID(ctx context.Context, id int64) (*documentDatamodel.Area, error) {
	var area documentDatamodel.Area
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &area, nil
}

func (r *Repository) CreateArea(ctx context.Context, area *documentDatamodel.Area) error {
	return r.db.WithContext(ctx).Create(area).Error
}

func (r *Repository) UpdateArea(ctx context.Context, area *documentDatamodel.Area) error {
	return r.db.WithContext(ctx).
		Model(&documentDatamodel.Area{}).
		Where("id = ?", area.ID).
		Updates(map[string]any{
			"nombre":      area.Name,
			"descripcion": area.Description,
			"icono":       area.Icon,
		}).Error
}

// DeleteAreaCascade removes the documents first, then the area, in one
// transaction. The explicit document delete keeps the cascade working on
// engines where the schema constraint is absent.
func (r *Repository) DeleteAreaCascade(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("area_id = ?", id).Delete(&documentDatamodel.Document{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return tx.Where("id = ?", id).Delete(&documentDatamodel.Area{}).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *Repository) ListByArea(ctx context.Context, areaID int64) ([]*documentDatamodel.Document, error) {
	var docs []*documentDatamodel.Document
	err := r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("fecha_subida DESC").
		Find(&docs).Error
	return docs, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*documentDatamodel.Document, error) {
	var doc documentDatamodel.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// GetPayload is the only read that touches the blob column.
func (r *Repository) GetPayload(ctx context.Context, id int64) (*documentDatamodel.DocumentPayload, error) {
	var payload documentDatamodel.DocumentPayload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}

func (r *Repository) Create(ctx context.Context, doc *documentDatamodel.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(doc).Error
	})
}

func (r *Repository) UpdateMetadata(ctx context.Context, doc *documentDatamodel.Document) error {
	return r.db.WithContext(ctx).
		Model(&documentDatamodel.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"titulo":      doc.Title,
			"version":     doc.Version,
			"descripcion": doc.Description,
		}).Error
}

func (r *Repository) ReplacePayload(ctx context.Context, doc *documentDatamodel.Document, data []byte) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&documentDatamodel.Document{}).
			Where("id = ?", doc.ID).
			Updates(map[string]any{
				"titulo":       doc.Title,
				"version":      doc.Version,
				"descripcion":  doc.Description,
				"filename":     doc.Filename,
				"size_bytes":   doc.SizeBytes,
				"sha256":       doc.SHA256,
				"fecha_subida": doc.UploadedAt,
				"archivo_data": data,
			}).Error
	})
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&documentDatamodel.Document{}).Error
}
