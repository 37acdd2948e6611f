package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/document-repository/internal/audit"
	auditDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) Query(ctx context.Context, filter audit.QueryFilter) ([]*auditDatamodel.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("usuario_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("accion = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*auditDatamodel.AuditLog
	err := query.
		Order("timestamp DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&entries).Error
	return entries, total, err
}
