package audit

import "time"

// AuditLog rows are append-only: created on every sensitive action, never
// updated or deleted. UserName is denormalized on purpose so entries stay
// readable after the user row changes or disappears.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_logs_timestamp,sort:desc"`
	UserID    *int64    `gorm:"column:usuario_id"`
	UserName  string    `gorm:"column:usuario_nombre;size:255"`
	Action    string    `gorm:"column:accion;size:255;not null"`
	Details   string    `gorm:"column:detalles;type:text"`
}

func (AuditLog) TableName() string {
	return "logs"
}
