package identity

import "time"

// GlobalUser maps the organization-wide identity directory. The table lives in
// a schema owned by another system; this application reads it for login and
// only ever writes the password/reset columns.
type GlobalUser struct {
	ID                  int64      `gorm:"primaryKey"`
	RUT                 string     `gorm:"column:rut;size:12"`
	FullName            string     `gorm:"column:nombre_completo;size:255"`
	Email               string     `gorm:"column:email;size:255;uniqueIndex"`
	PasswordHash        string     `gorm:"column:password_hash;size:255"`
	IsActive            bool       `gorm:"column:activo"`
	PasswordChangeDue   bool       `gorm:"column:cambio_clave_requerido"`
	ResetToken          *string    `gorm:"column:reset_token;size:32"`
	ResetTokenExpiresAt *time.Time `gorm:"column:reset_token_expiracion"`
}

func (GlobalUser) TableName() string {
	return "usuarios_global"
}
