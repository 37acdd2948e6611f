package user

import (
	"time"

	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
)

// User is the local authorization record. Identity (name, email, credentials)
// lives in the global directory; this row only decides what the person may do
// inside the repository. The identity relation is resolved at the application
// boundary, never enforced as a database foreign key, because the global
// schema is not under this system's control.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	GlobalUserID int64     `gorm:"column:usuario_global_id;uniqueIndex;not null"`
	RoleID       int64     `gorm:"column:rol_id"`
	IsActive     bool      `gorm:"column:activo;default:true"`
	CreatedAt    time.Time `gorm:"column:fecha_creacion"`

	Role     *Role                        `gorm:"foreignKey:RoleID"`
	Identity *identityDatamodel.GlobalUser `gorm:"-"`
}

func (User) TableName() string {
	return "usuarios"
}

// FullName resolves through the identity relation; the fallback mirrors what
// the admin panel shows when the directory row is gone.
func (u *User) FullName() string {
	if u.Identity != nil {
		return u.Identity.FullName
	}
	return "Usuario Desconocido"
}

func (u *User) Email() string {
	if u.Identity != nil {
		return u.Identity.Email
	}
	return ""
}

func (u *User) PasswordChangeRequired() bool {
	if u.Identity != nil {
		return u.Identity.PasswordChangeDue
	}
	return false
}

func (u *User) RoleName() string {
	if u.Role != nil {
		return u.Role.Name
	}
	return ""
}

type Role struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:nombre;size:50;uniqueIndex;not null"`
}

func (Role) TableName() string {
	return "roles"
}

// Conventional role names. Not a closed enum: the roles table may grow
// without a schema change.
const (
	RoleAdmin    = "Admin"
	RoleDirector = "Director"
	RoleViewer   = "Visualizador"
)
