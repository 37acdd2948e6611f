package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
)

// User is the admin-panel view of a local account: the authorization row
// plus the fields proxied from the identity directory.
type User struct {
	ID                     int64     `json:"id"`
	GlobalUserID           int64     `json:"usuario_global_id"`
	FullName               string    `json:"nombre_completo"`
	Email                  string    `json:"email"`
	RoleID                 int64     `json:"rol_id"`
	RoleName               string    `json:"rol"`
	IsActive               bool      `json:"activo"`
	PasswordChangeRequired bool      `json:"cambio_clave_requerido"`
	CreatedAt              time.Time `json:"fecha_creacion"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                     u.ID,
		GlobalUserID:           u.GlobalUserID,
		FullName:               u.FullName(),
		Email:                  u.Email(),
		RoleID:                 u.RoleID,
		RoleName:               u.RoleName(),
		IsActive:               u.IsActive,
		PasswordChangeRequired: u.PasswordChangeRequired(),
		CreatedAt:              u.CreatedAt,
	}
}

func RoleFromDataModel(r *userDatamodel.Role) Role {
	return Role{ID: r.ID, Name: r.Name}
}
