package user

import (
	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/auth"
)

type CreateUserDTO struct {
	FullName            string `json:"nombre_completo"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	RoleID              int64  `json:"rol_id"`
	ForcePasswordChange bool   `json:"forzar_cambio_clave"`
}

func (dto CreateUserDTO) Validate() error {
	if dto.FullName == "" {
		return internal.NewValidationError("el nombre completo es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.Email == "" {
		return internal.NewValidationError("el correo es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.RoleID == 0 {
		return internal.NewValidationError("el rol es obligatorio", internal.ErrCodeValidationFailed)
	}
	if !auth.IsStrongPassword(dto.Password) {
		return internal.ErrWeakPassword
	}
	return nil
}

type LinkIdentityDTO struct {
	GlobalUserID int64 `json:"usuario_global_id"`
	RoleID       int64 `json:"rol_id"`
}

func (dto LinkIdentityDTO) Validate() error {
	if dto.GlobalUserID == 0 {
		return internal.NewValidationError("la identidad es obligatoria", internal.ErrCodeValidationFailed)
	}
	if dto.RoleID == 0 {
		return internal.NewValidationError("el rol es obligatorio", internal.ErrCodeValidationFailed)
	}
	return nil
}

type EditUserDTO struct {
	FullName            string `json:"nombre_completo"`
	Email               string `json:"email"`
	RoleID              int64  `json:"rol_id"`
	ForcePasswordChange bool   `json:"forzar_cambio_clave"`
	// Password rotates the credential only when non-empty.
	Password string `json:"password,omitempty"`
}

func (dto EditUserDTO) Validate() error {
	if dto.FullName == "" {
		return internal.NewValidationError("el nombre completo es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.Email == "" {
		return internal.NewValidationError("el correo es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.RoleID == 0 {
		return internal.NewValidationError("el rol es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.Password != "" && !auth.IsStrongPassword(dto.Password) {
		return internal.ErrWeakPassword
	}
	return nil
}

type ListUsersResponse struct {
	Users   []*User `json:"users"`
	Roles   []Role  `json:"roles_para_filtro"`
	Total   int64   `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}
