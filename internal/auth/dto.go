package auth

import (
	"github.com/frahmantamala/document-repository/internal"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Email == "" {
		return internal.NewValidationError("el correo es obligatorio", internal.ErrCodeValidationFailed)
	}
	if dto.Password == "" {
		return internal.NewValidationError("la contraseña es obligatoria", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ChangePasswordDTO struct {
	NewPassword     string `json:"nueva_password"`
	ConfirmPassword string `json:"confirmar_password"`
}

func (dto ChangePasswordDTO) Validate() error {
	if dto.ConfirmPassword != "" && dto.NewPassword != dto.ConfirmPassword {
		return internal.ErrPasswordMismatch
	}
	if !IsStrongPassword(dto.NewPassword) {
		return internal.ErrWeakPassword
	}
	return nil
}

type ResetRequestDTO struct {
	Email string `json:"email"`
}

func (dto ResetRequestDTO) Validate() error {
	if dto.Email == "" {
		return internal.NewValidationError("el correo es obligatorio", internal.ErrCodeValidationFailed)
	}
	return nil
}

type LoginResponse struct {
	User     SessionUserResponse `json:"user"`
	Redirect string              `json:"redirect"`
}

type SessionUserResponse struct {
	ID                     int64  `json:"id"`
	FullName               string `json:"nombre_completo"`
	Email                  string `json:"email"`
	Role                   string `json:"rol"`
	PasswordChangeRequired bool   `json:"cambio_clave_requerido"`
}

func ToSessionUserResponse(u *internal.SessionUser) SessionUserResponse {
	return SessionUserResponse{
		ID:                     u.ID,
		FullName:               u.FullName,
		Email:                  u.Email,
		Role:                   u.RoleName,
		PasswordChangeRequired: u.PasswordChangeRequired,
	}
}
