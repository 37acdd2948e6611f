package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNameRequired     ErrorCode = "NAME_REQUIRED"
	ErrCodeTitleRequired    ErrorCode = "TITLE_REQUIRED"
	ErrCodeFileRequired     ErrorCode = "FILE_REQUIRED"
	ErrCodeInvalidFileType  ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    ErrorCode = "ACCOUNT_INACTIVE"
	ErrCodeNoRepositoryAccess ErrorCode = "NO_REPOSITORY_ACCESS"
	ErrCodeInvalidResetToken  ErrorCode = "INVALID_RESET_TOKEN"
	ErrCodeInvalidSession     ErrorCode = "INVALID_SESSION"
	ErrCodePasswordChangeDue  ErrorCode = "PASSWORD_CHANGE_REQUIRED"
	ErrCodeSelfDeactivation   ErrorCode = "SELF_DEACTIVATION"

	ErrCodeEmailTaken      ErrorCode = "EMAIL_ALREADY_REGISTERED"
	ErrCodeIdentityLinked  ErrorCode = "IDENTITY_ALREADY_LINKED"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound    ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeAreaNotFound    ErrorCode = "AREA_NOT_FOUND"
	ErrCodeDocNotFound     ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeDocEmptyPayload ErrorCode = "DOCUMENT_EMPTY"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Sentinel errors shared across services. Login failures always collapse to
// ErrInvalidCredentials so the response never distinguishes an unknown email
// from a wrong password.
var (
	ErrInvalidCredentials = NewUnauthorizedError("Correo o contraseña incorrectos.", ErrCodeInvalidCredentials)
	ErrAccountInactive    = NewForbiddenError("Tu cuenta está desactivada. Contacta al administrador.", ErrCodeAccountInactive)
	ErrNoRepositoryAccess = NewForbiddenError("No tienes acceso al repositorio.", ErrCodeNoRepositoryAccess)
	ErrInvalidResetToken  = NewForbiddenError("El enlace es inválido o ha expirado.", ErrCodeInvalidResetToken)
	ErrInvalidSession     = NewUnauthorizedError("Sesión inválida o expirada.", ErrCodeInvalidSession)
	ErrPasswordChangeDue  = NewForbiddenError("Debes cambiar tu contraseña para continuar.", ErrCodePasswordChangeDue)
	ErrWeakPassword       = NewValidationError("La contraseña debe tener 8 caracteres, mayúscula y número.", ErrCodeWeakPassword)
	ErrPasswordMismatch   = NewValidationError("Las contraseñas no coinciden.", ErrCodePasswordMismatch)
	ErrSelfDeactivation   = NewForbiddenError("No puedes desactivar tu propia cuenta.", ErrCodeSelfDeactivation)

	ErrEmailTaken     = NewConflictError("El correo ya está registrado.", ErrCodeEmailTaken)
	ErrIdentityLinked = NewConflictError("La identidad ya está vinculada a un usuario local.", ErrCodeIdentityLinked)
	ErrUserNotFound   = NewNotFoundError("Usuario no encontrado.", ErrCodeUserNotFound)
	ErrRoleNotFound   = NewNotFoundError("Rol no encontrado.", ErrCodeRoleNotFound)
	ErrAreaNotFound   = NewNotFoundError("Área no encontrada.", ErrCodeAreaNotFound)
	ErrDocNotFound    = NewNotFoundError("Documento no encontrado.", ErrCodeDocNotFound)
	ErrDocEmpty       = NewNotFoundError("El archivo no tiene contenido.", ErrCodeDocEmptyPayload)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
