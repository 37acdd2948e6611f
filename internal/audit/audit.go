package audit

import (
	"context"

	"github.com/frahmantamala/document-repository/internal"
)

// Action labels are a known-but-unenforced set: the column stores free text,
// these constants keep the writers consistent and feed the filter dropdown.
const (
	ActionLogin          = "Inicio de Sesión"
	ActionLogout         = "Cierre de Sesión"
	ActionUserCreate     = "Creación Usuario"
	ActionUserEdit       = "Edición Usuario"
	ActionUserToggle     = "Cambio Estado"
	ActionPasswordChange = "Cambio de Clave"
	ActionPasswordReset  = "Recuperación Clave"
	ActionDocuments      = "Gestión Documental"
)

// KnownActions feeds the admin log filter.
var KnownActions = []string{
	ActionLogin,
	ActionLogout,
	ActionUserCreate,
	ActionUserEdit,
	ActionUserToggle,
	ActionPasswordChange,
	ActionPasswordReset,
	ActionDocuments,
}

// Recorder appends an audit entry. Implementations are best-effort: a failed
// write must never propagate to the action being audited.
type Recorder interface {
	Record(ctx context.Context, action, details string, actor *internal.SessionUser)
}
