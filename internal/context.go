package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "sessionUser"

// SessionUser is the request-scoped view of the authenticated user. It is
// loaded fresh from the database on every request by the session middleware;
// handlers and services receive it explicitly instead of reading ambient
// state.
type SessionUser struct {
	ID                     int64
	GlobalUserID           int64
	FullName               string
	Email                  string
	RoleName               string
	IsActive               bool
	PasswordChangeRequired bool
	SessionID              string
}

func (u *SessionUser) IsAdmin() bool {
	return u.RoleName == "Admin"
}

func (u *SessionUser) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.RoleName == role {
			return true
		}
	}
	return false
}

// RedirectPath is where the user lands after login: admins go to the admin
// panel, every other role goes to the repository panel.
func (u *SessionUser) RedirectPath() string {
	if u.IsAdmin() {
		return "/admin/panel"
	}
	return "/repositorio/panel"
}

func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*SessionUser)
	return user, ok
}

// ActorFromContext returns the authenticated user or nil. Handy where the
// caller tolerates anonymous actors, like audit attribution.
func ActorFromContext(ctx context.Context) *SessionUser {
	user, _ := UserFromContext(ctx)
	return user
}

func ContextWithUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
