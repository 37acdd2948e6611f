package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/audit"
	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
	sessionDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
)

// IdentityRepository reads and updates the global identity directory. Only the
// credential and reset columns are ever written; everything else belongs to
// the external system.
type IdentityRepository interface {
	GetByEmail(ctx context.Context, email string) (*identityDatamodel.GlobalUser, error)
	GetByResetToken(ctx context.Context, token string) (*identityDatamodel.GlobalUser, error)
	SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error
	// UpdatePassword overwrites the hash and clears the reset token and the
	// forced-change flag in one statement.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// LocalUserRepository loads the authorization record linked to an identity,
// with role and identity relations resolved.
type LocalUserRepository interface {
	GetByGlobalUserID(ctx context.Context, globalUserID int64) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *sessionDatamodel.Session) error
	GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	Revoke(ctx context.Context, id string) error
}

// ResetMailer delivers the password-reset link. Failures are infrastructure
// errors: logged, never surfaced with detail to the requester.
type ResetMailer interface {
	SendPasswordReset(email, fullName, link string) error
}

type Service struct {
	identities IdentityRepository
	users      LocalUserRepository
	sessions   SessionRepository
	codec      *SessionCodec
	auditor    audit.Recorder
	mailer     ResetMailer
	logger     *slog.Logger

	bcryptCost    int
	resetTokenTTL time.Duration
	baseURL       string
}

func NewService(
	identities IdentityRepository,
	users LocalUserRepository,
	sessions SessionRepository,
	codec *SessionCodec,
	auditor audit.Recorder,
	mailer ResetMailer,
	logger *slog.Logger,
	bcryptCost int,
	resetTokenTTL time.Duration,
	baseURL string,
) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if resetTokenTTL == 0 {
		resetTokenTTL = internal.DefaultResetTokenTTL
	}
	return &Service{
		identities:    identities,
		users:         users,
		sessions:      sessions,
		codec:         codec,
		auditor:       auditor,
		mailer:        mailer,
		logger:        logger,
		bcryptCost:    bcryptCost,
		resetTokenTTL: resetTokenTTL,
		baseURL:       baseURL,
	}
}

// Login verifies credentials against the identity directory and requires an
// active local authorization record. Credential failures always collapse to
// the same error; authorization failures are distinct.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*internal.SessionUser, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	identity, err := s.identities.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("login: identity lookup failed", "error", err)
		return nil, "", internal.NewInternalError("error interno", err)
	}
	if identity == nil {
		return nil, "", internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, "", internal.ErrInvalidCredentials
	}

	if !identity.IsActive {
		return nil, "", internal.ErrAccountInactive
	}

	localUser, err := s.users.GetByGlobalUserID(ctx, identity.ID)
	if err != nil {
		s.logger.Error("login: local user lookup failed", "error", err, "global_user_id", identity.ID)
		return nil, "", internal.NewInternalError("error interno", err)
	}
	if localUser == nil || !localUser.IsActive {
		return nil, "", internal.ErrNoRepositoryAccess
	}
	localUser.Identity = identity

	sess := &sessionDatamodel.Session{
		ID:        NewSessionID(),
		UserID:    localUser.ID,
		ExpiresAt: time.Now().Add(s.codec.TTL()),
		CreatedAt: internal.NowChile(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.Error("login: session create failed", "error", err, "user_id", localUser.ID)
		return nil, "", internal.NewInternalError("error interno", err)
	}

	token, err := s.codec.Encode(sess.ID)
	if err != nil {
		s.logger.Error("login: session encode failed", "error", err)
		return nil, "", internal.NewInternalError("error interno", err)
	}

	sessionUser := s.toSessionUser(localUser, sess.ID)
	s.auditor.Record(ctx, audit.ActionLogin, fmt.Sprintf("Usuario %s accedió.", sessionUser.FullName), sessionUser)

	return sessionUser, token, nil
}

// Logout revokes the server-side session. The audit entry is written before
// revocation so the actor is still attributable.
func (s *Service) Logout(ctx context.Context, user *internal.SessionUser) error {
	s.auditor.Record(ctx, audit.ActionLogout, "Usuario salió del sistema.", user)

	if err := s.sessions.Revoke(ctx, user.SessionID); err != nil {
		s.logger.Error("logout: session revoke failed", "error", err, "session_id", user.SessionID)
		return internal.NewInternalError("error interno", err)
	}
	return nil
}

// ChangePassword rotates the password for the current user. Used both for the
// forced-change flow and voluntary rotation; the session is revoked so the
// user authenticates again with the new credential.
func (s *Service) ChangePassword(ctx context.Context, user *internal.SessionUser, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("error interno", err)
	}

	if err := s.identities.UpdatePassword(ctx, user.GlobalUserID, string(hash)); err != nil {
		s.logger.Error("change password: update failed", "error", err, "global_user_id", user.GlobalUserID)
		return internal.NewInternalError("error interno", err)
	}

	s.auditor.Record(ctx, audit.ActionPasswordChange, "Usuario actualizó su contraseña obligatoria.", user)

	if err := s.sessions.Revoke(ctx, user.SessionID); err != nil {
		s.logger.Warn("change password: session revoke failed", "error", err, "session_id", user.SessionID)
	}
	return nil
}

// RequestReset issues a reset token valid for one hour and triggers the email
// side effect. The flash message still differs between registered and unknown
// addresses, matching long-standing behavior.
func (s *Service) RequestReset(ctx context.Context, dto ResetRequestDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		return "", err
	}

	identity, err := s.identities.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("reset request: identity lookup failed", "error", err)
		return "", internal.NewInternalError("error interno", err)
	}
	if identity == nil {
		return fmt.Sprintf("El correo %s no está registrado.", dto.Email), nil
	}

	token, err := GenerateResetToken()
	if err != nil {
		return "", internal.NewInternalError("error interno", err)
	}

	// naive Chilean wall-clock time, compared strictly on redemption
	expiresAt := internal.NowChile().Add(s.resetTokenTTL)
	if err := s.identities.SetResetToken(ctx, identity.ID, token, expiresAt); err != nil {
		s.logger.Error("reset request: token persist failed", "error", err, "global_user_id", identity.ID)
		return "", internal.NewInternalError("error interno", err)
	}

	link := fmt.Sprintf("%s/resetear-clave/%s", s.baseURL, token)
	if err := s.mailer.SendPasswordReset(identity.Email, identity.FullName, link); err != nil {
		s.logger.Error("reset request: mail send failed", "error", err, "email", identity.Email)
		return "", internal.NewInternalError("no se pudo enviar el correo", err)
	}

	return fmt.Sprintf("Se ha enviado un enlace a %s.", dto.Email), nil
}

// ResetPassword redeems a reset token. The expiry comparison is a strict
// less-than against the current Chilean wall-clock time.
func (s *Service) ResetPassword(ctx context.Context, token string, dto ChangePasswordDTO) error {
	identity, err := s.identities.GetByResetToken(ctx, token)
	if err != nil {
		s.logger.Error("reset password: token lookup failed", "error", err)
		return internal.NewInternalError("error interno", err)
	}

	now := internal.NowChile()
	if identity == nil || identity.ResetTokenExpiresAt == nil || identity.ResetTokenExpiresAt.Before(now) {
		return internal.ErrInvalidResetToken
	}

	if err := dto.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("error interno", err)
	}

	if err := s.identities.UpdatePassword(ctx, identity.ID, string(hash)); err != nil {
		s.logger.Error("reset password: update failed", "error", err, "global_user_id", identity.ID)
		return internal.NewInternalError("error interno", err)
	}

	actor := &internal.SessionUser{GlobalUserID: identity.ID, FullName: identity.FullName, Email: identity.Email}
	s.auditor.Record(ctx, audit.ActionPasswordReset, fmt.Sprintf("Usuario %s recuperó su clave.", identity.Email), actor)
	return nil
}

// ResolveSession turns a cookie value into a fresh SessionUser. The user and
// role are reloaded from the database so deactivation and role changes take
// effect immediately, not at next login.
func (s *Service) ResolveSession(ctx context.Context, cookieValue string) (*internal.SessionUser, error) {
	sessionID, err := s.codec.Decode(cookieValue)
	if err != nil {
		return nil, internal.ErrInvalidSession
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		s.logger.Error("resolve session: lookup failed", "error", err, "session_id", sessionID)
		return nil, internal.NewInternalError("error interno", err)
	}
	if sess == nil || sess.Revoked || time.Now().After(sess.ExpiresAt) {
		return nil, internal.ErrInvalidSession
	}

	localUser, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		s.logger.Error("resolve session: user load failed", "error", err, "user_id", sess.UserID)
		return nil, internal.NewInternalError("error interno", err)
	}
	if localUser == nil || !localUser.IsActive {
		return nil, internal.ErrInvalidSession
	}

	return s.toSessionUser(localUser, sessionID), nil
}

func (s *Service) toSessionUser(u *userDatamodel.User, sessionID string) *internal.SessionUser {
	return &internal.SessionUser{
		ID:                     u.ID,
		GlobalUserID:           u.GlobalUserID,
		FullName:               u.FullName(),
		Email:                  u.Email(),
		RoleName:               u.RoleName(),
		IsActive:               u.IsActive,
		PasswordChangeRequired: u.PasswordChangeRequired(),
		SessionID:              sessionID,
	}
}
