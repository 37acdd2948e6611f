package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
	sessionDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
)

// Repository backs the auth service: identity directory reads, the credential
// columns it is allowed to write, local user loads and session persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ---- identities ----

func (r *Repository) GetByEmail(ctx context.Context, email string) (*identityDatamodel.GlobalUser, error) {
	var identity identityDatamodel.GlobalUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) GetByResetToken(ctx context.Context, token string) (*identityDatamodel.GlobalUser, error) {
	var identity identityDatamodel.GlobalUser
	err := r.db.WithContext(ctx).Where("reset_token = ?", token).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&identityDatamodel.GlobalUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token":            token,
			"reset_token_expiracion": expiresAt,
		}).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&identityDatamodel.GlobalUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"cambio_clave_requerido": false,
			"reset_token":            nil,
			"reset_token_expiracion": nil,
		}).Error
}

// ---- local users ----

func (r *Repository) GetByGlobalUserID(ctx context.Context, globalUserID int64) (*userDatamodel.User, error) {
	var localUser userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("usuario_global_id = ?", globalUserID).
		First(&localUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.attachIdentity(ctx, &localUser)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var localUser userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("id = ?", id).
		First(&localUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.attachIdentity(ctx, &localUser)
}

// attachIdentity resolves the cross-schema relation in a second query; there
// is no database foreign key into the external directory.
func (r *Repository) attachIdentity(ctx context.Context, localUser *userDatamodel.User) (*userDatamodel.User, error) {
	var identity identityDatamodel.GlobalUser
	err := r.db.WithContext(ctx).Where("id = ?", localUser.GlobalUserID).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return localUser, nil
		}
		return nil, err
	}
	localUser.Identity = &identity
	return localUser, nil
}

// SessionRepository persists server-side login state. It is a separate type
// because its GetByID keys on the opaque session string, not a numeric user id.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *sessionDatamodel.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	var sess sessionDatamodel.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&sessionDatamodel.Session{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}
