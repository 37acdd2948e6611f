package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
	"github.com/frahmantamala/document-repository/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List pages through local accounts joined with their identities. Ordering
// follows the identity full name so the admin table reads alphabetically.
func (r *Repository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Joins("JOIN usuarios_global ON usuarios_global.id = usuarios.usuario_global_id")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(usuarios_global.nombre_completo) LIKE LOWER(?) OR LOWER(usuarios_global.email) LIKE LOWER(?)",
			pattern, pattern,
		)
	}
	if filter.RoleID != nil {
		query = query.Where("usuarios.rol_id = ?", *filter.RoleID)
	}
	switch filter.State {
	case "activo":
		query = query.Where("usuarios.activo = ?", true)
	case "inactivo":
		query = query.Where("usuarios.activo = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*userDatamodel.User
	err := query.
		Preload("Role").
		Order("usuarios_global.nombre_completo ASC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachIdentities(ctx, rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Role").Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachIdentities(ctx, []*userDatamodel.User{&row}); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) GetIdentityByEmail(ctx context.Context, email string) (*identityDatamodel.GlobalUser, error) {
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

func (r *Repository) GetIdentityByID(ctx context.Context, id int64) (*identityDatamodel.GlobalUser, error) {
	var identity identityDatamodel.GlobalUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) GetRoleByID(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) ListRoles(ctx context.Context) ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&roles).Error
	return roles, err
}

func (r *Repository) ExistsForGlobalUser(ctx context.Context, globalUserID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("usuario_global_id = ?", globalUserID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateWithIdentity(ctx context.Context, identity *identityDatamodel.GlobalUser, localUser *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		localUser.GlobalUserID = identity.ID
		return tx.Create(localUser).Error
	})
}

func (r *Repository) CreateLocal(ctx context.Context, localUser *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(localUser).Error
}

func (r *Repository) UpdateWithIdentity(ctx context.Context, localUser *userDatamodel.User, identity *identityDatamodel.GlobalUser) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&userDatamodel.User{}).
			Where("id = ?", localUser.ID).
			Update("rol_id", localUser.RoleID).Error
		if err != nil {
			return err
		}
		return tx.Model(&identityDatamodel.GlobalUser{}).
			Where("id = ?", identity.ID).
			Updates(map[string]any{
				"nombre_completo":        identity.FullName,
				"email":                  identity.Email,
				"password_hash":          identity.PasswordHash,
				"cambio_clave_requerido": identity.PasswordChangeDue,
			}).Error
	})
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("activo", active).Error
}

// attachIdentities loads the directory rows for a batch of local users in one
// query. There is no database level foreign key into the identity schema, so
// the association is resolved here.
func (r *Repository) attachIdentities(ctx context.Context, rows []*userDatamodel.User) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.GlobalUserID)
	}

	var identities []*identityDatamodel.GlobalUser
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&identities).Error; err != nil {
		return err
	}
	byID := make(map[int64]*identityDatamodel.GlobalUser, len(identities))
	for _, identity := range identities {
		byID[identity.ID] = identity
	}
	for _, row := range rows {
		row.Identity = byID[row.GlobalUserID]
	}
	return nil
}
