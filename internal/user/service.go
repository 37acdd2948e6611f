package user

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/audit"
	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
)

type ListFilter struct {
	// Search matches case-insensitive substrings of the identity full name or
	// email.
	Search   string
	RoleID   *int64
	State    string // "activo", "inactivo" or empty for both
	Page     int
	PageSize int
}

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetIdentityByEmail(ctx context.Context, email string) (*identityDatamodel.GlobalUser, error)
	GetIdentityByID(ctx context.Context, id int64) (*identityDatamodel.GlobalUser, error)
	GetRoleByID(ctx context.Context, id int64) (*userDatamodel.Role, error)
	ListRoles(ctx context.Context) ([]*userDatamodel.Role, error)
	ExistsForGlobalUser(ctx context.Context, globalUserID int64) (bool, error)
	// CreateWithIdentity persists a new identity row and its local
	// authorization record in one transaction.
	CreateWithIdentity(ctx context.Context, identity *identityDatamodel.GlobalUser, localUser *userDatamodel.User) error
	CreateLocal(ctx context.Context, localUser *userDatamodel.User) error
	// UpdateWithIdentity writes the local role plus the identity fields the
	// admin panel edits, in one transaction.
	UpdateWithIdentity(ctx context.Context, localUser *userDatamodel.User, identity *identityDatamodel.GlobalUser) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type Service struct {
	repo       RepositoryAPI
	auditor    audit.Recorder
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo RepositoryAPI, auditor audit.Recorder, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		auditor:    auditor,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// ListUsers returns a page of local accounts ordered by the identity full
// name, with the role list for the filter dropdown.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]*User, []Role, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = internal.DefaultPageSizeUsers
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		return nil, nil, 0, err
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}

	roleRows, err := s.repo.ListRoles(ctx)
	if err != nil {
		s.logger.Error("list roles failed", "error", err)
		return nil, nil, 0, err
	}
	roles := make([]Role, 0, len(roleRows))
	for _, roleRow := range roleRows {
		roles = append(roles, RoleFromDataModel(roleRow))
	}

	return users, roles, total, nil
}

// CreateUser registers a new identity and its local authorization record in
// one transaction.
func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO, actor *internal.SessionUser) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetIdentityByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("create user: email lookup failed", "error", err)
		return nil, internal.NewInternalError("error interno", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailTaken
	}

	if role, err := s.repo.GetRoleByID(ctx, dto.RoleID); err != nil {
		return nil, internal.NewInternalError("error interno", err)
	} else if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}

	identity := &identityDatamodel.GlobalUser{
		FullName:          dto.FullName,
		Email:             dto.Email,
		PasswordHash:      string(hash),
		IsActive:          true,
		PasswordChangeDue: dto.ForcePasswordChange,
	}
	localUser := &userDatamodel.User{
		RoleID:    dto.RoleID,
		IsActive:  true,
		CreatedAt: internal.NowChile(),
	}

	if err := s.repo.CreateWithIdentity(ctx, identity, localUser); err != nil {
		s.logger.Error("create user failed", "error", err, "email", dto.Email)
		return nil, internal.NewInternalError("error al crear usuario", err)
	}
	localUser.Identity = identity

	s.auditor.Record(ctx, audit.ActionUserCreate, fmt.Sprintf("Admin creó a %s (%s)", dto.FullName, dto.Email), actor)
	return FromDataModel(localUser), nil
}

// LinkIdentity grants repository access to an existing directory identity.
// Fails when the identity is already linked: at most one local account per
// identity.
func (s *Service) LinkIdentity(ctx context.Context, dto LinkIdentityDTO, actor *internal.SessionUser) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	identity, err := s.repo.GetIdentityByID(ctx, dto.GlobalUserID)
	if err != nil {
		s.logger.Error("link identity: lookup failed", "error", err)
		return nil, internal.NewInternalError("error interno", err)
	}
	if identity == nil {
		return nil, internal.ErrUserNotFound
	}

	if role, err := s.repo.GetRoleByID(ctx, dto.RoleID); err != nil {
		return nil, internal.NewInternalError("error interno", err)
	} else if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	linked, err := s.repo.ExistsForGlobalUser(ctx, dto.GlobalUserID)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}
	if linked {
		return nil, internal.ErrIdentityLinked
	}

	localUser := &userDatamodel.User{
		GlobalUserID: dto.GlobalUserID,
		RoleID:       dto.RoleID,
		IsActive:     true,
		CreatedAt:    internal.NowChile(),
	}
	if err := s.repo.CreateLocal(ctx, localUser); err != nil {
		s.logger.Error("link identity failed", "error", err, "global_user_id", dto.GlobalUserID)
		return nil, internal.NewInternalError("error al vincular usuario", err)
	}
	localUser.Identity = identity

	s.auditor.Record(ctx, audit.ActionUserCreate, fmt.Sprintf("Admin vinculó a %s (%s)", identity.FullName, identity.Email), actor)
	return FromDataModel(localUser), nil
}

// EditUser updates the role (the only locally owned field) and writes the
// edited identity fields through to the directory record.
func (s *Service) EditUser(ctx context.Context, id int64, dto EditUserDTO, actor *internal.SessionUser) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	localUser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("edit user: lookup failed", "error", err, "user_id", id)
		return nil, internal.NewInternalError("error interno", err)
	}
	if localUser == nil || localUser.Identity == nil {
		return nil, internal.ErrUserNotFound
	}

	other, err := s.repo.GetIdentityByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}
	if other != nil && other.ID != localUser.GlobalUserID {
		return nil, internal.ErrEmailTaken
	}

	if role, err := s.repo.GetRoleByID(ctx, dto.RoleID); err != nil {
		return nil, internal.NewInternalError("error interno", err)
	} else if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	localUser.RoleID = dto.RoleID
	localUser.Role = nil
	identity := localUser.Identity
	identity.FullName = dto.FullName
	identity.Email = dto.Email
	identity.PasswordChangeDue = dto.ForcePasswordChange

	if dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("error interno", err)
		}
		identity.PasswordHash = string(hash)
	}

	if err := s.repo.UpdateWithIdentity(ctx, localUser, identity); err != nil {
		s.logger.Error("edit user failed", "error", err, "user_id", id)
		return nil, internal.NewInternalError("error al actualizar usuario", err)
	}

	s.auditor.Record(ctx, audit.ActionUserEdit, fmt.Sprintf("Admin editó a %s", identity.FullName), actor)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil || updated == nil {
		return FromDataModel(localUser), nil
	}
	return FromDataModel(updated), nil
}

// ToggleActive flips the active flag. A user can never deactivate their own
// account.
func (s *Service) ToggleActive(ctx context.Context, id int64, actor *internal.SessionUser) (*User, error) {
	if actor != nil && actor.ID == id {
		return nil, internal.ErrSelfDeactivation
	}

	localUser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("toggle active: lookup failed", "error", err, "user_id", id)
		return nil, internal.NewInternalError("error interno", err)
	}
	if localUser == nil {
		return nil, internal.ErrUserNotFound
	}

	newState := !localUser.IsActive
	if err := s.repo.SetActive(ctx, id, newState); err != nil {
		s.logger.Error("toggle active failed", "error", err, "user_id", id)
		return nil, internal.NewInternalError("error al cambiar estado", err)
	}
	localUser.IsActive = newState

	state := "desactivado"
	if newState {
		state = "activado"
	}
	s.auditor.Record(ctx, audit.ActionUserToggle, fmt.Sprintf("Usuario %s fue %s.", localUser.FullName(), state), actor)

	return FromDataModel(localUser), nil
}

// GetByID loads a single account for the edit form.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	localUser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("error interno", err)
	}
	if localUser == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(localUser), nil
}

// Roles lists every role for form dropdowns.
func (s *Service) Roles(ctx context.Context) ([]Role, error) {
	roleRows, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(roleRows))
	for _, roleRow := range roleRows {
		roles = append(roles, RoleFromDataModel(roleRow))
	}
	return roles, nil
}
