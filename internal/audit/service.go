package audit

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/document-repository/internal"
	auditDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/audit"
)

type RepositoryAPI interface {
	Append(ctx context.Context, entry *auditDatamodel.AuditLog) error
	Query(ctx context.Context, filter QueryFilter) ([]*auditDatamodel.AuditLog, int64, error)
}

type QueryFilter struct {
	UserID   *int64
	Action   string
	Page     int
	PageSize int
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends an entry, swallowing any write failure: audit logging never
// blocks the action that triggered it.
func (s *Service) Record(ctx context.Context, action, details string, actor *internal.SessionUser) {
	entry := &auditDatamodel.AuditLog{
		Timestamp: internal.NowChile(),
		Action:    action,
		Details:   details,
		UserName:  "Sistema/Anónimo",
	}
	if actor != nil {
		if actor.ID != 0 {
			userID := actor.ID
			entry.UserID = &userID
		}
		if actor.FullName != "" {
			entry.UserName = actor.FullName
		}
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("audit: failed to record entry", "error", err, "action", action)
	}
}

// Query returns entries newest first with exact user/action filters.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]*auditDatamodel.AuditLog, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = internal.DefaultPageSizeLogs
	}

	entries, total, err := s.repo.Query(ctx, filter)
	if err != nil {
		s.logger.Error("audit: query failed", "error", err)
		return nil, 0, err
	}
	return entries, total, nil
}
