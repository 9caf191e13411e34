package service

import (
	"context"

	"pawhome/internal/model"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
)

// AuditService exposes the moderation trail to admins.
type AuditService interface {
	List(ctx context.Context, caller Caller, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	audits repository.AuditRepository
}

func NewAuditService(audits repository.AuditRepository) AuditService {
	return &auditService{audits: audits}
}

func (s *auditService) List(ctx context.Context, caller Caller, page, limit int) ([]model.AuditLog, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperr.Forbiddenf("only admins may read the audit trail")
	}
	logs, total, err := s.audits.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list audit entries", err)
	}
	return logs, total, nil
}
