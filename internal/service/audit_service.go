package service

import (
	"context"

	"action_items/internal/domain"
	"action_items/internal/logger"
)

const maxActivity = 100

// AuditService handles audit logging. A nil *AuditService is valid and
// records nothing.
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry. Failures are logged, never returned.
func (s *AuditService) Log(ctx context.Context, userID, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, "", "", details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID, action, category, ip, userAgent string, details map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// Recent returns the caller's latest audit entries, newest first.
func (s *AuditService) Recent(ctx context.Context, userID string, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []*domain.AuditLog{}, nil
	}
	if limit <= 0 || limit > maxActivity {
		limit = maxActivity
	}
	logs, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	return logs, nil
}

// LogTask logs a task mutation
func (s *AuditService) LogTask(ctx context.Context, userID, action, taskID string) {
	s.Log(ctx, userID, action, domain.AuditCategoryTask, map[string]interface{}{
		"task_id": taskID,
	})
}

// LogSync logs the outcome counts of one reconciliation batch
func (s *AuditService) LogSync(ctx context.Context, userID string, submitted int, res *domain.SyncResult) {
	s.Log(ctx, userID, domain.AuditActionSyncBatch, domain.AuditCategorySync, map[string]interface{}{
		"submitted": submitted,
		"synced":    len(res.SyncedTasks),
		"conflicts": len(res.Conflicts),
		"skipped":   len(res.Skipped),
	})
}
