package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"action_items/internal/domain"
	"action_items/internal/logger"
	"action_items/internal/metrics"
	"action_items/internal/repository"
)

// SyncService merges a client's task set into the caller's server set with
// last-write-wins on updatedAt.
type SyncService struct {
	store TaskStore
	audit *AuditService
	now   func() time.Time
}

func NewSyncService(store TaskStore, audit *AuditService) *SyncService {
	return &SyncService{store: store, audit: audit, now: time.Now}
}

const (
	outcomeCreated  = "created"
	outcomeAccepted = "accepted"
	outcomeConflict = "conflict"
	outcomeSkipped  = "skipped"
)

// Reconcile processes records in order. A record that cannot be decoded,
// validated or stored is logged and reported in Skipped; it never fails the
// batch. Only failing to read back the caller's task set is an error.
func (s *SyncService) Reconcile(ctx context.Context, userID string, records []json.RawMessage) (*domain.SyncResult, error) {
	start := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(start).Seconds()) }()

	log := logger.With("user_id", userID)
	res := &domain.SyncResult{
		SyncedTasks: []domain.Task{},
		Conflicts:   []domain.SyncConflict{},
		Skipped:     []domain.SkippedRecord{},
	}

	for i, raw := range records {
		id, err := s.reconcileOne(ctx, userID, raw, res)
		if err != nil {
			log.Warn("sync record skipped", "index", i, "task_id", id, "error", err)
			res.Skipped = append(res.Skipped, domain.SkippedRecord{TaskID: id, Index: i, Reason: err.Error()})
			metrics.SyncRecords.WithLabelValues(outcomeSkipped).Inc()
		}
	}

	all, err := s.store.List(ctx, userID, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("load server tasks: %w", err)
	}
	res.ServerTasks = all

	log.Info("sync batch reconciled",
		"submitted", len(records),
		"synced", len(res.SyncedTasks),
		"conflicts", len(res.Conflicts),
		"skipped", len(res.Skipped),
	)
	s.audit.LogSync(ctx, userID, len(records), res)
	return res, nil
}

// reconcileOne returns the record id (when known) and why it was skipped.
func (s *SyncService) reconcileOne(ctx context.Context, userID string, raw json.RawMessage, res *domain.SyncResult) (string, error) {
	var rec domain.SyncRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("malformed record: %w", err)
	}
	if err := domain.Validate(&rec); err != nil {
		return rec.ID, err
	}

	existing, err := s.store.GetForUser(ctx, rec.ID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		existing = nil
	case err != nil:
		return rec.ID, fmt.Errorf("lookup: %w", err)
	}

	now := s.now()
	if existing == nil {
		t := rec.ToTask(userID, nil, now)
		if err := domain.ValidateTask(t); err != nil {
			return rec.ID, err
		}
		if err := s.store.Create(ctx, &t); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return rec.ID, errors.New("id belongs to another user")
			}
			return rec.ID, fmt.Errorf("create: %w", err)
		}
		res.SyncedTasks = append(res.SyncedTasks, t)
		metrics.SyncRecords.WithLabelValues(outcomeCreated).Inc()
		return rec.ID, nil
	}

	if domain.ResolveConflict(existing.UpdatedAt, rec.UpdatedAt.Time) == domain.ServerWins {
		res.Conflicts = append(res.Conflicts, domain.SyncConflict{
			TaskID:        rec.ID,
			ServerVersion: *existing,
			ClientVersion: rec,
		})
		metrics.SyncRecords.WithLabelValues(outcomeConflict).Inc()
		return rec.ID, nil
	}

	t := rec.ToTask(userID, existing, now)
	if err := domain.ValidateTask(t); err != nil {
		return rec.ID, err
	}
	if err := s.store.Replace(ctx, &t); err != nil {
		return rec.ID, fmt.Errorf("replace: %w", err)
	}
	res.SyncedTasks = append(res.SyncedTasks, t)
	metrics.SyncRecords.WithLabelValues(outcomeAccepted).Inc()
	return rec.ID, nil
}
