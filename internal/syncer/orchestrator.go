// Package syncer decides, for every client operation, whether it goes to the
// server or to the local cache, and reconciles the two on reconnect.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"action_items/internal/cache"
	"action_items/internal/connectivity"
	"action_items/internal/domain"
	"action_items/internal/logger"

	"github.com/google/uuid"
)

// State is the orchestrator's view of connectivity.
type State int

const (
	Online State = iota
	Offline
)

func (s State) String() string {
	if s == Offline {
		return "offline"
	}
	return "online"
}

var ErrOffline = errors.New("offline")

// API is the subset of the task API the orchestrator uses.
type API interface {
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	CreateTask(ctx context.Context, in domain.NewTask) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Sync(ctx context.Context, records []domain.SyncRecord) (*domain.SyncResult, error)
}

// ListResult is a task listing and where it came from.
type ListResult struct {
	Tasks     []domain.Task
	FromCache bool
	// Stale is set when the server was expected but could not be reached.
	Stale bool
}

type Orchestrator struct {
	api    API
	cache  cache.Store
	notify Notifier
	now    func() time.Time

	mu     sync.RWMutex
	state  State
	userID string
}

// New restores the last known connectivity state from the cache so that a
// process starting offline still syncs on its first Online signal.
func New(ctx context.Context, api API, store cache.Store, notify Notifier) (*Orchestrator, error) {
	if notify == nil {
		notify = Discard
	}
	st, err := store.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cache status: %w", err)
	}
	o := &Orchestrator{api: api, cache: store, notify: notify, now: time.Now}
	if st.Offline {
		o.state = Offline
	}
	return o, nil
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// SetUser sets the owner stamped on tasks created offline.
func (o *Orchestrator) SetUser(id string) {
	o.mu.Lock()
	o.userID = id
	o.mu.Unlock()
}

func (o *Orchestrator) user() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.userID
}

// HandleConnectivity applies a connectivity signal. Going from Offline to
// Online reconciles immediately.
func (o *Orchestrator) HandleConnectivity(ctx context.Context, online bool) error {
	next := Offline
	if online {
		next = Online
	}

	o.mu.Lock()
	prev := o.state
	o.state = next
	o.mu.Unlock()

	if err := o.cache.SetOffline(ctx, !online); err != nil {
		logger.Warn("failed to persist connectivity state", "error", err)
	}
	if prev == next {
		return nil
	}

	logger.Info("connectivity changed", "from", prev.String(), "to", next.String())
	if next == Offline {
		o.notify.Notify(LevelWarning, "You are offline. Changes will be saved locally and synced later.")
		return nil
	}
	_, err := o.Sync(ctx)
	return err
}

// Watch feeds connectivity events into HandleConnectivity until ctx ends or
// events is closed. Sync failures are already reported and do not stop it.
func (o *Orchestrator) Watch(ctx context.Context, events <-chan connectivity.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := o.HandleConnectivity(ctx, ev.Online); err != nil {
				logger.Warn("reconnect sync failed", "error", err)
			}
		}
	}
}

func (o *Orchestrator) List(ctx context.Context, filter domain.TaskFilter) (ListResult, error) {
	if o.State() == Offline {
		tasks, err := o.cachedList(ctx, filter)
		if err != nil {
			o.notify.Notify(LevelError, "Failed to load cached tasks")
			return ListResult{}, err
		}
		o.notify.Notify(LevelInfo, fmt.Sprintf("Offline: showing %d cached tasks", len(tasks)))
		return ListResult{Tasks: tasks, FromCache: true}, nil
	}

	tasks, err := o.api.ListTasks(ctx, filter)
	if err != nil {
		logger.Warn("list from server failed, using cache", "error", err)
		cached, cerr := o.cachedList(ctx, filter)
		if cerr != nil {
			o.notify.Notify(LevelError, "Failed to load tasks")
			return ListResult{}, errors.Join(err, cerr)
		}
		o.notify.Notify(LevelWarning, fmt.Sprintf("Server unreachable: showing %d cached tasks", len(cached)))
		return ListResult{Tasks: cached, FromCache: true, Stale: true}, nil
	}

	if filter.IsZero() {
		err = o.cache.ReplaceAll(ctx, tasks)
	} else {
		for _, t := range tasks {
			if err = o.cache.Add(ctx, t); err != nil {
				break
			}
		}
	}
	if err != nil {
		logger.Warn("failed to mirror tasks into cache", "error", err)
	}

	o.notify.Notify(LevelInfo, fmt.Sprintf("Loaded %d tasks", len(tasks)))
	return ListResult{Tasks: tasks}, nil
}

func (o *Orchestrator) cachedList(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	all, err := o.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all), nil
}

func (o *Orchestrator) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	if err := in.Validate(); err != nil {
		o.notify.Notify(LevelError, err.Error())
		return nil, err
	}

	if o.State() == Offline {
		t := in.Build(uuid.NewString(), o.user(), o.now())
		t.SyncStatus = domain.SyncStatusPending
		if err := o.cache.Add(ctx, t); err != nil {
			o.notify.Notify(LevelError, "Failed to save task locally")
			return nil, err
		}
		o.notify.Notify(LevelSuccess, "Task saved offline. It will sync when you reconnect.")
		return &t, nil
	}

	t, err := o.api.CreateTask(ctx, in)
	if err != nil {
		o.notify.Notify(LevelError, "Failed to create task: "+err.Error())
		return nil, err
	}
	if err := o.cache.Add(ctx, *t); err != nil {
		logger.Warn("failed to cache created task", "task_id", t.ID, "error", err)
	}
	o.notify.Notify(LevelSuccess, "Task created")
	return t, nil
}

func (o *Orchestrator) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if o.State() == Offline {
		t, err := o.updateCached(ctx, id, patch)
		if err != nil {
			o.notify.Notify(LevelError, "Failed to update task: "+err.Error())
			return nil, err
		}
		o.notify.Notify(LevelSuccess, "Task updated offline. It will sync when you reconnect.")
		return t, nil
	}

	t, err := o.api.UpdateTask(ctx, id, patch)
	if err != nil {
		o.notify.Notify(LevelError, "Failed to update task: "+err.Error())
		return nil, err
	}
	if err := o.cache.Update(ctx, *t); err != nil {
		logger.Warn("failed to cache updated task", "task_id", t.ID, "error", err)
	}
	o.notify.Notify(LevelSuccess, "Task updated")
	return t, nil
}

func (o *Orchestrator) updateCached(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	cur, err := o.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*cur)
	if err := domain.ValidateTask(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = domain.NextUpdatedAt(cur.UpdatedAt, o.now())
	next.SyncStatus = domain.SyncStatusPending
	if err := o.cache.Update(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete removes a task. Offline deletes only touch the cache and are not
// replayed to the server, so the task comes back on the next sync.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if o.State() == Offline {
		if err := o.cache.Delete(ctx, id); err != nil {
			o.notify.Notify(LevelError, "Failed to delete task locally")
			return err
		}
		o.notify.Notify(LevelSuccess, "Task deleted locally")
		return nil
	}

	if err := o.api.DeleteTask(ctx, id); err != nil {
		o.notify.Notify(LevelError, "Failed to delete task: "+err.Error())
		return err
	}
	if err := o.cache.Delete(ctx, id); err != nil {
		logger.Warn("failed to remove task from cache", "task_id", id, "error", err)
	}
	o.notify.Notify(LevelSuccess, "Task deleted")
	return nil
}

// ToggleComplete flips a task between completed and todo. Online, the
// current status is read from the server; the cache is the fallback.
func (o *Orchestrator) ToggleComplete(ctx context.Context, id string) (*domain.Task, error) {
	var (
		cur *domain.Task
		err error
	)
	if o.State() == Online {
		cur, err = o.api.GetTask(ctx, id)
		if err != nil {
			logger.Warn("server read failed, using cached task", "task_id", id, "error", err)
		}
	}
	if cur == nil {
		cur, err = o.cache.Get(ctx, id)
	}
	if err != nil {
		o.notify.Notify(LevelError, "Task not found")
		return nil, err
	}

	status := cur.Status.Toggled()
	return o.Update(ctx, id, domain.TaskPatch{Status: &status})
}

// Sync submits every cached task for reconciliation and replaces the cache
// with the server's authoritative set.
func (o *Orchestrator) Sync(ctx context.Context) (*domain.SyncResult, error) {
	if o.State() == Offline {
		o.notify.Notify(LevelWarning, "Cannot sync while offline")
		return nil, ErrOffline
	}

	local, err := o.cache.All(ctx)
	if err != nil {
		o.notify.Notify(LevelError, "Sync failed: could not read local tasks")
		return nil, err
	}
	records := make([]domain.SyncRecord, 0, len(local))
	for _, t := range local {
		records = append(records, domain.SyncRecordFromTask(t))
	}

	res, err := o.api.Sync(ctx, records)
	if err != nil {
		o.notify.Notify(LevelError, "Sync failed: "+err.Error())
		return nil, err
	}

	if err := o.cache.ReplaceAll(ctx, res.ServerTasks); err != nil {
		o.notify.Notify(LevelError, "Sync failed: could not update local tasks")
		return nil, err
	}
	if err := o.cache.SetLastSynced(ctx, o.now()); err != nil {
		logger.Warn("failed to record sync time", "error", err)
	}

	msg := fmt.Sprintf("Synced %d tasks", len(res.SyncedTasks))
	switch {
	case len(res.Conflicts) > 0:
		o.notify.Notify(LevelWarning, fmt.Sprintf("%s, %d conflicts kept the server version", msg, len(res.Conflicts)))
	case len(res.Skipped) > 0:
		o.notify.Notify(LevelWarning, fmt.Sprintf("%s, %d skipped", msg, len(res.Skipped)))
	default:
		o.notify.Notify(LevelSuccess, msg)
	}
	return res, nil
}
