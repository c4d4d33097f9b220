package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"action_items/internal/domain"
	"action_items/internal/testutil"
)

func newSyncService(seed ...domain.Task) (*SyncService, *testutil.TaskStore, *testutil.AuditStore) {
	store := testutil.NewTaskStore(seed...)
	audit := &testutil.AuditStore{}
	svc := NewSyncService(store, NewAuditService(audit))
	svc.now = func() time.Time { return fixedNow }
	return svc, store, audit
}

func rawRecords(t *testing.T, recs ...interface{}) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(recs))
	for _, r := range recs {
		if s, ok := r.(string); ok {
			out = append(out, json.RawMessage(s))
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b)
	}
	return out
}

func recordOf(task domain.Task) domain.SyncRecord {
	return domain.SyncRecordFromTask(task)
}

func TestReconcileCreatesUnknownTasks(t *testing.T) {
	svc, store, audit := newSyncService()
	ctx := context.Background()

	local := seedTask("local-1", "", fixedNow.Add(-time.Minute))
	local.SyncStatus = domain.SyncStatusPending

	res, err := svc.Reconcile(ctx, "alice", rawRecords(t, recordOf(local)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.SyncedTasks) != 1 || len(res.Conflicts) != 0 || len(res.Skipped) != 0 {
		t.Fatalf("result %+v", res)
	}
	got := res.SyncedTasks[0]
	if got.UserID != "alice" || got.SyncStatus != domain.SyncStatusSynced || got.LastSyncedAt == nil {
		t.Fatalf("synced task %+v", got)
	}
	if !got.UpdatedAt.Equal(local.UpdatedAt) {
		t.Fatalf("client updatedAt not kept: %v", got.UpdatedAt)
	}
	if store.Len() != 1 || len(res.ServerTasks) != 1 {
		t.Fatalf("server has %d tasks, reported %d", store.Len(), len(res.ServerTasks))
	}
	if got := audit.Actions(); len(got) != 1 || got[0] != domain.AuditActionSyncBatch {
		t.Fatalf("audit %v", got)
	}
}

func TestReconcileLastWriteWins(t *testing.T) {
	serverTime := fixedNow.Add(-time.Hour)
	svc, _, _ := newSyncService(
		seedTask("newer-client", "alice", serverTime),
		seedTask("older-client", "alice", serverTime),
		seedTask("tie", "alice", serverTime),
	)
	ctx := context.Background()

	newer := seedTask("newer-client", "alice", serverTime.Add(time.Minute))
	newer.Title = "client edit"
	older := seedTask("older-client", "alice", serverTime.Add(-time.Minute))
	older.Title = "stale edit"
	tie := seedTask("tie", "alice", serverTime)
	tie.Title = "tie edit"

	res, err := svc.Reconcile(ctx, "alice", rawRecords(t, recordOf(newer), recordOf(older), recordOf(tie)))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Conflicts) != 1 || res.Conflicts[0].TaskID != "older-client" {
		t.Fatalf("conflicts %+v", res.Conflicts)
	}
	if res.Conflicts[0].ServerVersion.Title != "Task older-client" {
		t.Fatalf("conflict should carry server version, got %+v", res.Conflicts[0].ServerVersion)
	}
	if len(res.SyncedTasks) != 2 {
		t.Fatalf("synced %d", len(res.SyncedTasks))
	}

	titles := map[string]string{}
	for _, task := range res.ServerTasks {
		titles[task.ID] = task.Title
	}
	want := map[string]string{
		"newer-client": "client edit",
		"older-client": "Task older-client",
		"tie":          "tie edit",
	}
	for id, title := range want {
		if titles[id] != title {
			t.Errorf("%s: got %q want %q", id, titles[id], title)
		}
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc, store, _ := newSyncService()
	ctx := context.Background()

	recs := rawRecords(t, recordOf(seedTask("a", "", fixedNow)), recordOf(seedTask("b", "", fixedNow)))
	first, err := svc.Reconcile(ctx, "alice", recs)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Reconcile(ctx, "alice", recs)
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 2 || len(second.Conflicts) != 0 {
		t.Fatalf("second run: %d stored, %d conflicts", store.Len(), len(second.Conflicts))
	}
	if len(first.ServerTasks) != len(second.ServerTasks) {
		t.Fatal("server set changed on replay")
	}
	for i := range first.ServerTasks {
		a, b := first.ServerTasks[i], second.ServerTasks[i]
		if a.ID != b.ID || a.Title != b.Title || !a.UpdatedAt.Equal(b.UpdatedAt) {
			t.Fatalf("task %d differs after replay: %+v vs %+v", i, a, b)
		}
	}
}

func TestReconcileSkipsBadRecords(t *testing.T) {
	foreign := seedTask("taken", "bob", fixedNow)
	svc, store, _ := newSyncService(foreign)
	ctx := context.Background()

	noType := seedTask("no-type", "", fixedNow)
	noType.Type = ""
	good := seedTask("good", "", fixedNow)
	steal := seedTask("taken", "", fixedNow.Add(time.Hour))
	steal.Title = "hijack"

	res, err := svc.Reconcile(ctx, "alice", rawRecords(t,
		`"not an object"`,
		`{"title":"missing id and updatedAt"}`,
		recordOf(noType),
		recordOf(steal),
		recordOf(good),
	))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Skipped) != 4 {
		t.Fatalf("skipped %+v", res.Skipped)
	}
	for i, s := range res.Skipped {
		if s.Index != i || s.Reason == "" {
			t.Errorf("skipped[%d] = %+v", i, s)
		}
	}
	if res.Skipped[3].TaskID != "taken" {
		t.Fatalf("foreign id not reported: %+v", res.Skipped[3])
	}
	if len(res.SyncedTasks) != 1 || res.SyncedTasks[0].ID != "good" {
		t.Fatalf("synced %+v", res.SyncedTasks)
	}

	// the other user's task is untouched
	if store.Len() != 2 {
		t.Fatalf("store has %d tasks", store.Len())
	}
	stored, err := store.GetByID(ctx, "taken")
	if err != nil || stored.UserID != "bob" || stored.Title != "Task taken" {
		t.Fatalf("foreign task modified: %+v %v", stored, err)
	}
}

func TestReconcileEmptyBatchReturnsServerSet(t *testing.T) {
	svc, _, _ := newSyncService(seedTask("a", "alice", fixedNow), seedTask("b", "bob", fixedNow))

	res, err := svc.Reconcile(context.Background(), "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ServerTasks) != 1 || res.ServerTasks[0].ID != "a" {
		t.Fatalf("server tasks %+v", res.ServerTasks)
	}
	if res.SyncedTasks == nil || res.Conflicts == nil || res.Skipped == nil {
		t.Fatal("result lists must be non-nil")
	}
}

func TestReconcileListFailure(t *testing.T) {
	svc, store, _ := newSyncService()
	store.FailList = context.DeadlineExceeded

	if _, err := svc.Reconcile(context.Background(), "alice", nil); err == nil {
		t.Fatal("expected error")
	}
}
