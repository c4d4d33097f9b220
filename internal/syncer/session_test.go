package syncer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"action_items/internal/cache"
	"action_items/internal/client"
	"action_items/internal/domain"
	"action_items/internal/syncer"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)

	store, err := cache.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	api := client.New(srv.URL, srv.Client())
	sess := syncer.NewSession(api, store)

	if ok, err := sess.Restore(ctx); err != nil || ok {
		t.Fatalf("restore on empty cache: %v %v", ok, err)
	}
	if err := sess.Register(ctx, registration("ada@example.com")); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(ctx, domain.Task{ID: "mine", Title: "mine", Priority: domain.PriorityLow,
		Status: domain.StatusTodo, Type: domain.TypeEmail, DueDate: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	// a new process restores the same identity
	other := client.New(srv.URL, srv.Client())
	restored := syncer.NewSession(other, store)
	if ok, err := restored.Restore(ctx); err != nil || !ok {
		t.Fatalf("restore: %v %v", ok, err)
	}
	if restored.User.ID != sess.User.ID || other.Token() != sess.Token {
		t.Fatal("restored session differs")
	}
	if _, err := other.Me(ctx); err != nil {
		t.Fatalf("restored token rejected: %v", err)
	}

	// same user logging in again keeps the cache
	if err := sess.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if all, _ := store.All(ctx); len(all) != 1 {
		t.Fatal("cache cleared for the same user")
	}

	// a different user gets a clean cache
	bob := syncer.NewSession(client.New(srv.URL, srv.Client()), store)
	if err := bob.Register(ctx, registration("bob@example.com")); err != nil {
		t.Fatal(err)
	}
	if all, _ := store.All(ctx); len(all) != 0 {
		t.Fatal("previous user's tasks visible to new user")
	}

	if err := bob.Logout(ctx, false); err != nil {
		t.Fatal(err)
	}
	if saved, _ := store.LoadSession(ctx); saved != nil {
		t.Fatal("session survived logout")
	}
}

func TestLogoutWithoutServer(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)

	store, err := cache.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := syncer.NewSession(client.New(srv.URL, srv.Client()), store)
	if err := sess.Register(ctx, registration("ada@example.com")); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	if err := sess.Logout(ctx, false); err != nil {
		t.Fatalf("logout should succeed locally: %v", err)
	}
	if saved, _ := store.LoadSession(ctx); saved != nil || sess.Token != "" {
		t.Fatal("local session not cleared")
	}
}

func TestLogoutKeepsUnsyncedChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.HandleConnectivity(ctx, false); err != nil {
		t.Fatal(err)
	}
	if _, err := h.orch.Create(ctx, newTask("Written on the train")); err != nil {
		t.Fatal(err)
	}

	err := h.session.Logout(ctx, false)
	if !errors.Is(err, syncer.ErrUnsyncedChanges) {
		t.Fatalf("expected ErrUnsyncedChanges, got %v", err)
	}
	if all, _ := h.cache.All(ctx); len(all) != 1 {
		t.Fatalf("cache has %d tasks after refused logout", len(all))
	}
	if saved, _ := h.cache.LoadSession(ctx); saved == nil {
		t.Fatal("session cleared by refused logout")
	}

	// syncing first makes logout safe and keeps the task on the server
	if err := h.orch.HandleConnectivity(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := h.session.Logout(ctx, false); err != nil {
		t.Fatalf("logout after sync: %v", err)
	}
	if h.tasks.Len() != 1 {
		t.Fatalf("server has %d tasks", h.tasks.Len())
	}
	if all, _ := h.cache.All(ctx); len(all) != 0 {
		t.Fatal("cache not cleared")
	}
}

func TestForcedLogoutDropsUnsyncedChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.orch.HandleConnectivity(ctx, false); err != nil {
		t.Fatal(err)
	}
	if _, err := h.orch.Create(ctx, newTask("Throwaway")); err != nil {
		t.Fatal(err)
	}
	if err := h.session.Logout(ctx, true); err != nil {
		t.Fatalf("forced logout: %v", err)
	}
	if all, _ := h.cache.All(ctx); len(all) != 0 {
		t.Fatal("cache not cleared")
	}
	if saved, _ := h.cache.LoadSession(ctx); saved != nil {
		t.Fatal("session survived forced logout")
	}
}

type unreadableSession struct {
	cache.Store
}

func (unreadableSession) LoadSession(context.Context) (*cache.Session, error) {
	return nil, errors.New("disk I/O error")
}

func TestLoginKeepsCacheWhenSessionUnreadable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.orch.Create(ctx, newTask("Keep me")); err != nil {
		t.Fatal(err)
	}

	sess := syncer.NewSession(h.api, unreadableSession{Store: h.cache})
	err := sess.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "secret1"})
	if err == nil {
		t.Fatal("expected login to report the session read failure")
	}
	if all, _ := h.cache.All(ctx); len(all) != 1 {
		t.Fatalf("cache cleared after a failed session read: %d tasks", len(all))
	}
}
