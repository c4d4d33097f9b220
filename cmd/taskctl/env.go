package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"action_items/internal/cache"
	"action_items/internal/client"
	"action_items/internal/clientconfig"
	"action_items/internal/connectivity"
	"action_items/internal/logger"
	"action_items/internal/syncer"
)

var (
	errNotLoggedIn    = errors.New("not logged in: run `taskctl login` first")
	errSessionExpired = errors.New("session expired: run `taskctl login` again")
)

// env is everything a command needs, built from config and the cache.
type env struct {
	cfg     *clientconfig.Config
	store   *cache.SQLiteStore
	api     *client.Client
	session *syncer.Session
	orch    *syncer.Orchestrator
}

func openEnv(ctx context.Context, flags *rootFlags) (*env, error) {
	cfg, err := clientconfig.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.server != "" {
		cfg.Server = flags.server
	}
	logger.Init(cfg.LogLevel, false)

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.Server, nil)
	orch, err := syncer.New(ctx, api, store, newConsoleNotifier())
	if err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		cfg:     cfg,
		store:   store,
		api:     api,
		session: syncer.NewSession(api, store),
		orch:    orch,
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// requireSession restores the saved login and applies the current
// connectivity, which syncs when coming back online.
func (e *env) requireSession(ctx context.Context, flags *rootFlags) error {
	ok, err := e.session.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotLoggedIn
	}
	e.orch.SetUser(e.session.User.ID)

	online := false
	if !flags.offline {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		online = connectivity.Probe(probeCtx, nil, e.api.WebSocketURL())
		cancel()
	}
	// a failed reconnect sync has already been reported
	_ = e.orch.HandleConnectivity(ctx, online)
	return nil
}

// withSession runs fn with a restored session and closes the env afterwards.
func withSession(ctx context.Context, flags *rootFlags, fn func(e *env) error) error {
	e, err := openEnv(ctx, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(ctx, flags); err != nil {
		return err
	}
	err = fn(e)
	if client.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("%w (%v)", errSessionExpired, err)
	}
	return err
}
