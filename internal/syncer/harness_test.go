package syncer_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"action_items/internal/cache"
	"action_items/internal/client"
	"action_items/internal/config"
	apihttp "action_items/internal/http"
	"action_items/internal/syncer"
	"action_items/internal/testutil"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type note struct {
	Level   syncer.Level
	Message string
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Notify(level syncer.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{level, message})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func (r *recorder) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

type harness struct {
	srv     *httptest.Server
	tasks   *testutil.TaskStore
	api     *client.Client
	cache   *cache.SQLiteStore
	notes   *recorder
	session *syncer.Session
	orch    *syncer.Orchestrator
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		APIRateLimit:   10000,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  10000,
		AuthRateWindow: time.Minute,
		SyncRateLimit:  10000,
		SyncRateWindow: time.Minute,
	}
}

func newServer(t *testing.T) (*httptest.Server, *testutil.TaskStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tasks := testutil.NewTaskStore()
	app := apihttp.NewApp(testConfig(), apihttp.Stores{
		Tasks: tasks,
		Users: testutil.NewUserStore(),
		Audit: &testutil.AuditStore{},
		DB:    testutil.Pinger{},
	}, nil, "test")
	app.Handler.Auth.HashCost = bcrypt.MinCost

	r := gin.New()
	apihttp.RegisterRoutes(r, app)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tasks
}

// newHarness starts a server and a signed-in client with an empty cache.
func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	srv, tasks := newServer(t)
	store, err := cache.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	api := client.New(srv.URL, srv.Client())
	sess := syncer.NewSession(api, store)
	if err := sess.Register(ctx, registration("ada@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}

	notes := &recorder{}
	orch, err := syncer.New(ctx, api, store, notes)
	if err != nil {
		t.Fatal(err)
	}
	orch.SetUser(sess.User.ID)

	return &harness{srv: srv, tasks: tasks, api: api, cache: store, notes: notes, session: sess, orch: orch}
}
