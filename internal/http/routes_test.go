package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"action_items/internal/config"
	"action_items/internal/domain"
	apihttp "action_items/internal/http"
	"action_items/internal/testutil"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	tasks  *testutil.TaskStore
	audit  *testutil.AuditStore
}

func newTestAPI(t *testing.T, db testutil.Pinger) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		APIRateLimit:   10000,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  10000,
		AuthRateWindow: time.Minute,
		SyncRateLimit:  10000,
		SyncRateWindow: time.Minute,
	}
	tasks := testutil.NewTaskStore()
	audit := &testutil.AuditStore{}
	app := apihttp.NewApp(cfg, apihttp.Stores{
		Tasks: tasks,
		Users: testutil.NewUserStore(),
		Audit: audit,
		DB:    db,
	}, nil, "test")
	app.Handler.Auth.HashCost = bcrypt.MinCost

	r := gin.New()
	apihttp.RegisterRoutes(r, app)
	return &testAPI{t: t, router: r, tasks: tasks, audit: audit}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, map[string]json.RawMessage) {
	a.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatal(err)
		}
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]json.RawMessage{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Test", "email": email, "password": "secret1",
	})
	if code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", email, code, body["message"])
	}
	var token string
	decode(a.t, body["token"], &token)
	return token
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func taskBody(title, due string) map[string]string {
	return map[string]string{"title": title, "type": "reminder", "dueDate": due}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	code, body := api.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || !strings.Contains(string(body["message"]), "Action Items API is running") {
		t.Fatalf("health %d %v", code, body)
	}
	if code, _ := api.do(http.MethodGet, "/healthz", "", nil); code != http.StatusOK {
		t.Fatalf("liveness %d", code)
	}

	down := newTestAPI(t, testutil.Pinger{Err: errors.New("db down")})
	if code, _ := down.do(http.MethodGet, "/readyz", "", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readiness with db down: %d", code)
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")

	code, _ := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Again", "email": "ada@example.com", "password": "secret1",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate register: %d", code)
	}

	code, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", code)
	}

	code, body := api.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d", code)
	}
	var user domain.User
	decode(t, body["user"], &user)
	if user.Email != "ada@example.com" {
		t.Fatalf("me returned %+v", user)
	}
	if strings.Contains(string(body["user"]), "password") {
		t.Fatal("password hash leaked")
	}

	if code, _ := api.do(http.MethodPost, "/api/v1/auth/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/v1/auth/me", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("revoked token: %d", code)
	}
}

func TestTaskCRUD(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	alice := api.register("alice@example.com")
	bob := api.register("bob@example.com")

	if code, _ := api.do(http.MethodGet, "/api/v1/tasks", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}

	code, body := api.do(http.MethodPost, "/api/v1/tasks", alice, map[string]string{"title": "no due date"})
	if code != http.StatusBadRequest || body["errors"] == nil {
		t.Fatalf("invalid create: %d %v", code, body)
	}
	if api.tasks.Len() != 0 {
		t.Fatal("invalid task persisted")
	}

	code, body = api.do(http.MethodPost, "/api/v1/tasks", alice, taskBody("Send invoice", "2025-06-01"))
	if code != http.StatusCreated {
		t.Fatalf("create: %d %v", code, body)
	}
	var created domain.Task
	decode(t, body["task"], &created)

	path := "/api/v1/tasks/" + created.ID
	if code, _ := api.do(http.MethodGet, path, bob, nil); code != http.StatusForbidden {
		t.Fatalf("foreign get: %d", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/v1/tasks/missing", alice, nil); code != http.StatusNotFound {
		t.Fatalf("missing get: %d", code)
	}
	if code, _ := api.do(http.MethodPut, "/api/v1/tasks/missing", alice, map[string]string{"title": "x"}); code != http.StatusNotFound {
		t.Fatalf("missing update: %d", code)
	}
	if code, _ := api.do(http.MethodDelete, "/api/v1/tasks/missing", alice, nil); code != http.StatusNotFound {
		t.Fatalf("missing delete: %d", code)
	}
	if code, _ := api.do(http.MethodPut, path, bob, map[string]string{"title": "hijacked"}); code != http.StatusForbidden {
		t.Fatalf("foreign update: %d", code)
	}
	if stored, _ := api.tasks.GetByID(context.Background(), created.ID); stored.Title != "Send invoice" {
		t.Fatalf("foreign update changed the task: %q", stored.Title)
	}

	code, body = api.do(http.MethodPut, path, alice, map[string]string{"status": "completed"})
	if code != http.StatusOK {
		t.Fatalf("update: %d %v", code, body)
	}
	var updated domain.Task
	decode(t, body["task"], &updated)
	if updated.Status != domain.StatusCompleted || updated.Title != "Send invoice" {
		t.Fatalf("partial update %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatal("updatedAt did not advance")
	}

	if code, _ := api.do(http.MethodPut, path, alice, map[string]string{"priority": "critical"}); code != http.StatusBadRequest {
		t.Fatalf("invalid update: %d", code)
	}
	if code, _ := api.do(http.MethodDelete, path, bob, nil); code != http.StatusForbidden {
		t.Fatalf("foreign delete: %d", code)
	}
	if code, _ := api.do(http.MethodDelete, path, alice, nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	if code, _ := api.do(http.MethodGet, path, alice, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", code)
	}
}

func TestListFiltersAndSort(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")

	for _, b := range []map[string]string{
		{"title": "Low later", "type": "email", "priority": "low", "dueDate": "2025-06-03"},
		{"title": "Urgent", "type": "reminder", "priority": "urgent", "dueDate": "2025-06-02"},
		{"title": "High earliest", "type": "calendar", "priority": "high", "dueDate": "2025-06-01", "description": "with the TEAM"},
	} {
		if code, body := api.do(http.MethodPost, "/api/v1/tasks", token, b); code != http.StatusCreated {
			t.Fatalf("create: %d %v", code, body)
		}
	}

	titles := func(query string) []string {
		code, body := api.do(http.MethodGet, "/api/v1/tasks"+query, token, nil)
		if code != http.StatusOK {
			t.Fatalf("list %s: %d", query, code)
		}
		var tasks []domain.Task
		decode(t, body["tasks"], &tasks)
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.Title)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"High earliest", "Urgent", "Low later"}},
		{"?sortBy=priority", []string{"Urgent", "High earliest", "Low later"}},
		{"?type=email", []string{"Low later"}},
		{"?priority=all&search=team", []string{"High earliest"}},
		{"?status=completed", []string{}},
	}
	for _, tt := range tests {
		got := titles(tt.query)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("%q: got %v want %v", tt.query, got, tt.want)
		}
	}
}

func TestSyncEndpoint(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")

	for _, body := range []string{`{"tasks":{"id":"x"}}`, `{}`, `not json`} {
		if code, _ := api.do(http.MethodPost, "/api/v1/tasks/sync", token, body); code != http.StatusBadRequest {
			t.Errorf("body %s: got %d", body, code)
		}
	}

	payload := `{"tasks":[
		{"id":"c1","title":"From device","type":"email","dueDate":"2025-06-01","updatedAt":"2025-05-01T10:00:00Z"},
		{"id":"c2","title":"No updatedAt","type":"email","dueDate":"2025-06-01"},
		42
	]}`
	code, body := api.do(http.MethodPost, "/api/v1/tasks/sync", token, payload)
	if code != http.StatusOK {
		t.Fatalf("sync: %d %v", code, body)
	}

	var synced, server []domain.Task
	var skipped []domain.SkippedRecord
	decode(t, body["syncedTasks"], &synced)
	decode(t, body["serverTasks"], &server)
	decode(t, body["skipped"], &skipped)

	if len(synced) != 1 || synced[0].ID != "c1" || synced[0].SyncStatus != domain.SyncStatusSynced {
		t.Fatalf("synced %+v", synced)
	}
	if len(server) != 1 {
		t.Fatalf("server %+v", server)
	}
	if len(skipped) != 2 || skipped[0].TaskID != "c2" || skipped[1].Index != 2 {
		t.Fatalf("skipped %+v", skipped)
	}

	// an older client copy loses to the stored one
	stale := `{"tasks":[{"id":"c1","title":"Stale","type":"email","dueDate":"2025-06-01","updatedAt":"2025-04-01T00:00:00Z"}]}`
	code, body = api.do(http.MethodPost, "/api/v1/tasks/sync", token, stale)
	if code != http.StatusOK {
		t.Fatalf("stale sync: %d", code)
	}
	var conflicts []domain.SyncConflict
	decode(t, body["conflicts"], &conflicts)
	if len(conflicts) != 1 || conflicts[0].ServerVersion.Title != "From device" {
		t.Fatalf("conflicts %+v", conflicts)
	}
}

func TestStatsAndCalendar(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")

	if code, _ := api.do(http.MethodPost, "/api/v1/tasks", token, taskBody("Old", "2020-01-15")); code != http.StatusCreated {
		t.Fatal("create failed")
	}

	code, body := api.do(http.MethodGet, "/api/v1/tasks/stats", token, nil)
	if code != http.StatusOK {
		t.Fatalf("stats: %d", code)
	}
	var stats domain.Stats
	decode(t, body["stats"], &stats)
	if stats.Total != 1 || stats.Overdue != 1 {
		t.Fatalf("stats %+v", stats)
	}

	code, body = api.do(http.MethodGet, "/api/v1/tasks/calendar?month=2020-01", token, nil)
	if code != http.StatusOK {
		t.Fatalf("calendar: %d", code)
	}
	var days []domain.CalendarDay
	decode(t, body["days"], &days)
	if len(days) != 42 {
		t.Fatalf("got %d days", len(days))
	}
	var found bool
	for _, d := range days {
		if d.Date == "2020-01-15" && len(d.Tasks) == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("task missing from calendar")
	}

	if code, _ := api.do(http.MethodGet, "/api/v1/tasks/calendar?month=bad", token, nil); code != http.StatusBadRequest {
		t.Fatalf("bad month: %d", code)
	}
}

func TestLegacyPrefix(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")

	if code, _ := api.do(http.MethodGet, "/api/tasks", token, nil); code != http.StatusOK {
		t.Fatalf("legacy list: %d", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/health", "", nil); code != http.StatusOK {
		t.Fatalf("legacy health: %d", code)
	}
}

func TestActivity(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	token := api.register("ada@example.com")
	if code, _ := api.do(http.MethodPost, "/api/v1/tasks", token, taskBody("Audit me", "2025-06-01")); code != http.StatusCreated {
		t.Fatal("create failed")
	}

	code, body := api.do(http.MethodGet, "/api/v1/auth/activity?limit=1", token, nil)
	if code != http.StatusOK {
		t.Fatalf("activity: %d", code)
	}
	var logs []domain.AuditLog
	decode(t, body["activity"], &logs)
	if len(logs) != 1 || logs[0].Action != domain.AuditActionTaskCreate {
		t.Fatalf("activity %+v", logs)
	}
	if got := api.audit.Actions(); len(got) != 2 || got[0] != domain.AuditActionRegister {
		t.Fatalf("recorded %v", got)
	}
}

func TestReadinessReportsPresence(t *testing.T) {
	api := newTestAPI(t, testutil.Pinger{})
	code, body := api.do(http.MethodGet, "/readyz", "", nil)
	if code != http.StatusOK {
		t.Fatalf("readyz: %d", code)
	}
	var checks map[string]string
	decode(t, body["checks"], &checks)
	if checks["database"] != "healthy" || checks["presence_connections"] != "0" {
		t.Fatalf("checks %v", checks)
	}
	if _, ok := checks["redis"]; ok {
		t.Fatal("redis reported without a client")
	}
}
