package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"action_items/internal/ws"

	"github.com/gorilla/websocket"
)

// presenceServer returns a live presence endpoint and a func that drops
// every open socket. Hijacked connections are not closed by srv.Close.
func presenceServer(hub *ws.Hub) (*httptest.Server, func()) {
	var (
		mu    sync.Mutex
		conns []*websocket.Conn
	)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		go ws.NewClient("u1", conn, hub).Run()
	}))
	drop := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	}
	return srv, drop
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no connectivity event")
	}
	return Event{}
}

func TestMonitorReportsChanges(t *testing.T) {
	hub := ws.NewHub()
	srv, drop := presenceServer(hub)
	url := wsURL(srv)

	m := NewMonitor(func() string { return url })
	m.RetryInterval = 20 * time.Millisecond
	m.PingInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := m.Run(ctx)

	if ev := next(t, events); !ev.Online {
		t.Fatalf("expected online, got %+v", ev)
	}

	srv.Close()
	drop()
	ev := next(t, events)
	if ev.Online || ev.Err == nil {
		t.Fatalf("expected offline with reason, got %+v", ev)
	}

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestMonitorStartsOffline(t *testing.T) {
	m := NewMonitor(func() string { return "ws://127.0.0.1:1/ws" })
	m.RetryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := m.Run(ctx)

	if ev := next(t, events); ev.Online {
		t.Fatal("expected offline")
	}
	// repeated failures are not re-reported
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProbe(t *testing.T) {
	srv, drop := presenceServer(ws.NewHub())
	defer srv.Close()
	defer drop()

	ctx := context.Background()
	if !Probe(ctx, nil, wsURL(srv)) {
		t.Fatal("probe failed against live server")
	}
	if Probe(ctx, nil, "ws://127.0.0.1:1/ws") {
		t.Fatal("probe succeeded against closed port")
	}
}
