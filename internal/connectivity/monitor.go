// Package connectivity turns the server's presence websocket into an
// online/offline signal.
package connectivity

import (
	"context"
	"encoding/json"
	"time"

	"action_items/internal/logger"
	"action_items/internal/ws"

	"github.com/gorilla/websocket"
)

// Event is a connectivity change. Err carries the reason for going offline.
type Event struct {
	Online bool
	At     time.Time
	Err    error
}

type Monitor struct {
	// URL is evaluated on every dial so a refreshed token is picked up.
	URL           func() string
	Dialer        *websocket.Dialer
	RetryInterval time.Duration
	PingInterval  time.Duration
}

func NewMonitor(url func() string) *Monitor {
	return &Monitor{
		URL:           url,
		Dialer:        websocket.DefaultDialer,
		RetryInterval: 5 * time.Second,
		PingInterval:  20 * time.Second,
	}
}

// Run watches connectivity until ctx ends. Only changes are emitted; the
// first event reports the initial state. The channel is closed on return.
func (m *Monitor) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, 1)
	go func() {
		defer close(out)

		var last *bool
		emit := func(online bool, err error) bool {
			if last != nil && *last == online {
				return true
			}
			last = &online
			select {
			case out <- Event{Online: online, At: time.Now(), Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			err := m.session(ctx, func() bool { return emit(true, nil) })
			if ctx.Err() != nil {
				return
			}
			logger.Debug("connectivity lost", "error", err)
			if !emit(false, err) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(m.RetryInterval):
			}
		}
	}()
	return out
}

// session dials once and blocks until the connection drops or ctx ends.
func (m *Monitor) session(ctx context.Context, connected func() bool) error {
	conn, _, err := m.Dialer.DialContext(ctx, m.URL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !connected() {
		return ctx.Err()
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			var msg ws.Message
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			if msg.Type == ws.MsgError {
				var p ws.ErrorPayload
				_ = json.Unmarshal(msg.Payload, &p)
				logger.Warn("presence error", "message", p.Message)
			}
		}
	}()

	ticker := time.NewTicker(m.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ws.Message{Type: ws.MsgPing}); err != nil {
				return err
			}
		}
	}
}

// Probe reports whether the presence channel can be opened right now.
func Probe(ctx context.Context, dialer *websocket.Dialer, url string) bool {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		logger.Debug("connectivity probe failed", "error", err)
		return false
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()
	return true
}
