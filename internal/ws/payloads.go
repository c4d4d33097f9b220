package ws

import (
	"encoding/json"
	"time"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// server → client
type HelloPayload struct {
	UserID      string    `json:"userId"`
	Connections int       `json:"connections"`
	ServerTime  time.Time `json:"serverTime"`
}

type PongPayload struct {
	ServerTime time.Time `json:"serverTime"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, payload any) []byte {
	m := Message{Type: msgType}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err == nil {
			m.Payload = b
		}
	}
	out, _ := json.Marshal(m)
	return out
}
