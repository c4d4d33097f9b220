package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"action_items/internal/service"
	"action_items/internal/ws"

	"github.com/gorilla/websocket"
)

// Connects to a running server's presence channel, waits for the greeting
// and checks that a ping is answered.
func main() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	userID := os.Getenv("SMOKE_USER_ID")
	if userID == "" {
		userID = "smoke-user"
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "5000"
	}

	token, err := service.NewTokenIssuer(jwtSecret, time.Minute).Generate(userID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	url := fmt.Sprintf("ws://127.0.0.1:%s/api/v1/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := expect(conn, ws.MsgHello)
	var hp ws.HelloPayload
	_ = json.Unmarshal(hello.Payload, &hp)
	log.Printf("hello: user=%s connections=%d", hp.UserID, hp.Connections)

	if err := conn.WriteJSON(ws.Message{Type: ws.MsgPing}); err != nil {
		log.Fatalf("write ping: %v", err)
	}
	expect(conn, ws.MsgPong)
	log.Println("smoke ok")
}

func expect(conn *websocket.Conn, msgType string) ws.Message {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m ws.Message
	if err := conn.ReadJSON(&m); err != nil {
		log.Fatalf("read %s: %v", msgType, err)
	}
	if m.Type != msgType {
		log.Fatalf("expected %s, got %s", msgType, m.Type)
	}
	return m
}
