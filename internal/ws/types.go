package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgHello = "hello"
	MsgPong  = "pong"
	MsgError = "error"
)
