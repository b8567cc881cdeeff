package gateway

import "time"

// ClientConn represents a WebSocket connection wrapper. The one production
// implementation wraps the hertz upgrader's connection behind a buffered
// single-writer loop; tests substitute in-memory fakes.
type ClientConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}
