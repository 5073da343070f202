// internal/session/message.go
package session

import "encoding/json"

// Message types on the wire.
const (
	TypeStatus = "status"
	TypeImage  = "image"
)

// Message is the tagged envelope for every server-push frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Encode marshals one envelope.
func Encode(msgType string, data any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: data})
}
