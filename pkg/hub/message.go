// Package hub fans snapshot messages out to websocket subscribers with the
// channel-based register/unregister/broadcast loop.
package hub

// MessageType indicates the websocket frame type.
type MessageType int

const (
	// TextMessage is a JSON document.
	TextMessage MessageType = iota
	// BinaryMessage is raw bytes, used for the byte spectrum.
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewTextMessage wraps pre-encoded JSON.
func NewTextMessage(data []byte) Message {
	return Message{Type: TextMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
