package ws

import "encoding/json"

// Message types exchanged over the chat socket
const (
	TypeChat     = "chat"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeFragment = "fragment"
	TypeDone     = "done"
	TypeError    = "error"
)

// Message is the envelope of every frame. Content stays raw until the type
// is known.
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Fragment carries one piece of streamed assistant text
type Fragment struct {
	ConversationID string `json:"conversationId,omitempty"`
	Text           string `json:"text"`
}

// Failure reports why a stream ended early
type Failure struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// Done marks the end of a reply
type Done struct {
	ConversationID string `json:"conversationId,omitempty"`
}
