package models

// ChatTurn is one message of a conversation. Role is "user" or "model".
type ChatTurn struct {
	Role  string `json:"role" binding:"required"`
	Parts string `json:"parts"`
}

// ChatRequest is the payload of every chat endpoint
type ChatRequest struct {
	ConversationID string     `json:"conversationId"`
	Messages       []ChatTurn `json:"messages" binding:"required,min=1"`
}

// ChatReply is the non-streaming chat response
type ChatReply struct {
	Text string `json:"text"`
}

// Session is returned when an anonymous user id is issued
type Session struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// TopicRequest asks for conversation topic suggestions
type TopicRequest struct {
	Messages []string `json:"messages"`
	Count    int      `json:"count"`
}
