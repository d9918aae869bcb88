package models

import (
	"strings"
	"time"
)

// Role represents the role of a message sender
type Role string

const (
	// RoleUser represents a message from the user
	RoleUser Role = "user"
	// RoleAssistant represents a message from the assistant
	RoleAssistant Role = "assistant"
	// RoleSystem represents a system message
	RoleSystem Role = "system"
)

// Message represents a chat message
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationHistory holds the ordered transcript of one conversation.
// It grows by append only; entries are never edited or removed. It belongs
// to exactly one session and is not safe for concurrent mutation.
type ConversationHistory struct {
	messages []Message
}

// NewHistory creates a conversation history. If systemPrompt is non-empty it
// becomes the leading system entry.
func NewHistory(systemPrompt string) *ConversationHistory {
	h := &ConversationHistory{}
	if systemPrompt != "" {
		h.Add(RoleSystem, systemPrompt)
	}
	return h
}

// Add appends a message to the history.
func (h *ConversationHistory) Add(role Role, content string) {
	h.messages = append(h.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Len returns the number of messages in the history.
func (h *ConversationHistory) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the transcript in order.
func (h *ConversationHistory) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Transcript serializes the history to a flat "role: content" transcript,
// one message per line, for embedding into a prompt.
func (h *ConversationHistory) Transcript() string {
	var b strings.Builder
	for i, msg := range h.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}
