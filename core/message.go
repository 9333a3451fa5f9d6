package core

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles recognised by the thread and the model adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single completed turn entry in a Thread. After it has been
// appended to a thread it should be treated as immutable.
type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content
}

// NewMessage creates a message with a fresh ID and a UTC timestamp.
func NewMessage(role string, parts ...Part) Message {
	return Message{
		ID:        NewID(),
		Timestamp: time.Now().UTC(),
		Content:   Content{Role: role, Parts: parts},
	}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, TextPart{Text: text})
}

// NewAssistantMessage creates an assistant-authored text message.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, TextPart{Text: text})
}

// NewID generates a new unique identifier for messages and threads.
func NewID() string { return uuid.NewString() }

// NewSessionID generates a random session identifier (UUIDv4, canonical form).
func NewSessionID() string { return uuid.NewString() }

// IsValidSessionID reports whether id is a canonical UUID string as produced
// by NewSessionID. User supplied session ids are not required to pass this.
func IsValidSessionID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}
