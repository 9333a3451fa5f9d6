package core

import (
	"sync"
	"time"
)

// Thread is the accumulated message history of a single conversation. It is
// the conversation state persisted by a ThreadStore and is safe for
// concurrent access.
//
// Contract:
//   - AddMessage updates the Updated timestamp
//   - Messages returns a defensive copy
//   - Clone performs deep copies of slices for safe divergence.
type Thread struct {
	ID       string
	Created  time.Time
	Updated  time.Time
	messages []Message
	mu       sync.RWMutex
}

// NewThread creates an empty thread with a fresh ID.
func NewThread() *Thread {
	now := time.Now().UTC()
	return &Thread{ID: NewID(), Created: now, Updated: now, messages: []Message{}}
}

// AddMessage appends a message updating the Updated timestamp.
func (t *Thread) AddMessage(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
	t.Updated = time.Now().UTC()
}

// Messages returns a defensive copy of the message history.
func (t *Thread) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages in the thread.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// History returns the most recent max messages (all when max <= 0).
func (t *Thread) History(max int) []Message {
	msgs := t.Messages()
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}

// LastMessage returns the newest message, if any.
func (t *Thread) LastMessage() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Clone returns a deep copy of the thread safe for independent mutation.
func (t *Thread) Clone() *Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	clone := &Thread{ID: t.ID, Created: t.Created, Updated: t.Updated, messages: make([]Message, len(t.messages))}
	for i, m := range t.messages {
		parts := make([]Part, len(m.Parts))
		for j, p := range m.Parts {
			if tp, ok := p.(TextPart); ok && tp.Metadata != nil {
				md := make(map[string]string, len(tp.Metadata))
				for k, v := range tp.Metadata {
					md[k] = v
				}
				tp.Metadata = md
				p = tp
			}
			parts[j] = p
		}
		m.Parts = parts
		clone.messages[i] = m
	}
	return clone
}
