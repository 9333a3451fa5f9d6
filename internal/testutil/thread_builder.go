package testutil

import (
	"github.com/hupe1980/chatthread/core"
)

// ThreadBuilder helps construct threads with fluent chaining for tests.
// Example:
//
//	th := NewThreadBuilder().User("hello").Assistant("hi there").Build()
type ThreadBuilder struct {
	id       string
	messages []core.Message
}

// NewThreadBuilder creates a new builder for an empty thread.
func NewThreadBuilder() *ThreadBuilder { return &ThreadBuilder{} }

// ID overrides the generated thread ID (chainable).
func (b *ThreadBuilder) ID(id string) *ThreadBuilder { b.id = id; return b }

// User appends a user text message (chainable).
func (b *ThreadBuilder) User(text string) *ThreadBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends an assistant text message (chainable).
func (b *ThreadBuilder) Assistant(text string) *ThreadBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(text))
	return b
}

// Message appends an arbitrary message (chainable).
func (b *ThreadBuilder) Message(m core.Message) *ThreadBuilder {
	b.messages = append(b.messages, m)
	return b
}

// Build returns a *core.Thread with the configured messages.
func (b *ThreadBuilder) Build() *core.Thread {
	t := core.NewThread()
	if b.id != "" {
		t.ID = b.id
	}
	for _, m := range b.messages {
		t.AddMessage(m)
	}
	return t
}
