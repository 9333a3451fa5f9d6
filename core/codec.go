package core

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ThreadFormat tags every serialized thread envelope.
	ThreadFormat = "chatthread.thread"
	// ThreadFormatVersion is the envelope version written by MarshalThread.
	ThreadFormatVersion = 1

	partTypeText = "text"
)

type threadEnvelope struct {
	Format  string     `json:"format"`
	Version int        `json:"version"`
	Thread  threadWire `json:"thread"`
}

type threadWire struct {
	ID       string        `json:"id"`
	Created  time.Time     `json:"created"`
	Updated  time.Time     `json:"updated"`
	Messages []messageWire `json:"messages"`
}

type messageWire struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Timestamp time.Time  `json:"timestamp"`
	Parts     []partWire `json:"parts"`
}

type partWire struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MarshalThread encodes a thread into the versioned envelope format.
func MarshalThread(t *Thread) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("marshal thread: nil thread")
	}
	t.mu.RLock()
	wire := threadWire{ID: t.ID, Created: t.Created, Updated: t.Updated, Messages: make([]messageWire, 0, len(t.messages))}
	for _, m := range t.messages {
		mw := messageWire{ID: m.ID, Role: m.Role, Timestamp: m.Timestamp, Parts: make([]partWire, 0, len(m.Parts))}
		for _, p := range m.Parts {
			switch part := p.(type) {
			case TextPart:
				mw.Parts = append(mw.Parts, partWire{Type: partTypeText, Text: part.Text, Metadata: part.Metadata})
			default:
				t.mu.RUnlock()
				return nil, fmt.Errorf("marshal thread: unsupported part %T", p)
			}
		}
		wire.Messages = append(wire.Messages, mw)
	}
	t.mu.RUnlock()

	return json.Marshal(threadEnvelope{Format: ThreadFormat, Version: ThreadFormatVersion, Thread: wire})
}

// UnmarshalThread decodes bytes written by MarshalThread. Every failure is
// reported as ErrDeserialization.
func UnmarshalThread(data []byte) (*Thread, error) {
	var env threadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if env.Format != ThreadFormat {
		return nil, fmt.Errorf("%w: unexpected format %q", ErrDeserialization, env.Format)
	}
	if env.Version < 1 || env.Version > ThreadFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDeserialization, env.Version)
	}

	t := &Thread{
		ID:       env.Thread.ID,
		Created:  env.Thread.Created,
		Updated:  env.Thread.Updated,
		messages: make([]Message, 0, len(env.Thread.Messages)),
	}
	for i, mw := range env.Thread.Messages {
		if mw.Role == "" {
			return nil, fmt.Errorf("%w: message %d has no role", ErrDeserialization, i)
		}
		parts := make([]Part, 0, len(mw.Parts))
		for _, pw := range mw.Parts {
			switch pw.Type {
			case partTypeText:
				parts = append(parts, TextPart{Text: pw.Text, Metadata: pw.Metadata})
			default:
				return nil, fmt.Errorf("%w: message %d has unknown part type %q", ErrDeserialization, i, pw.Type)
			}
		}
		t.messages = append(t.messages, Message{
			ID:        mw.ID,
			Timestamp: mw.Timestamp,
			Content:   Content{Role: mw.Role, Parts: parts},
		})
	}
	return t, nil
}
