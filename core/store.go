package core

import "context"

// ThreadKeyPrefix namespaces thread blobs in the backing key/value store.
const ThreadKeyPrefix = "chat_thread:"

// ThreadKey returns the storage key for a session's thread.
func ThreadKey(sessionID string) string { return ThreadKeyPrefix + sessionID }

// ThreadStore persists one conversation thread per session id. Each Save
// overwrites the previous value entirely (last write wins).
//
// Load returns (nil, false, nil) when nothing was stored for the session;
// absence is never an error. Implementations report connectivity problems as
// ErrStoreUnavailable and unreadable payloads as ErrDeserialization.
type ThreadStore interface {
	Save(ctx context.Context, sessionID string, thread *Thread) error
	Load(ctx context.Context, sessionID string) (*Thread, bool, error)
}
