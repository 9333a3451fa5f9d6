// Package core provides the foundational domain types and interfaces shared
// by the chat client:
//
//   - Threads (the persisted conversation state with ordered messages)
//   - Messages / Parts (role based content)
//   - ThreadStore (session keyed persistence contract)
//   - Responder (the completion collaborator producing replies)
//   - The versioned thread envelope codec (MarshalThread / UnmarshalThread)
//
// Implementation concerns (Redis, vendor SDKs, terminal I/O) live in their own
// packages so that callers can depend on the small interfaces here.
package core
