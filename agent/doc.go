// Package agent contains the model-backed chat agent that acts as the
// completion collaborator of the chat loop.
//
// ChatAgent implements core.Responder: given the prior thread and a new user
// message it calls a model.Model and returns the assistant reply together with
// the updated thread. The agent never mutates the thread it receives and keeps
// no per-session state, so persistence stays entirely with the ThreadStore.
//
// Instructions may be static text or resolved per call from the thread via a
// Provider.
package agent
