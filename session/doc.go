// Package session houses concrete implementations of core.ThreadStore.
// The interface itself lives in the core package so the chat loop and the
// agent never depend on concrete storage.
//
// The in-memory store here is meant for tests and offline demos. The Redis
// backend lives in the redis sub-package; only the wiring layer decides which
// implementation to instantiate.
package session
