// Package model defines the provider‑agnostic abstractions for interacting
// with hosted language models.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Azure OpenAI / OpenAI, Anthropic) implement the Model interface
// from this package so the chat agent stays decoupled from vendor SDKs.
package model
