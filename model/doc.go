// Package model defines the provider-agnostic abstractions for interacting
// with text-generation backends inside kbchat.
//
// Core goals:
//   - Unify streaming + non-streaming completion behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Validate generation parameters once at construction (Config)
//   - Facilitate lightweight mocking for tests (MockProvider)
//
// Providers (e.g. OpenAI, Anthropic) implement the Provider interface from
// this package so the orchestrator remains decoupled from vendor SDKs.
package model
