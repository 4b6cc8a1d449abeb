// Package model defines the provider-agnostic abstractions and helpers for
// interacting with chat models inside beeflow.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Produce plain text (GenerateText) or schema-validated objects (GenerateObject)
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, workflows) remain decoupled from vendor SDKs.
package model
