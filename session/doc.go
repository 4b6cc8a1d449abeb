// Package session scopes a conversation: a Session couples an id with the
// memory.Store holding its history and serializes runs that share it.
//
// The outer loop (console, HTTP handler) owns sessions and passes them
// explicitly to agents; nothing in beeflow keeps an implicit current session.
package session
