// Package testutil contains helpers used across tests to reduce boilerplate
// when recording workflow events and constructing conversations. They are
// not intended for production usage.
package testutil
