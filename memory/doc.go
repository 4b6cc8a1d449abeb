// Package memory contains conversation history stores. A Store keeps the
// ordered message history of each session; it is append-only during a
// session and can be reset when the session ends.
//
// Select an implementation at wiring time: InMemoryStore for tests and single
// process programs, redis.Store (sub-package) for shared history. Wrap any
// store with Sliding to bound what agents send to the model.
package memory
