// Package domain contains the core aggregates of the chat system.
// Aggregates are pure in-memory state: no I/O, no logging, no locking.
// Each request loads fresh state, mutates it, and persists or discards it.
package domain

import "time"

// Message is an immutable chat entry. ID is either a store-generated uuid
// or the id of the log event it was replayed from; both are opaque here.
type Message struct {
	ID       string
	ChatID   string
	SenderID string
	Content  string
	SentAt   time.Time
}
