// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once accepted by the hub.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAuthor is used when a post carries no display name.
const DefaultAuthor = "Mwalimu"

// Message represents an immutable chat event.
type Message struct {
	ID        uuid.UUID // time-ordered (v7), unique for the process lifetime
	Seq       uint64    // acceptance order
	Author    string
	Body      string
	CreatedAt time.Time
}
