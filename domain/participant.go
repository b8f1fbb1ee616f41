// Package domain contains core concepts of the chat system.
// This file defines connection identities and their lifecycle states.
// No runtime, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

// State of a single connection. Closed is terminal.
type State int32

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Identity is what the authorization collaborator vouches for.
type Identity struct {
	UserID string
	Roles  []string
}

// Stats is a point-in-time view used by health checks and telemetry.
type Stats struct {
	Participants int `json:"participants"`
	Messages     int `json:"messages"`
}
