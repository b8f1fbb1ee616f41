package errors

import "fmt"

var (
	// ErrInvalidMessage is reported privately to the posting connection, nothing is broadcast.
	ErrInvalidMessage = fmt.Errorf("invalid message")
	// ErrUnknownConnection is a benign race between two disconnect paths.
	ErrUnknownConnection = fmt.Errorf("unknown connection")
	// ErrTransportFailure means a connection can no longer receive events.
	ErrTransportFailure = fmt.Errorf("transport failure")
	// ErrRegistryCorruption is raised when a live connection identifier is registered twice.
	ErrRegistryCorruption = fmt.Errorf("registry corruption")
	// ErrInvalidFrame is a client frame the transports cannot map to an operation.
	ErrInvalidFrame     = fmt.Errorf("invalid frame")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrUnknownBackend   = fmt.Errorf("unknown history backend")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
