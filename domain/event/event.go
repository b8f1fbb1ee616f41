package event

import "mwalimu-chat/domain"

// Kind names an outbound event on the wire.
type Kind string

const (
	KindHistory          Kind = "history"
	KindMessagePublished Kind = "messagePublished"
	KindParticipantCount Kind = "participantCount"
	KindRejected         Kind = "rejected"
)

// Event is anything the core pushes to a connection.
type Event interface {
	Kind() Kind
}

// History is the private replay sent once, right after a connection opens.
type History struct {
	Messages []domain.Message
}

func (History) Kind() Kind { return KindHistory }

type MessagePublished struct {
	Message domain.Message
}

func (MessagePublished) Kind() Kind { return KindMessagePublished }

type ParticipantCount struct {
	Count int
}

func (ParticipantCount) Kind() Kind { return KindParticipantCount }

// Rejected goes only to the connection whose post was refused.
type Rejected struct {
	Reason string
}

func (Rejected) Kind() Kind { return KindRejected }
