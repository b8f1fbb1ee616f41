// Package wire holds the JSON frames shared by the websocket and gRPC transports.
package wire

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	TypeJoin = "join"
	TypePost = "post"
)

// ClientFrame is what a client sends: {"type":"join"} or {"type":"post","author":..,"text":..}.
type ClientFrame struct {
	Type   string `json:"type"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text,omitempty"`
}

type MessageDTO struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerFrame is the union of every outbound event, discriminated by Type.
// An empty history omits "messages".
type ServerFrame struct {
	Type     event.Kind   `json:"type"`
	Messages []MessageDTO `json:"messages,omitempty"`
	Message  *MessageDTO  `json:"message,omitempty"`
	Count    *int         `json:"count,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

func ToDTO(message domain.Message) MessageDTO {
	return MessageDTO{
		ID:        message.ID.String(),
		Seq:       message.Seq,
		Author:    message.Author,
		Text:      message.Body,
		Timestamp: message.CreatedAt,
	}
}

func (m MessageDTO) ToMessage() (domain.Message, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id %q: %w", m.ID, err)
	}
	return domain.Message{
		ID:        id,
		Seq:       m.Seq,
		Author:    m.Author,
		Body:      m.Text,
		CreatedAt: m.Timestamp,
	}, nil
}

func Encode(e event.Event) (ServerFrame, error) {
	switch e := e.(type) {
	case event.History:
		return ServerFrame{Type: e.Kind(), Messages: lo.Map(e.Messages, func(m domain.Message, _ int) MessageDTO {
			return ToDTO(m)
		})}, nil
	case event.MessagePublished:
		return ServerFrame{Type: e.Kind(), Message: lo.ToPtr(ToDTO(e.Message))}, nil
	case event.ParticipantCount:
		return ServerFrame{Type: e.Kind(), Count: lo.ToPtr(e.Count)}, nil
	case event.Rejected:
		return ServerFrame{Type: e.Kind(), Reason: e.Reason}, nil
	default:
		return ServerFrame{}, fmt.Errorf("unsupported event %T", e)
	}
}

// Decode turns a server frame back into an event, used by clients.
func Decode(frame ServerFrame) (event.Event, error) {
	switch frame.Type {
	case event.KindHistory:
		messages := make([]domain.Message, 0, len(frame.Messages))
		for _, dto := range frame.Messages {
			m, err := dto.ToMessage()
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)
		}
		return event.History{Messages: messages}, nil
	case event.KindMessagePublished:
		if frame.Message == nil {
			return nil, fmt.Errorf("%s frame without message", frame.Type)
		}
		m, err := frame.Message.ToMessage()
		if err != nil {
			return nil, err
		}
		return event.MessagePublished{Message: m}, nil
	case event.KindParticipantCount:
		return event.ParticipantCount{Count: lo.FromPtr(frame.Count)}, nil
	case event.KindRejected:
		return event.Rejected{Reason: frame.Reason}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", frame.Type)
	}
}

// Apply forwards a client frame to its session. A rejected post has already
// been reported to the client and is not an error for the transport.
func Apply(ctx context.Context, session contract.ISession, frame ClientFrame) error {
	switch frame.Type {
	case TypeJoin:
		return session.Join()
	case TypePost:
		_, err := session.Post(ctx, domain.PostMessageCommand{Author: frame.Author, Body: frame.Text})
		if stderrors.Is(err, errors.ErrInvalidMessage) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidFrame, frame.Type)
	}
}
