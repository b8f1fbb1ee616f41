package wire

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"
	"mwalimu-chat/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func sampleMessage() domain.Message {
	return domain.Message{
		ID:        uuid.Must(uuid.NewV7()),
		Seq:       7,
		Author:    "Mwalimu",
		Body:      "hello",
		CreatedAt: time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestEncode_Json_Shape(t *testing.T) {
	req := require.New(t)
	message := sampleMessage()

	tests := []struct {
		name string
		in   event.Event
		want string
	}{
		{"count", event.ParticipantCount{Count: 0}, `{"type":"participantCount","count":0}`},
		{"rejected", event.Rejected{Reason: "invalid message: empty body"}, `{"type":"rejected","reason":"invalid message: empty body"}`},
		{"empty history", event.History{}, `{"type":"history"}`},
		{"published", event.MessagePublished{Message: message},
			`{"type":"messagePublished","message":{"id":"` + message.ID.String() +
				`","seq":7,"author":"Mwalimu","text":"hello","timestamp":"2026-03-01T08:30:00Z"}}`},
	}
	for _, tt := range tests {
		frame, err := Encode(tt.in)
		req.NoError(err, tt.name)
		raw, err := json.Marshal(frame)
		req.NoError(err, tt.name)
		req.JSONEq(tt.want, string(raw), tt.name)
	}
}

func TestDecode_Gives_Back_The_Event(t *testing.T) {
	req := require.New(t)
	message := sampleMessage()
	history := event.History{Messages: []domain.Message{message}}

	frame, err := Encode(history)
	req.NoError(err)
	decoded, err := Decode(frame)

	req.NoError(err)
	req.Equal(history, decoded)
}

func TestDecode_Rejects_Unknown_Or_Broken_Frames(t *testing.T) {
	req := require.New(t)

	_, err := Decode(ServerFrame{Type: "shout"})
	req.Error(err)

	_, err = Decode(ServerFrame{Type: event.KindMessagePublished})
	req.Error(err)

	_, err = Decode(ServerFrame{Type: event.KindMessagePublished, Message: &MessageDTO{ID: "nope"}})
	req.Error(err)
}

func TestApply(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	t.Run("join goes to the session", func(t *testing.T) {
		session := mocks.NewMockISession(ctrl)
		session.EXPECT().Join().Return(nil)

		require.NoError(t, Apply(ctx, session, ClientFrame{Type: TypeJoin}))
	})

	t.Run("post maps text to body", func(t *testing.T) {
		session := mocks.NewMockISession(ctrl)
		session.EXPECT().
			Post(ctx, domain.PostMessageCommand{Author: "A", Body: "hi"}).
			Return(sampleMessage(), nil)

		require.NoError(t, Apply(ctx, session, ClientFrame{Type: TypePost, Author: "A", Text: "hi"}))
	})

	t.Run("rejected post is not a transport error", func(t *testing.T) {
		session := mocks.NewMockISession(ctrl)
		session.EXPECT().Post(ctx, gomock.Any()).Return(domain.Message{}, errors.ErrInvalidMessage)

		require.NoError(t, Apply(ctx, session, ClientFrame{Type: TypePost}))
	})

	t.Run("closed session surfaces", func(t *testing.T) {
		session := mocks.NewMockISession(ctrl)
		session.EXPECT().Post(ctx, gomock.Any()).Return(domain.Message{}, errors.ErrConnectionClosed)

		require.ErrorIs(t, Apply(ctx, session, ClientFrame{Type: TypePost, Text: "x"}), errors.ErrConnectionClosed)
	})

	t.Run("unknown type", func(t *testing.T) {
		session := mocks.NewMockISession(ctrl)

		require.ErrorIs(t, Apply(ctx, session, ClientFrame{Type: "dance"}), errors.ErrInvalidFrame)
	})
}
