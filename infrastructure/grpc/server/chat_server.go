package server

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"mwalimu-chat/auth"
	"mwalimu-chat/contract"
	"mwalimu-chat/errors"
	"mwalimu-chat/infrastructure/grpc/chatv1"
	"mwalimu-chat/infrastructure/wire"
)

var _ chatv1.ChatServiceServer = (*ChatServer)(nil)

type ChatServer struct {
	log          *slog.Logger
	orchestrator contract.IOrchestrator
}

func NewChatServer(log *slog.Logger, orchestrator contract.IOrchestrator) *ChatServer {
	return &ChatServer{log: log, orchestrator: orchestrator}
}

// Session holds one chat connection for the lifetime of the stream.
// Inbound frames are read on their own goroutine, this one only sends,
// so a slow client never blocks its own posts.
func (s *ChatServer) Session(stream chatv1.ChatService_SessionServer) error {
	ctx := stream.Context()
	identity := auth.IdentityFrom(ctx)

	session, err := s.orchestrator.Connect(context.WithoutCancel(ctx), identity)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer session.Close()
	log := s.log.With("connection_id", session.ID(), "user_id", identity.UserID)

	recvErr := make(chan error, 1)
	go func() {
		recvErr <- s.receive(ctx, log, stream, session)
	}()

	for {
		select {
		case e, ok := <-session.Events():
			if !ok {
				log.Debug("Session closed by the hub")
				return nil
			}
			frame, err := wire.Encode(e)
			if err != nil {
				log.Error("Unable to encode event", "event", e.Kind(), "error", err)
				continue
			}
			if err = stream.Send(&frame); err != nil {
				log.Warn("Failed to push event to stream", "error", err)
				return err
			}
		case err := <-recvErr:
			if err == nil || stderrors.Is(err, io.EOF) || stderrors.Is(err, errors.ErrConnectionClosed) {
				log.Debug("Client ended the stream")
				return nil
			}
			return errors.MapToGRPCError(err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *ChatServer) receive(ctx context.Context, log *slog.Logger,
	stream chatv1.ChatService_SessionServer, session contract.ISession) error {
	for {
		frame, err := stream.Recv()
		if err != nil {
			return err
		}
		if err = wire.Apply(ctx, session, *frame); err != nil {
			if stderrors.Is(err, errors.ErrInvalidFrame) {
				log.Warn("Ignoring frame", "error", err)
				continue
			}
			return err
		}
	}
}
