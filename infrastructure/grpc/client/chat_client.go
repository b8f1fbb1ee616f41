package client

import (
	"context"
	"fmt"

	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/infrastructure/grpc/chatv1"
	"mwalimu-chat/infrastructure/wire"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// ChatClient is a typed handle on one chat.v1 Session stream.
type ChatClient struct {
	conn   *grpc.ClientConn
	stream chatv1.ChatService_SessionClient
}

// Dial opens the connection and the stream. Extra dial options come after
// the insecure transport credentials so tests can swap the dialer.
func Dial(ctx context.Context, target, token string, opts ...grpc.DialOption) (*ChatClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	stream, err := chatv1.NewChatServiceClient(conn).Session(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &ChatClient{conn: conn, stream: stream}, nil
}

func (c *ChatClient) Join() error {
	return c.stream.Send(&wire.ClientFrame{Type: wire.TypeJoin})
}

func (c *ChatClient) Post(author, text string) error {
	return c.stream.Send(&wire.ClientFrame{Type: wire.TypePost, Author: author, Text: text})
}

// Next blocks until the server sends an event or the stream ends.
func (c *ChatClient) Next() (event.Event, error) {
	frame, err := c.stream.Recv()
	if err != nil {
		return nil, err
	}
	return wire.Decode(*frame)
}

func (c *ChatClient) History() ([]domain.Message, error) {
	for {
		e, err := c.Next()
		if err != nil {
			return nil, err
		}
		if h, ok := e.(event.History); ok {
			return h.Messages, nil
		}
	}
}

func (c *ChatClient) Close() error {
	_ = c.stream.CloseSend()
	return c.conn.Close()
}
