package main

import (
	"context"
	"fmt"
	"net/http"

	"mwalimu-chat/domain/event"
	"mwalimu-chat/infrastructure/grpc/client"
	"mwalimu-chat/infrastructure/wire"

	"github.com/gorilla/websocket"
)

// link is one way of talking to the server, websocket or gRPC.
type link interface {
	Post(author, text string) error
	Next() (event.Event, error)
	Close() error
}

func dial(ctx context.Context, cfg Config) (link, error) {
	switch cfg.Transport {
	case TransportWebsocket:
		return dialWebsocket(ctx, cfg.ServerURL, cfg.Token)
	case TransportGRPC:
		return client.Dial(ctx, cfg.GRPCAddr, cfg.Token)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

type websocketLink struct {
	conn *websocket.Conn
}

func dialWebsocket(ctx context.Context, url, token string) (*websocketLink, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &websocketLink{conn: conn}, nil
}

func (l *websocketLink) Post(author, text string) error {
	return l.conn.WriteJSON(wire.ClientFrame{Type: wire.TypePost, Author: author, Text: text})
}

func (l *websocketLink) Next() (event.Event, error) {
	var frame wire.ServerFrame
	if err := l.conn.ReadJSON(&frame); err != nil {
		return nil, err
	}
	return wire.Decode(frame)
}

func (l *websocketLink) Close() error {
	_ = l.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	return l.conn.Close()
}
