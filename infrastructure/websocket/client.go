package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"time"

	"mwalimu-chat/contract"
	"mwalimu-chat/errors"
	"mwalimu-chat/infrastructure/wire"

	"github.com/gorilla/websocket"
)

// client pumps frames between one websocket and its session.
// Only writePump writes to the socket. Either pump stopping closes the
// session, which closes its events and stops the other pump.
type client struct {
	log     *slog.Logger
	conn    *websocket.Conn
	session contract.ISession
	cfg     Config
}

func newClient(log *slog.Logger, conn *websocket.Conn, session contract.ISession, cfg Config, addr string) *client {
	return &client{
		log:     log.With("connection_id", session.ID(), "remote_addr", addr),
		conn:    conn,
		session: session,
		cfg:     cfg,
	}
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.session.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var frame wire.ClientFrame
		if err = json.Unmarshal(raw, &frame); err != nil {
			c.log.Warn("Ignoring malformed frame", "error", err)
			continue
		}
		err = wire.Apply(ctx, c.session, frame)
		switch {
		case err == nil:
		case stderrors.Is(err, errors.ErrInvalidFrame):
			c.log.Warn("Ignoring frame", "error", err)
		case stderrors.Is(err, errors.ErrConnectionClosed):
			return
		default:
			c.log.Error("Unable to handle frame", "type", frame.Type, "error", err)
			return
		}
	}
}

func (c *client) logReadError(err error) {
	switch {
	case stderrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "max_frame_size", c.cfg.MaxFrameSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		stderrors.Is(err, io.EOF), stderrors.Is(err, net.ErrClosed):
		c.log.Debug("Client disconnected", "error", err)
	default:
		c.log.Warn("Websocket read failed", "error", err)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.session.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case e, ok := <-c.session.Events():
			if !ok {
				c.writeClose()
				return
			}
			frame, err := wire.Encode(e)
			if err != nil {
				c.log.Error("Unable to encode event", "event", e.Kind(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err = c.conn.WriteJSON(frame); err != nil {
				c.log.Warn("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (c *client) writeClose() {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.cfg.WriteTimeout))
}
