// Package websocket exposes the chat over HTTP: a liveness page, a health
// endpoint and the websocket upgrade every browser client connects to.
package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"mwalimu-chat/auth"
	"mwalimu-chat/contract"
	"mwalimu-chat/errors"

	"github.com/gorilla/websocket"
)

const LiveText = "Mwalimu Assist chat is live"

type Config struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxFrameSize   int64
}

func (c Config) withDefaults() Config {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = 8192
	}
	return c
}

type Handler struct {
	log          *slog.Logger
	orchestrator contract.IOrchestrator
	authorizer   contract.Authorizer
	upgrader     websocket.Upgrader
	cfg          Config
}

func NewHandler(log *slog.Logger, orchestrator contract.IOrchestrator,
	authorizer contract.Authorizer, cfg Config) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		log:          log,
		orchestrator: orchestrator,
		authorizer:   authorizer,
		cfg:          cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewOriginPolicy(log, cfg.AllowedOrigins).Check,
		},
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Live)
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(LiveText))
}

type healthResponse struct {
	Status       string `json:"status"`
	Participants int    `json:"participants"`
	Messages     int    `json:"messages"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	stats := h.orchestrator.Stats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:       "ok",
		Participants: stats.Participants,
		Messages:     stats.Messages,
	}); err != nil {
		h.log.Error("Unable to write health response", "error", err)
	}
}

// ServeWS authorizes, upgrades, then opens a session whose pumps run until
// either side goes away.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET", http.StatusMethodNotAllowed)
		return
	}

	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	identity, err := h.authorizer.Authorize(r.Context(), token)
	if err != nil {
		h.log.Warn("Websocket connection refused", "remote_addr", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	// The request context ends with this handler, the session outlives it.
	ctx := context.WithoutCancel(r.Context())
	session, err := h.orchestrator.Connect(ctx, identity)
	if err != nil {
		if !stderrors.Is(err, errors.ErrConnectionClosed) {
			h.log.Error("Unable to open session", "remote_addr", r.RemoteAddr, "error", err)
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "unavailable"),
			time.Now().Add(h.cfg.WriteTimeout))
		_ = conn.Close()
		return
	}

	c := newClient(h.log, conn, session, h.cfg, r.RemoteAddr)
	go c.writePump()
	go c.readPump(ctx)
}
