package main

import (
	"fmt"
	"strings"
	"time"

	"mwalimu-chat/domain"
	"mwalimu-chat/infrastructure/websocket"

	"github.com/samber/lo"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=5000"`
	GRPCPort             int           `env:"GRPC_PORT,default=5001"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	HistoryBackend       string        `env:"HISTORY_BACKEND,default=memory"`
	HistoryMaxSize       int           `env:"HISTORY_MAX_SIZE,default=0"`
	HistoryReplayLimit   int           `env:"HISTORY_REPLAY_LIMIT,default=0"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	MaxAuthorLength      int           `env:"MAX_AUTHOR_LENGTH,default=64"`
	DefaultAuthor        string        `env:"DEFAULT_AUTHOR,default=Mwalimu"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
	AuthEnabled          bool          `env:"AUTH_ENABLED,default=false"`
	AuthSecret           string        `env:"AUTH_SECRET"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	MaxFrameSize         int64         `env:"MAX_FRAME_SIZE,default=8192"`
}

// Origins splits the comma separated ALLOWED_ORIGINS, empty means any origin.
func (c Config) Origins() []string {
	return lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func (c Config) Limits() domain.Limits {
	return domain.Limits{MaxContentLength: c.MaxContentLength, MaxAuthorLength: c.MaxAuthorLength}
}

// Validate refuses settings that would silently weaken the server:
//  1. auth turned on without a secret
//  2. an allow-list entry that is not a scheme://host origin
func (c Config) Validate() error {
	if c.AuthEnabled && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when AUTH_ENABLED is set")
	}
	if err := websocket.ValidateOrigins(c.Origins()); err != nil {
		return fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}
	return nil
}
