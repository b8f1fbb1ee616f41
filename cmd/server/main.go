package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mwalimu-chat/auth"
	"mwalimu-chat/infrastructure/grpc/server"
	"mwalimu-chat/infrastructure/websocket"
	"mwalimu-chat/repositories"
	"mwalimu-chat/runtime"
	"mwalimu-chat/runtime/workers"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and keeps a single exit point, so deferred
// cleanup always runs before the process exits.
func run() error {
	issueFor := flag.String("issue-token", "", "print a signed token for this user id and exit")
	flag.Parse()

	// 1. Configuration & Logger, a missing .env is fine
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if *issueFor != "" {
		return issueToken(os.Stdout, config, *issueFor)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. History
	history, closeHistory, err := repositories.NewHistory(config.HistoryBackend, log, config.HistoryMaxSize)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer func() {
		log.Info("Closing history", "backend", config.HistoryBackend)
		_ = closeHistory()
	}()

	// 3. Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup, history, config.ConnectionBufferSize,
		runtime.WithLimits(config.Limits()),
		runtime.WithDefaultAuthor(config.DefaultAuthor),
		runtime.WithReplayLimit(config.HistoryReplayLimit),
	)
	orchestrator.Add(workers.NewTelemetryWorker(log, config.MetricInterval, orchestrator.Stats))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := orchestrator.Start(ctx); err != nil {
			log.Error("Orchestrator stopped", "error", err)
		}
	}()

	// 5. Transports
	authorizer := auth.NewAuthorizer(config.AuthEnabled, config.AuthSecret)
	handler := websocket.NewHandler(log, orchestrator, authorizer, websocket.Config{
		AllowedOrigins: config.Origins(),
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		MaxFrameSize:   config.MaxFrameSize,
	})
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcAddress := net.JoinHostPort(config.Host, strconv.Itoa(config.GRPCPort))
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := server.NewGRPCServer(log, orchestrator, authorizer)

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !stderrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Mwalimu chat server running", "address", httpServer.Addr,
			"participants", orchestrator.Stats().Participants, "auth", config.AuthEnabled)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server failed, shutting down", "error", runErr)
	}

	// 7. Final Cleanup: closing sessions first ends every stream and pump
	orchestrator.Stop()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")
	return runErr
}
