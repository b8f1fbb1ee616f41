package server

import (
	"log/slog"

	"mwalimu-chat/auth"
	"mwalimu-chat/contract"
	"mwalimu-chat/infrastructure/grpc/chatv1"

	"google.golang.org/grpc"
)

// NewGRPCServer registers the chat service behind the authorization interceptor.
func NewGRPCServer(log *slog.Logger, orchestrator contract.IOrchestrator, authorizer contract.Authorizer) *grpc.Server {
	s := grpc.NewServer(grpc.StreamInterceptor(auth.StreamInterceptor(authorizer)))
	chatv1.RegisterChatServiceServer(s, NewChatServer(log, orchestrator))
	return s
}
