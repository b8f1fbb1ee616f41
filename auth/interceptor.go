package auth

import (
	"context"

	"mwalimu-chat/contract"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// StreamInterceptor validates the authorization metadata of every incoming
// stream and injects the resulting identity into the stream context.
func StreamInterceptor(authorizer contract.Authorizer) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				token = BearerToken(values[0])
			}
		}

		identity, err := authorizer.Authorize(ctx, token)
		if err != nil {
			return status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(srv, &identityStream{ServerStream: ss, ctx: WithIdentity(ctx, identity)})
	}
}

// identityStream overrides Context so handlers see the injected identity.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context {
	return s.ctx
}
