package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError turns a chat sentinel into a status a gRPC client can act on.
func MapToGRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ErrInvalidMessage), stderrors.Is(err, ErrInvalidFrame):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case stderrors.Is(err, ErrConnectionClosed), stderrors.Is(err, ErrTransportFailure):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
