package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapToGRPCError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: empty body", ErrInvalidMessage), codes.InvalidArgument},
		{ErrInvalidFrame, codes.InvalidArgument},
		{ErrUnauthorized, codes.Unauthenticated},
		{ErrConnectionClosed, codes.Unavailable},
		{ErrRegistryCorruption, codes.Internal},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, status.Code(MapToGRPCError(tt.err)), tt.err.Error())
	}
	require.NoError(t, MapToGRPCError(nil))
}
