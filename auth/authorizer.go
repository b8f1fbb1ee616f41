package auth

import (
	"context"
	"fmt"
	"strings"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/errors"
)

// Anonymous is the identity handed out when authentication is disabled.
var Anonymous = domain.Identity{UserID: "anonymous"}

var (
	_ contract.Authorizer = (*JWTAuthorizer)(nil)
	_ contract.Authorizer = AllowAll{}
)

// JWTAuthorizer accepts tokens signed with the shared secret.
type JWTAuthorizer struct {
	secret []byte
}

func NewJWTAuthorizer(secret string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret)}
}

func (a *JWTAuthorizer) Authorize(_ context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, fmt.Errorf("%w: token is missing", errors.ErrUnauthorized)
	}
	claims, err := ValidateToken(a.secret, token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	return domain.Identity{UserID: claims.UserID, Roles: claims.Roles}, nil
}

// AllowAll lets every connection in as Anonymous.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, string) (domain.Identity, error) {
	return Anonymous, nil
}

// NewAuthorizer picks the authorizer matching the configuration.
func NewAuthorizer(enabled bool, secret string) contract.Authorizer {
	if !enabled {
		return AllowAll{}
	}
	return NewJWTAuthorizer(secret)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom falls back to Anonymous when nothing was injected.
func IdentityFrom(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityKey).(domain.Identity); ok {
		return identity
	}
	return Anonymous
}
