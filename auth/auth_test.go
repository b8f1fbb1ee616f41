package auth

import (
	"context"
	"testing"
	"time"

	"mwalimu-chat/errors"

	"github.com/stretchr/testify/require"
)

var secret = []byte("a-long-enough-test-secret-for-hs256")

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "member-1", []string{"member"}, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.Equal("member-1", claims.UserID)
	req.Equal([]string{"member"}, claims.Roles)
	req.Equal(issuer, claims.Issuer)
}

func TestIssuer_Uses_Configured_Lifetime(t *testing.T) {
	req := require.New(t)
	tokens := NewIssuer(string(secret), 2*time.Hour)

	// When a token is issued
	token, err := tokens.Issue("member-3", "member")

	// Then the authorizer on the same secret accepts it and it expires after the configured lifetime
	req.NoError(err)
	identity, err := NewJWTAuthorizer(string(secret)).Authorize(context.Background(), token)
	req.NoError(err)
	req.Equal("member-3", identity.UserID)
	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.WithinDuration(claims.IssuedAt.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)

	_, err = tokens.Issue("")
	req.Error(err)
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(secret, "member-1", nil, -time.Minute)
	require.NoError(t, err)
	foreign, err := GenerateToken([]byte("another-secret"), "member-1", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Expired token", expired},
		{"Signed with another secret", foreign},
		{"Garbage", "not-a-jwt"},
		{"Empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(secret, tt.token)
			require.Error(t, err)
		})
	}
}

func TestJWTAuthorizer(t *testing.T) {
	req := require.New(t)
	authorizer := NewJWTAuthorizer(string(secret))
	token, err := GenerateToken(secret, "member-2", []string{"admin"}, time.Hour)
	req.NoError(err)

	identity, err := authorizer.Authorize(context.Background(), token)
	req.NoError(err)
	req.Equal("member-2", identity.UserID)
	req.Equal([]string{"admin"}, identity.Roles)

	_, err = authorizer.Authorize(context.Background(), "")
	req.ErrorIs(err, errors.ErrUnauthorized)

	_, err = authorizer.Authorize(context.Background(), "broken")
	req.ErrorIs(err, errors.ErrUnauthorized)
}

func TestNewAuthorizer_Disabled_Allows_Anyone(t *testing.T) {
	req := require.New(t)

	identity, err := NewAuthorizer(false, "").Authorize(context.Background(), "")

	req.NoError(err)
	req.Equal(Anonymous, identity)
	req.IsType(&JWTAuthorizer{}, NewAuthorizer(true, "secret"))
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", BearerToken("Bearer abc"))
	req.Equal("abc", BearerToken("abc"))
	req.Equal("", BearerToken(""))
}

func TestIdentityFromContext(t *testing.T) {
	req := require.New(t)
	req.Equal(Anonymous, IdentityFrom(context.Background()))

	ctx := WithIdentity(context.Background(), Anonymous)
	req.Equal(Anonymous, IdentityFrom(ctx))
}
