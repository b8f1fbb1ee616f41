package main

import (
	"fmt"
	"io"

	"mwalimu-chat/auth"
)

// issueToken prints a token for userID signed with AUTH_SECRET and valid for
// AUTH_TOKEN_DURATION, so operators can hand out access without another service.
func issueToken(w io.Writer, config Config, userID string) error {
	if config.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required to issue tokens")
	}
	token, err := auth.NewIssuer(config.AuthSecret, config.AuthTokenDuration).Issue(userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
