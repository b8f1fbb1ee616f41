package websocket

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tests := []struct {
		name    string
		origins []string
		header  string
		want    bool
	}{
		{"No list allows anything", nil, "https://any.example", true},
		{"Star allows anything", []string{"*"}, "https://any.example", true},
		{"Blank entries allow anything", []string{" ", ""}, "https://any.example", true},
		{"Only invalid entries allow nobody", []string{"not an origin"}, "https://any.example", false},
		{"Host without scheme allows nobody", []string{"localhost:5173"}, "https://evil.example", false},
		{"Host without scheme does not match itself", []string{"localhost:5173"}, "http://localhost:5173", false},
		{"Invalid entry next to a valid one", []string{"localhost:5173", "https://mwalimu.example"}, "https://mwalimu.example", true},
		{"Listed origin", []string{"https://mwalimu.example"}, "https://mwalimu.example", true},
		{"Case and trailing path are ignored", []string{"https://Mwalimu.example/app"}, "HTTPS://mwalimu.EXAMPLE", true},
		{"Other origin", []string{"https://mwalimu.example"}, "https://evil.example", false},
		{"Scheme matters", []string{"https://mwalimu.example"}, "http://mwalimu.example", false},
		{"No header is a non-browser client", []string{"https://mwalimu.example"}, "", true},
		{"Garbage header", []string{"https://mwalimu.example"}, "::::", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.header != "" {
				r.Header.Set("Origin", tt.header)
			}
			require.Equal(t, tt.want, NewOriginPolicy(log, tt.origins).Check(r))
		})
	}
}

func TestValidateOrigins(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateOrigins(nil))
	req.NoError(ValidateOrigins([]string{"*", " ", "https://mwalimu.example", "http://localhost:5173"}))

	err := ValidateOrigins([]string{"https://mwalimu.example", "localhost:5173"})
	req.ErrorContains(err, "localhost:5173")
}
