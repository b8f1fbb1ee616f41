package websocket

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// OriginPolicy decides which browser origins may open a websocket.
// An empty list, or "*", allows everybody. A non-empty list whose entries
// are all invalid allows nobody. Requests without an Origin header come from
// non-browser clients and are let through.
type OriginPolicy struct {
	log      *slog.Logger
	allowAll bool
	allowed  map[string]struct{}
}

// NewOriginPolicy builds the policy from scheme://host entries.
// Invalid entries are logged and skipped, use ValidateOrigins to refuse them up front.
func NewOriginPolicy(log *slog.Logger, origins []string) *OriginPolicy {
	p := &OriginPolicy{log: log, allowed: map[string]struct{}{}}
	configured := len(lo.Compact(lo.Map(origins, func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))) > 0
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
		default:
			normalized, ok := normalizeOrigin(trimmed)
			if !ok {
				log.Warn("Ignoring invalid origin in configuration", "origin", origin)
				continue
			}
			p.allowed[normalized] = struct{}{}
		}
	}
	if !configured {
		p.allowAll = true
	}
	if configured && !p.allowAll && len(p.allowed) == 0 {
		log.Error("No valid origin in allow-list, every browser origin will be refused", "origins", origins)
	}
	return p
}

// ValidateOrigins returns an error naming the first entry that is neither "*"
// nor a scheme://host origin. Blank entries are ignored.
func ValidateOrigins(origins []string) error {
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || trimmed == "*" {
			continue
		}
		if _, ok := normalizeOrigin(trimmed); !ok {
			return fmt.Errorf("invalid origin %q, expected scheme://host", origin)
		}
	}
	return nil
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// Check has the signature expected by websocket.Upgrader.CheckOrigin.
func (p *OriginPolicy) Check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if p.allowAll || header == "" {
		return true
	}
	if normalized, ok := normalizeOrigin(header); ok {
		if _, exists := p.allowed[normalized]; exists {
			return true
		}
	}
	p.log.Warn("Blocked websocket connection from disallowed origin", "origin", header)
	return false
}
