package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Allowlist is the static set of usernames authorized to use the bot. It is
// built once at startup and read-only afterwards, so concurrent lookups need
// no synchronization.
type Allowlist struct {
	names map[string]struct{}
}

// ParseAllowlist builds an Allowlist from a JSON array of usernames, e.g.
// `["alice","bob"]`. The array must be valid JSON and contain at least one
// non-blank entry.
func ParseAllowlist(raw string) (Allowlist, error) {
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return Allowlist{}, fmt.Errorf("allowlist must be a JSON array of usernames: %w", err)
	}

	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		names[e] = struct{}{}
	}
	if len(names) == 0 {
		return Allowlist{}, fmt.Errorf("allowlist contains no usernames")
	}
	return Allowlist{names: names}, nil
}

// IsOwner reports whether the username is authorized. A blank username is
// never authorized.
func (a Allowlist) IsOwner(username string) bool {
	if username == "" {
		return false
	}
	_, ok := a.names[username]
	return ok
}
