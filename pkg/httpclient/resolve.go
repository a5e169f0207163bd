package httpclient

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// EnvAPIURL is the primary environment variable holding the backend base URL.
	EnvAPIURL = "API_URL"
	// EnvPublicAPIURL is the public-prefixed variant used by client bundles.
	EnvPublicAPIURL = "PUBLIC_API_URL"
	// DefaultBaseURL is the same-origin prefix served by the gateway.
	DefaultBaseURL = "/api"

	// TokenKey is the primary token store key.
	TokenKey = "authToken"
	// LegacyTokenKey is read when TokenKey holds nothing.
	LegacyTokenKey = "token"
)

// Env looks up a configuration value by key. Empty means unset.
type Env func(key string) string

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// ResolveBaseURL picks the base URL for one call: the override, then API_URL,
// then PUBLIC_API_URL, then fallback.
func ResolveBaseURL(override string, env Env, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if env != nil {
		for _, key := range []string{EnvAPIURL, EnvPublicAPIURL} {
			if v := strings.TrimSpace(env(key)); v != "" {
				return v
			}
		}
	}
	return fallback
}

// ResolveToken returns the first non-empty token stored under TokenKey or LegacyTokenKey.
func ResolveToken(store TokenStore) (string, error) {
	if store == nil {
		return "", nil
	}
	for _, key := range []string{TokenKey, LegacyTokenKey} {
		tok, ok, err := store.Get(key)
		if err != nil {
			return "", fmt.Errorf("read token %q: %w", key, err)
		}
		if ok && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), nil
		}
	}
	return "", nil
}

// joinURL appends path to base with exactly one slash between them.
// Absolute http(s) paths are returned untouched.
func joinURL(base, path string) string {
	if absoluteURL.MatchString(path) {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// absolutize resolves a same-origin target against origin. Targets that
// already carry a scheme, or an empty origin, pass through.
func absolutize(origin, target string) (string, error) {
	if absoluteURL.MatchString(target) || strings.TrimSpace(origin) == "" {
		return target, nil
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target %q: %w", target, err)
	}
	return base.ResolveReference(ref).String(), nil
}
