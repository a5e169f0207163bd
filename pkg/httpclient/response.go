package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Result is the outcome of a successful call.
type Result struct {
	StatusCode int
	Header     http.Header
	// Payload is the decoded JSON body, the raw text when it was not JSON, or nil when empty.
	Payload any
	// Body is the full response text. Empty in raw mode.
	Body []byte
	// Response is the untouched transport response, only set in raw mode.
	// The caller owns and must close Response.Body.
	Response *http.Response
}

// Decode unmarshals the response body into v. An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parsePayload decodes body as JSON, falling back to the raw text.
func parsePayload(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// errorMessage prefers the payload's message field, then its error field,
// then a synthesized "HTTP <status>: <text>".
func errorMessage(code int, text string, payload any, body []byte) string {
	if _, ok := payload.(map[string]any); ok {
		for _, field := range []string{"message", "error"} {
			if r := gjson.GetBytes(body, field); truthy(r) {
				return r.String()
			}
		}
	}
	return fmt.Sprintf("HTTP %d: %s", code, text)
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

// statusText returns the reason phrase for code, falling back to the one
// carried by the status line ("418 I'm a teapot").
func statusText(code int, statusLine string) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	if _, rest, ok := strings.Cut(statusLine, " "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
