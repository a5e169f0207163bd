package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/tidwall/gjson"
)

// Login exchanges credentials for a bearer token. Every failure wraps
// ErrAuthFailed; backend rejections also wrap the *httpclient.APIError.
func (s *Service) Login(ctx context.Context, email, senha string, opts *httpclient.Options) (string, error) {
	if strings.TrimSpace(email) == "" || senha == "" {
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, invalid("email", "email and password are required"))
	}

	body := map[string]string{"email": email, "senha": senha}
	res, err := s.http.Do(ctx, http.MethodPost, "/login", httpclient.JSON(body), withJSON(opts))
	if err != nil {
		var terr *httpclient.TransportError
		if errors.As(err, &terr) {
			return "", fmt.Errorf("%w: server unavailable: %w", ErrAuthFailed, err)
		}
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	token := gjson.GetBytes(res.Body, "token").String()
	if token == "" {
		return "", fmt.Errorf("%w: token not received", ErrAuthFailed)
	}
	return token, nil
}
