package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
)

// httpPublisher posts events to a webhook through the shared client core.
type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Requester
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := httpclient.New(httpclient.Config{
		Context: httpclient.ServerContext{},
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Logger:  ensureLogger(log),
	})

	return &httpPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	_, err := h.client.Do(ctx, h.method, h.url, httpclient.JSON(evt), &httpclient.Options{Headers: h.headers})
	if err == nil {
		return nil
	}

	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("http response status %d: %s", apiErr.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("http request: %w", err)
}
