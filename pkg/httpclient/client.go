package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes a single call.
type Options struct {
	// Headers override every computed default.
	Headers map[string]string
	// BaseURL overrides the resolved base URL for this call only.
	BaseURL string
	// Raw returns the untouched transport response instead of a parsed body.
	Raw bool
}

// Config wires a Client. Zero values fall back to safe defaults.
type Config struct {
	// Env supplies API_URL / PUBLIC_API_URL at call time. Defaults to no lookup.
	Env Env
	// FallbackBaseURL is used when neither override nor Env yields a base URL.
	FallbackBaseURL string
	// Origin resolves same-origin bases such as "/api" into absolute URLs.
	Origin string
	// SameOriginInClient forces FallbackBaseURL, ignoring per-call overrides,
	// when Context reports a client-side execution.
	SameOriginInClient bool
	Context            ExecutionContext
	Tokens             TokenStore
	// Timeout bounds the whole exchange. Zero keeps the transport default (none).
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    Logger
}

// Client issues JSON-over-HTTP calls against the backoffice backend. It keeps
// no per-call state and is safe for concurrent use.
type Client struct {
	http       *resty.Client
	env        Env
	fallback   string
	origin     string
	sameOrigin bool
	exec       ExecutionContext
	tokens     TokenStore
	log        Logger
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	log := ensureLogger(cfg.Logger)
	exec := cfg.Context
	if exec == nil {
		exec = ServerContext{}
	}
	fallback := cfg.FallbackBaseURL
	if fallback == "" {
		fallback = DefaultBaseURL
	}
	return &Client{
		http:       newRestyBaseClient(cfg.Timeout, cfg.Transport, log),
		env:        cfg.Env,
		fallback:   fallback,
		origin:     cfg.Origin,
		sameOrigin: cfg.SameOriginInClient,
		exec:       exec,
		tokens:     cfg.Tokens,
		log:        log,
	}
}

// newRestyBaseClient creates a resty.Client with the specified timeout and no retries.
func newRestyBaseClient(timeout time.Duration, transport http.RoundTripper, log Logger) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	if transport != nil {
		c.SetTransport(transport)
	}
	c.SetRetryCount(0)
	c.SetLogger(restyLogger{log: log})
	return c
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *Options) (*Result, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with an optional body.
func (c *Client) Post(ctx context.Context, path string, body Body, opts *Options) (*Result, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

// Put performs a PUT request with an optional body.
func (c *Client) Put(ctx context.Context, path string, body Body, opts *Options) (*Result, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts)
}

// Patch performs a PATCH request with an optional body.
func (c *Client) Patch(ctx context.Context, path string, body Body, opts *Options) (*Result, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *Options) (*Result, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts)
}

// Do executes exactly one request: resolve base URL, encode body, resolve
// headers, send, then classify the response.
func (c *Client) Do(ctx context.Context, method, path string, body Body, opts *Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &Options{}
	}

	enc, err := encodeBody(body)
	if err != nil {
		c.log.ErrorObj("request body serialization failed", "http_serialization_error", map[string]any{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, err
	}

	target, err := absolutize(c.origin, joinURL(c.baseURL(opts.BaseURL), path))
	if err != nil {
		return nil, &TransportError{Method: method, URL: path, Err: err}
	}

	headers := resolveHeaders(opts.Headers, c.bearer(), enc)
	applyTransportHeaders(headers, enc)

	req := c.http.R().SetContext(ctx)
	req.Header = headers
	if enc.present {
		req.SetBody(enc.data)
	}
	if opts.Raw {
		req.SetDoNotParseResponse(true)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		terr := &TransportError{Method: method, URL: target, Err: err}
		c.log.ErrorObj("http request failed", "http_network_error", map[string]any{
			"method": method,
			"url":    target,
			"error":  err.Error(),
		})
		return nil, terr
	}

	if opts.Raw {
		return &Result{
			StatusCode: resp.StatusCode(),
			Header:     resp.Header(),
			Response:   resp.RawResponse,
		}, nil
	}

	raw := resp.Body()
	payload := parsePayload(raw)

	if !resp.IsSuccess() {
		text := statusText(resp.StatusCode(), resp.Status())
		apiErr := &APIError{
			StatusCode: resp.StatusCode(),
			StatusText: text,
			Payload:    payload,
			Message:    errorMessage(resp.StatusCode(), text, payload, raw),
			Method:     method,
			URL:        target,
		}
		c.log.ErrorObj("http api error", "http_api_error", map[string]any{
			"method":  method,
			"url":     target,
			"status":  apiErr.StatusCode,
			"message": apiErr.Message,
			"payload": describePayload(payload),
		})
		return nil, apiErr
	}

	return &Result{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Payload:    payload,
		Body:       raw,
	}, nil
}

// baseURL applies the same-origin rule before the regular resolution order.
func (c *Client) baseURL(override string) string {
	if c.sameOrigin && c.exec.ClientSide() {
		if override != "" {
			c.log.DebugObj("base url override ignored in client context", "base_url_override", override)
		}
		return c.fallback
	}
	return ResolveBaseURL(override, c.env, c.fallback)
}

// bearer returns the token lookup for client-side execution, nil otherwise.
func (c *Client) bearer() func() string {
	if !c.exec.ClientSide() || c.tokens == nil {
		return nil
	}
	return func() string {
		tok, err := ResolveToken(c.tokens)
		if err != nil {
			c.log.WarnObj("token lookup failed", "token_error", err.Error())
			return ""
		}
		return tok
	}
}

// restyLogger routes resty's own diagnostics through Logger.
type restyLogger struct {
	log Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.log.ErrorObj("resty", "resty_message", fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.log.WarnObj("resty", "resty_message", fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.log.DebugObj("resty", "resty_message", fmt.Sprintf(format, v...))
}
