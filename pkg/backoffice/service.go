// Package backoffice exposes the backoffice REST resources (clients,
// operations, receivables, staff, users and lookup tables) on top of the
// httpclient core.
package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
)

var (
	// ErrDuplicateClient is returned when the backend rejects a client upsert with 409.
	ErrDuplicateClient = errors.New("client already registered")
	// ErrAuthFailed wraps every login failure.
	ErrAuthFailed = errors.New("authentication failed")
)

// ValidationError reports an input rejected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// EventPublisher receives change events after successful mutations.
// *publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Logger defines the logging surface the services rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// Option customises a Service.
type Option func(*Service)

// WithEvents publishes a change event after every successful upsert or delete.
func WithEvents(pub EventPublisher) Option {
	return func(s *Service) { s.events = pub }
}

// WithLogger sets the logger used for event publication diagnostics.
func WithLogger(log Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service groups every backoffice resource behind one Requester.
type Service struct {
	http   httpclient.Requester
	events EventPublisher
	log    Logger
}

// New builds a Service issuing calls through req.
func New(req httpclient.Requester, opts ...Option) *Service {
	s := &Service{http: req, log: noopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBearer returns call options carrying an explicit Authorization header,
// for server-side callers that hold the token themselves.
func WithBearer(token string) *httpclient.Options {
	return &httpclient.Options{Headers: map[string]string{"Authorization": "Bearer " + token}}
}

// withJSON copies opts and forces a JSON Content-Type over caller headers.
func withJSON(opts *httpclient.Options) *httpclient.Options {
	out := httpclient.Options{}
	if opts != nil {
		out = *opts
	}
	headers := make(map[string]string, len(out.Headers)+1)
	for k, v := range out.Headers {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	out.Headers = headers
	return &out
}

// save POSTs to collection or PUTs to collection/{id} when id is set.
func (s *Service) save(ctx context.Context, collection string, id int, body any, opts *httpclient.Options) (*httpclient.Result, error) {
	if id > 0 {
		return s.http.Do(ctx, http.MethodPut, itemPath(collection, id), httpclient.JSON(body), opts)
	}
	return s.http.Do(ctx, http.MethodPost, collection, httpclient.JSON(body), opts)
}

func (s *Service) remove(ctx context.Context, resource, collection string, id int, opts *httpclient.Options) error {
	if _, err := s.http.Do(ctx, http.MethodDelete, itemPath(collection, id), nil, opts); err != nil {
		return fmt.Errorf("delete %s %d: %w", resource, id, err)
	}
	s.emit(ctx, resource, publishers.ActionDelete, id, nil)
	return nil
}

// emit publishes a change event. Failures are logged and never surface to the caller.
func (s *Service) emit(ctx context.Context, resource, action string, id int, record any) {
	if s.events == nil {
		return
	}

	recordID := ""
	if id > 0 {
		recordID = strconv.Itoa(id)
	}
	evt, err := publishers.NewEvent(resource, action, recordID, record)
	if err != nil {
		s.log.WarnObj("build change event failed", "event_error", map[string]any{
			"resource": resource,
			"error":    err.Error(),
		})
		return
	}

	delivered, err := s.events.Publish(ctx, evt)
	if err != nil {
		s.log.WarnObj("publish change event failed", "event_error", map[string]any{
			"resource":  resource,
			"action":    action,
			"event_id":  evt.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	s.log.DebugObj("change event published", "event_published", map[string]any{
		"resource":  resource,
		"action":    action,
		"event_id":  evt.ID,
		"delivered": delivered,
	})
}

func itemPath(collection string, id int) string {
	return collection + "/" + strconv.Itoa(id)
}
