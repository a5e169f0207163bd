package httpclient

import "context"

// Requester is the call surface feature packages depend on so tests can inject fakes.
type Requester interface {
	Do(ctx context.Context, method, path string, body Body, opts *Options) (*Result, error)
}

// TokenStore is the persistent client-side store consulted for bearer tokens.
type TokenStore interface {
	Get(key string) (string, bool, error)
}

// ExecutionContext reports whether the client runs on behalf of an end user
// (client side) or inside a trusted server process.
type ExecutionContext interface {
	ClientSide() bool
}

// ServerContext never consults the token store.
type ServerContext struct{}

func (ServerContext) ClientSide() bool { return false }

// ClientContext reads the bearer token from the token store when the caller sets none.
type ClientContext struct{}

func (ClientContext) ClientSide() bool { return true }

// Logger defines the logging surface the client relies on.
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

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
