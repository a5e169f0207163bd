package httpclient

import (
	"context"
	"net/http"
)

// Get performs a GET and decodes the JSON payload into T.
func Get[T any](ctx context.Context, c Requester, path string, opts *Options) (T, error) {
	return decodeAs[T](c.Do(ctx, http.MethodGet, path, nil, opts))
}

// Post performs a POST and decodes the JSON payload into T.
func Post[T any](ctx context.Context, c Requester, path string, body Body, opts *Options) (T, error) {
	return decodeAs[T](c.Do(ctx, http.MethodPost, path, body, opts))
}

// Put performs a PUT and decodes the JSON payload into T.
func Put[T any](ctx context.Context, c Requester, path string, body Body, opts *Options) (T, error) {
	return decodeAs[T](c.Do(ctx, http.MethodPut, path, body, opts))
}

// Patch performs a PATCH and decodes the JSON payload into T.
func Patch[T any](ctx context.Context, c Requester, path string, body Body, opts *Options) (T, error) {
	return decodeAs[T](c.Do(ctx, http.MethodPatch, path, body, opts))
}

// Delete performs a DELETE and decodes the JSON payload into T.
func Delete[T any](ctx context.Context, c Requester, path string, opts *Options) (T, error) {
	return decodeAs[T](c.Do(ctx, http.MethodDelete, path, nil, opts))
}

func decodeAs[T any](res *Result, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := res.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
