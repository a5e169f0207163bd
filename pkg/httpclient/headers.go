package httpclient

import "net/http"

const (
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
)

// resolveHeaders merges caller headers over the Accept default, then fills
// Authorization from bearer and Content-Type from the body only where absent.
// bearer is nil when the token store must not be consulted.
func resolveHeaders(caller map[string]string, bearer func() string, enc encoded) http.Header {
	h := make(http.Header, len(caller)+3)
	h.Set(headerAccept, contentTypeJSON)

	for k, v := range caller {
		h.Set(k, v)
	}

	if h.Get(headerAuthorization) == "" && bearer != nil {
		if tok := bearer(); tok != "" {
			h.Set(headerAuthorization, "Bearer "+tok)
		}
	}

	if enc.defaultContentType != "" && h.Get(headerContentType) == "" {
		h.Set(headerContentType, enc.defaultContentType)
	}
	return h
}

// applyTransportHeaders sets what the transport itself would choose for the body.
func applyTransportHeaders(h http.Header, enc encoded) {
	if enc.transportContentType != "" && h.Get(headerContentType) == "" {
		h.Set(headerContentType, enc.transportContentType)
	}
}
