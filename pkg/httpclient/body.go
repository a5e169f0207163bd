package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
)

const (
	contentTypeJSON       = "application/json"
	contentTypeURLEncoded = "application/x-www-form-urlencoded;charset=UTF-8"
)

// Body is a request payload. Construct one with Text, JSON, Form, Binary or URLEncoded;
// a nil Body sends nothing.
type Body interface {
	encode() (encoded, error)
}

// encoded is the wire form of a Body.
type encoded struct {
	present bool
	data    []byte
	// defaultContentType is filled in by header resolution when the caller set none.
	defaultContentType string
	// transportContentType is what the transport would pick; applied after header resolution.
	transportContentType string
}

// encodeBody maps a Body to its bytes and content type defaults.
func encodeBody(b Body) (encoded, error) {
	if b == nil {
		return encoded{}, nil
	}
	return b.encode()
}

type textBody string

// Text sends s verbatim. It is assumed to be pre-serialized JSON.
func Text(s string) Body { return textBody(s) }

func (t textBody) encode() (encoded, error) {
	return encoded{present: true, data: []byte(t), defaultContentType: contentTypeJSON}, nil
}

type jsonBody struct{ v any }

// JSON serializes v with encoding/json. JSON(nil) sends nothing.
func JSON(v any) Body { return jsonBody{v: v} }

func (j jsonBody) encode() (encoded, error) {
	if j.v == nil {
		return encoded{}, nil
	}
	data, err := json.Marshal(j.v)
	if err != nil {
		return encoded{}, &SerializationError{Err: err}
	}
	return encoded{present: true, data: data, defaultContentType: contentTypeJSON}, nil
}

type binaryBody struct {
	data        []byte
	contentType string
}

// Binary sends data verbatim. contentType may be empty, in which case the transport sniffs one.
func Binary(data []byte, contentType string) Body {
	return binaryBody{data: data, contentType: contentType}
}

func (b binaryBody) encode() (encoded, error) {
	return encoded{present: true, data: b.data, transportContentType: b.contentType}, nil
}

type urlEncodedBody url.Values

// URLEncoded sends values as an application/x-www-form-urlencoded query string.
func URLEncoded(values url.Values) Body { return urlEncodedBody(values) }

func (u urlEncodedBody) encode() (encoded, error) {
	return encoded{
		present:              true,
		data:                 []byte(url.Values(u).Encode()),
		transportContentType: contentTypeURLEncoded,
	}, nil
}

// FormFile is a file part of a multipart form body.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type formBody struct {
	fields map[string]string
	files  []FormFile
}

// Form sends a multipart/form-data payload. The boundary parameter is owned by
// the transport, so header resolution never sets Content-Type for it.
func Form(fields map[string]string, files ...FormFile) Body {
	return formBody{fields: fields, files: files}
}

func (f formBody) encode() (encoded, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.fields[k]); err != nil {
			return encoded{}, &SerializationError{Err: fmt.Errorf("write field %q: %w", k, err)}
		}
	}

	for _, file := range f.files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		part, err := w.CreatePart(hdr)
		if err != nil {
			return encoded{}, &SerializationError{Err: fmt.Errorf("create part %q: %w", file.Field, err)}
		}
		if _, err := part.Write(file.Data); err != nil {
			return encoded{}, &SerializationError{Err: fmt.Errorf("write part %q: %w", file.Field, err)}
		}
	}

	if err := w.Close(); err != nil {
		return encoded{}, &SerializationError{Err: fmt.Errorf("close multipart writer: %w", err)}
	}
	return encoded{
		present:              true,
		data:                 buf.Bytes(),
		transportContentType: w.FormDataContentType(),
	}, nil
}
