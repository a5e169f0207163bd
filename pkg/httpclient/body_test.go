package httpclient

import (
	"net/url"
	"strings"
	"testing"
)

func TestEncodeBodyDispatch(t *testing.T) {
	cases := []struct {
		name          string
		body          Body
		present       bool
		data          string
		defaultCT     string
		transportCT   string
		transportPref string
	}{
		{name: "absent", body: nil},
		{name: "json nil", body: JSON(nil)},
		{name: "text", body: Text(`{"a":1}`), present: true, data: `{"a":1}`, defaultCT: "application/json"},
		{name: "json", body: JSON(map[string]int{"a": 1}), present: true, data: `{"a":1}`, defaultCT: "application/json"},
		{name: "binary", body: Binary([]byte{0x1, 0x2}, ""), present: true, data: "\x01\x02"},
		{name: "binary typed", body: Binary([]byte("%PDF"), "application/pdf"), present: true, data: "%PDF", transportCT: "application/pdf"},
		{name: "urlencoded", body: URLEncoded(url.Values{"q": {"a b"}}), present: true, data: "q=a+b", transportCT: contentTypeURLEncoded},
		{name: "form", body: Form(map[string]string{"k": "v"}), present: true, transportPref: "multipart/form-data; boundary="},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := encodeBody(tc.body)
			if err != nil {
				t.Fatalf("encodeBody: %v", err)
			}
			if enc.present != tc.present {
				t.Fatalf("present = %v", enc.present)
			}
			if tc.data != "" && string(enc.data) != tc.data {
				t.Fatalf("data = %q", enc.data)
			}
			if enc.defaultContentType != tc.defaultCT {
				t.Fatalf("default content type = %q", enc.defaultContentType)
			}
			if tc.transportPref != "" {
				if !strings.HasPrefix(enc.transportContentType, tc.transportPref) {
					t.Fatalf("transport content type = %q", enc.transportContentType)
				}
			} else if enc.transportContentType != tc.transportCT {
				t.Fatalf("transport content type = %q", enc.transportContentType)
			}
		})
	}
}

func TestResolveHeadersNeverSetsContentTypeForForm(t *testing.T) {
	enc, err := encodeBody(Form(map[string]string{"a": "b"}))
	if err != nil {
		t.Fatalf("encodeBody: %v", err)
	}
	h := resolveHeaders(nil, nil, enc)
	if got := h.Get("Content-Type"); got != "" {
		t.Fatalf("header resolution set Content-Type %q for a form body", got)
	}
}

func TestResolveHeadersOrder(t *testing.T) {
	enc, _ := encodeBody(Text("{}"))
	calls := 0
	bearer := func() string {
		calls++
		return "tok"
	}

	h := resolveHeaders(map[string]string{"X-Trace": "1"}, bearer, enc)
	if h.Get("Accept") != "application/json" || h.Get("Authorization") != "Bearer tok" || h.Get("Content-Type") != "application/json" || h.Get("X-Trace") != "1" {
		t.Fatalf("unexpected headers %v", h)
	}

	h = resolveHeaders(map[string]string{"authorization": "Basic abc"}, bearer, enc)
	if h.Get("Authorization") != "Basic abc" {
		t.Fatalf("caller Authorization overwritten: %v", h)
	}
	if calls != 1 {
		t.Fatalf("token lookup should be skipped when the caller sets Authorization, calls=%d", calls)
	}
}

func TestResolveHeadersWithoutBodyHasNoContentType(t *testing.T) {
	h := resolveHeaders(nil, nil, encoded{})
	if _, ok := h["Content-Type"]; ok {
		t.Fatalf("unexpected Content-Type for absent body")
	}
}
