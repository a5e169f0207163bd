package backoffice

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	brDate  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// toISO converts dd/MM/yyyy to yyyy-MM-dd; anything else passes through.
func toISO(v string) string {
	if v == "" || isoDate.MatchString(v) {
		return v
	}
	if m := brDate.FindStringSubmatch(v); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return v
}

// dashedToISO is the looser variant used by operations: values containing a
// dash are kept, otherwise the first three slash-separated parts are reversed.
func dashedToISO(v string) string {
	if v == "" || strings.Contains(v, "-") {
		return v
	}
	parts := strings.Split(v, "/")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return v
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// present reports whether v exists and is not JSON null.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// first returns the first present value among paths.
func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); present(v) {
			return v
		}
	}
	return gjson.Result{}
}

// firstFilled is first, but also skips empty strings.
func firstFilled(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); present(v) && v.String() != "" {
			return v
		}
	}
	return gjson.Result{}
}

func optString(v gjson.Result) *string {
	if !present(v) {
		return nil
	}
	s := v.String()
	return &s
}

func optISO(v gjson.Result) *string {
	if !present(v) || v.String() == "" {
		return nil
	}
	s := toISO(v.String())
	return &s
}

// number mirrors a lenient numeric cast: unparsable values become zero.
func number(v gjson.Result) float64 {
	return v.Float()
}

func optNumber(v gjson.Result) *float64 {
	if !present(v) {
		return nil
	}
	n := v.Float()
	return &n
}

func optInt(v gjson.Result) *int {
	if !present(v) {
		return nil
	}
	n := int(v.Int())
	return &n
}

// emptyToNil maps blank strings to nil so they encode as JSON null.
func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// array returns the elements of a JSON array payload, or nil.
func array(raw []byte) []gjson.Result {
	r := gjson.ParseBytes(raw)
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}
