package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// NormalizeHeaders turns an arbitrary value into request headers.
// Anything that is not a map yields an empty map. Entries with nil values
// are dropped; remaining keys and values are converted to strings.
func NormalizeHeaders(input any) map[string]string {
	out := make(map[string]string)
	if isNil(input) {
		return out
	}

	switch h := input.(type) {
	case map[string]string:
		for k, v := range h {
			out[k] = v
		}
		return out
	case map[string]any:
		for k, v := range h {
			if isNil(v) {
				continue
			}
			out[k] = stringify(v)
		}
		return out
	case http.Header:
		for k := range h {
			out[k] = h.Get(k)
		}
		return out
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return out
	}

	iter := rv.MapRange()
	for iter.Next() {
		v := iter.Value().Interface()
		if isNil(v) {
			continue
		}
		out[stringify(iter.Key().Interface())] = stringify(v)
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// collectHeaders flattens response headers into lower-cased names, joining
// repeated values with ", ".
func collectHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, vs := range h {
		headers[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return headers
}
