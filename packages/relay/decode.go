package relay

import (
	"encoding/json"
	"mime"
	"strings"
)

// BodyKind classifies a response body by its declared content type.
type BodyKind int

const (
	BodyOther BodyKind = iota
	BodyJSON
	BodyText
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "other"
	}
}

// jsonNull stands in for a body that decoded to the JSON literal null, so
// that decoded data stays distinguishable from no data.
var jsonNull = json.RawMessage("null")

// ClassifyContentType maps a Content-Type header value onto a BodyKind.
func ClassifyContentType(contentType string) BodyKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return BodyOther
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		// Malformed parameters; fall back to substring matching
		mediaType = ct
		if strings.Contains(ct, "application/json") {
			return BodyJSON
		}
	}

	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return BodyJSON
	case strings.HasPrefix(mediaType, "text/"):
		return BodyText
	}
	return BodyOther
}

// decodeBody fills exactly one of data or text. A JSON body that does not
// parse is returned as text.
func decodeBody(kind BodyKind, body []byte) (data any, text *string) {
	if kind == BodyJSON {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			if v == nil {
				return jsonNull, nil
			}
			return v, nil
		}
	}

	s := string(body)
	return nil, &s
}
