package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        BodyKind
	}{
		{"application/json", BodyJSON},
		{"application/json; charset=utf-8", BodyJSON},
		{"Application/JSON", BodyJSON},
		{"application/problem+json", BodyJSON},
		{"application/vnd.api+json; charset=utf-8", BodyJSON},
		{"application/json; charset", BodyJSON},
		{"text/plain", BodyText},
		{"text/html; charset=utf-8", BodyText},
		{"text/csv", BodyText},
		{"application/octet-stream", BodyOther},
		{"image/png", BodyOther},
		{"", BodyOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyContentType(tt.contentType))
		})
	}
}

func TestDecodeBody(t *testing.T) {
	t.Run("json object", func(t *testing.T) {
		data, text := decodeBody(BodyJSON, []byte(`{"a":[1,"two",true]}`))
		assert.Nil(t, text)
		assert.Equal(t, map[string]any{"a": []any{float64(1), "two", true}}, data)
	})

	t.Run("json scalar", func(t *testing.T) {
		data, text := decodeBody(BodyJSON, []byte(`"hi"`))
		assert.Nil(t, text)
		assert.Equal(t, "hi", data)
	})

	t.Run("json null", func(t *testing.T) {
		data, text := decodeBody(BodyJSON, []byte(`null`))
		assert.Nil(t, text)
		assert.Equal(t, json.RawMessage("null"), data)
	})

	t.Run("json with trailing garbage", func(t *testing.T) {
		data, text := decodeBody(BodyJSON, []byte(`{"a":1} trailing`))
		assert.Nil(t, data)
		require.NotNil(t, text)
		assert.Equal(t, `{"a":1} trailing`, *text)
	})

	t.Run("empty json body", func(t *testing.T) {
		data, text := decodeBody(BodyJSON, nil)
		assert.Nil(t, data)
		require.NotNil(t, text)
		assert.Equal(t, "", *text)
	})

	t.Run("text and other are never parsed", func(t *testing.T) {
		for _, kind := range []BodyKind{BodyText, BodyOther} {
			data, text := decodeBody(kind, []byte(`{"a":1}`))
			assert.Nil(t, data)
			require.NotNil(t, text)
			assert.Equal(t, `{"a":1}`, *text)
		}
	})
}

func TestBodyKindString(t *testing.T) {
	assert.Equal(t, "json", BodyJSON.String())
	assert.Equal(t, "text", BodyText.String())
	assert.Equal(t, "other", BodyOther.String())
}
