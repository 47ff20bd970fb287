package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON_Object(t *testing.T) {
	text, err := EncodeJSON(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, text)
}

func TestEncodeJSON_StringIsQuoted(t *testing.T) {
	// Already-textual values are still encoded.
	text, err := EncodeJSON("hello")
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, text)
}

func TestEncodeJSON_NoHTMLEscaping(t *testing.T) {
	text, err := EncodeJSON(map[string]any{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, text)
}

func TestEncodeJSON_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent (NFD) must encode like the precomposed form.
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	a, err := EncodeJSON(map[string]any{decomposed: []any{decomposed}})
	require.NoError(t, err)
	b, err := EncodeJSON(map[string]any{composed: []any{composed}})
	require.NoError(t, err)

	assert.Equal(t, b, a)
}

func TestEncodeJSON_Unsupported(t *testing.T) {
	_, err := EncodeJSON(make(chan int))
	assert.Error(t, err)
}

func TestDecodeJSON_RoundTripsEncodedText(t *testing.T) {
	text, err := EncodeJSON(map[string]any{"a": 1, "tags": []any{"x", 2.5}})
	require.NoError(t, err)

	v, err := DecodeJSON(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "tags": []any{"x", 2.5}}, v)
}

func TestDecodeJSON_RejectsGarbage(t *testing.T) {
	_, err := DecodeJSON("{not json")
	assert.Error(t, err)

	_, err = DecodeJSON(`{"a":1} {"b":2}`)
	assert.Error(t, err)
}
