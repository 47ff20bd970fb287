package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EncodeJSON produces the textual form stored for a "json" attribute.
//
// Differences from a bare json.Marshal:
//  1. No HTML escaping (< > & are kept as-is)
//  2. Strings (keys and values, at any depth) are NFC normalized, so two
//     visually identical documents encode to the same bytes
//  3. No trailing newline
//
// A string input is still encoded, yielding a quoted JSON string. This
// matches what every other client of the column would read back.
func EncodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeStrings(v)); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeJSON parses text produced by EncodeJSON (or any JSON document).
// Numbers are normalized with NormalizeNumber.
func DecodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode json: trailing data after document")
	}
	return normalizeDecoded(v), nil
}

// normalizeStrings walks generic JSON-shaped values and NFC normalizes
// every string. Values of other types are returned untouched and left to
// encoding/json.
func normalizeStrings(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeStrings(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[norm.NFC.String(k)] = normalizeStrings(elem)
		}
		return out
	case Row:
		return normalizeStrings(map[string]any(val))
	default:
		return v
	}
}

func normalizeDecoded(v any) any {
	switch val := v.(type) {
	case []any:
		for i, elem := range val {
			val[i] = normalizeDecoded(elem)
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeDecoded(elem)
		}
		return val
	default:
		return NormalizeNumber(v)
	}
}
