// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// Classify reports which layout a generically parsed payload uses. Only
// object-shaped payloads can be classified; anything else yields
// ErrMalformedManifest.
func Classify(payload any) (Format, error) {
	switch doc := payload.(type) {
	case map[string]any:
		if _, ok := doc[VersionKey]; ok {
			return FormatVersioned, nil
		}
		return FormatLegacy, nil
	case map[any]any:
		if _, ok := doc[VersionKey]; ok {
			return FormatVersioned, nil
		}
		return FormatLegacy, nil
	}
	return 0, fmt.Errorf("%w (got %T)", ErrMalformedManifest, payload)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// Normalize strips a leading UTF-8 byte order mark and rejects content that
// is not valid UTF-8. Readers call it before unmarshalling.
func Normalize(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}
	return content, nil
}

// Decode parses raw manifest bytes into a generic payload. JSON documents
// are accepted as YAML flow syntax.
func Decode(content []byte) (any, error) {
	content, err := Normalize(content)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := yaml.Unmarshal(content, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return payload, nil
}

// Sniff decodes content and classifies it.
func Sniff(content []byte) (Format, error) {
	payload, err := Decode(content)
	if err != nil {
		return 0, err
	}
	return Classify(payload)
}
