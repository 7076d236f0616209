package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotObject is returned when a document does not decode to an object.
var ErrNotObject = errors.New("schema: document is not an object")

// Format selects the encoding of a document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks YAML for .yaml and .yml paths and JSON for anything else.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DecodeDocument reads a single object from r. JSON numbers are kept as
// json.Number so 64-bit integers survive decoding.
func DecodeDocument(r io.Reader, f Format) (Document, error) {
	var doc Document
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding YAML document: %w", err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decoding JSON document: %w", ErrNotObject)
			}
			return nil, fmt.Errorf("decoding JSON document: %w", err)
		}
	}
	if doc == nil {
		return nil, ErrNotObject
	}
	return doc, nil
}
