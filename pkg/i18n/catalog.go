package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog maps a language code to its translations. Nested catalog keys are
// flattened with dots, so {validation: {required: ...}} is stored under
// "validation.required".
type Catalog map[string]map[string]string

// ParseCatalog decodes a catalog whose top-level keys are language codes.
// ext picks the format: yaml, yml or json, with or without the leading dot.
func ParseCatalog(ext string, data []byte) (Catalog, error) {
	var raw map[string]any
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Join(ErrFailedToParseYAML, err)
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Join(ErrFailedToParseJSON, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	out := make(Catalog, len(raw))
	for lang, v := range raw {
		if lang == "" {
			return nil, fmt.Errorf("%w: empty language code", ErrInvalidCatalog)
		}
		entries, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: language %q: expected map, got %T", ErrInvalidCatalog, lang, v)
		}
		flat := make(map[string]string)
		if err := flatten(flat, "", entries); err != nil {
			return nil, fmt.Errorf("%w: language %q: %w", ErrInvalidCatalog, lang, err)
		}
		out[strings.ToLower(lang)] = flat
	}
	return out, nil
}

// LoadFile reads a catalog from a .yaml, .yml or .json file.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}
	c, err := ParseCatalog(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadFS reads every catalog matching pattern in fsys and merges them in
// lexical file order.
func LoadFS(fsys fs.FS, pattern string) (Catalog, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	out := make(Catalog)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Join(ErrFailedToReadFile, err)
		}
		c, err := ParseCatalog(filepath.Ext(name), data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out.Merge(c)
	}
	return out, nil
}

// Merge copies every translation of other into c. Keys of other win.
func (c Catalog) Merge(other Catalog) {
	for lang, entries := range other {
		dst, ok := c[lang]
		if !ok {
			dst = make(map[string]string, len(entries))
			c[lang] = dst
		}
		maps.Copy(dst, entries)
	}
}

func flatten(dst map[string]string, prefix string, src map[string]any) error {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			if err := flatten(dst, key, val); err != nil {
				return err
			}
		case int, int64, float64, bool:
			dst[key] = fmt.Sprint(val)
		default:
			return fmt.Errorf("key %q: unsupported value of type %T", key, v)
		}
	}
	return nil
}
