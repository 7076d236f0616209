package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrymomot/protorules/pkg/schema"
)

// readDocument decodes the object stored at path, or read from stdin when
// path is "-". Stdin is always JSON.
func readDocument(path string, stdin io.Reader) (schema.Document, error) {
	if path == "-" {
		return schema.DecodeDocument(stdin, schema.FormatJSON)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := schema.DecodeDocument(f, schema.FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
