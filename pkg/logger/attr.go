package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Message records a fully qualified message name under the key "message".
func Message(name string) slog.Attr {
	return slog.String("message", name)
}

// Field records a violation path under the key "field".
// If path is empty, it returns an empty Attr.
func Field(path string) slog.Attr {
	if path == "" {
		return slog.Attr{}
	}
	return slog.String("field", path)
}

// RuleID records a rule identifier such as "string.min_len" under the key "rule_id".
func RuleID(id string) slog.Attr {
	return slog.String("rule_id", id)
}

// Schema records the schema source (usually a file path) under the key "schema".
func Schema(src string) slog.Attr {
	return slog.String("schema", src)
}

// Violations records a violation count under the key "violations".
func Violations(n int) slog.Attr {
	return slog.Int("violations", n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
