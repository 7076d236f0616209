package schema

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/anypb"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Document is a decoded message: a JSON or YAML object keyed by field name.
// Field values follow the protobuf JSON mapping: 64-bit integers and
// non-finite floats may be strings, bytes are base64, enums are value
// names or numbers, durations look like "1.5s" and timestamps are RFC 3339.
type Document = map[string]any

func isFloat[T rules.Number]() bool {
	var z T
	switch any(z).(type) {
	case float32, float64:
		return true
	}
	return false
}

func isSigned[T rules.Number]() bool {
	var z T
	switch any(z).(type) {
	case int32, int64, float32, float64:
		return true
	}
	return false
}

// toNumber converts v to T when it holds a number T can represent exactly.
func toNumber[T rules.Number](v any) (T, bool) {
	switch n := v.(type) {
	case int:
		return fromInt[T](int64(n))
	case int32:
		return fromInt[T](int64(n))
	case int64:
		return fromInt[T](n)
	case uint:
		return fromUint[T](uint64(n))
	case uint32:
		return fromInt[T](int64(n))
	case uint64:
		return fromUint[T](n)
	case float32:
		return fromFloat[T](float64(n))
	case float64:
		return fromFloat[T](n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return fromInt[T](i)
		}
		if f, err := n.Float64(); err == nil {
			return fromFloat[T](f)
		}
	case string:
		return parseNumber[T](n)
	}
	var zero T
	return zero, false
}

func fromInt[T rules.Number](i int64) (T, bool) {
	t := T(i)
	if isFloat[T]() {
		return t, true
	}
	if i < 0 && !isSigned[T]() {
		return 0, false
	}
	return t, int64(t) == i
}

func fromUint[T rules.Number](u uint64) (T, bool) {
	if u <= math.MaxInt64 {
		return fromInt[T](int64(u))
	}
	t := T(u)
	if isFloat[T]() {
		return t, true
	}
	if isSigned[T]() {
		return 0, false
	}
	return t, uint64(t) == u
}

func fromFloat[T rules.Number](f float64) (T, bool) {
	if isFloat[T]() {
		return T(f), true
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < 0 && !isSigned[T]() {
		return 0, false
	}
	t := T(f)
	return t, float64(t) == f
}

func parseNumber[T rules.Number](s string) (T, bool) {
	if isFloat[T]() {
		switch s {
		case "NaN":
			return T(math.NaN()), true
		case "Infinity":
			return T(math.Inf(1)), true
		case "-Infinity":
			return T(math.Inf(-1)), true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return T(f), true
	}
	if isSigned[T]() {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return fromInt[T](i)
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return fromUint[T](u)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asBytes accepts raw bytes or base64 text in standard or URL alphabet,
// padded or not.
func asBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
			if out, err := enc.DecodeString(b); err == nil {
				return out, true
			}
		}
	}
	return nil, false
}

// asEnum accepts a value name of enum or a number.
func asEnum(enum *Enum, v any) (int32, bool) {
	if name, ok := v.(string); ok {
		if enum == nil {
			return 0, false
		}
		return enum.number(name)
	}
	return toNumber[int32](v)
}

func asDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		out, err := time.ParseDuration(d)
		return out, err == nil
	}
	return 0, false
}

func asTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		out, err := time.Parse(time.RFC3339Nano, t)
		return out, err == nil
	}
	return time.Time{}, false
}

func asDocument(v any) (Document, bool) {
	return asObject(v)
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// asAny accepts an Any message or its JSON form, an object carrying "@type".
func asAny(v any) (*anypb.Any, bool) {
	switch a := v.(type) {
	case *anypb.Any:
		return a, true
	case map[string]any:
		url, ok := a["@type"].(string)
		if !ok {
			return nil, false
		}
		return &anypb.Any{TypeUrl: url}, true
	}
	return nil, false
}

// parseBoolKey reads a JSON object key of a bool-keyed map.
func parseBoolKey(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
