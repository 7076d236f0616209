package tagalloc

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// ParseRange parses the forms Range.String produces: "7", "3 to 5" and
// "10 to max".
func ParseRange(s string) (Range, error) {
	lo, hi, isRange := strings.Cut(strings.TrimSpace(s), " to ")
	start, err := parseNumber(lo)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	r := Single(start)
	if isRange {
		hi = strings.TrimSpace(hi)
		if hi == "max" {
			r.End = protowire.MaxValidNumber
		} else if r.End, err = parseNumber(hi); err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
	}
	if r.Start < protowire.MinValidNumber || r.End > protowire.MaxValidNumber || r.End < r.Start {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return r, nil
}

func parseNumber(s string) (protowire.Number, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return protowire.Number(n), nil
}
