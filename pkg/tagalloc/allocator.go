package tagalloc

import (
	"cmp"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Range is an inclusive range of field numbers, as written in a
// `reserved 3 to 5;` declaration.
type Range struct {
	Start protowire.Number
	End   protowire.Number
}

// Single reserves one number.
func Single(n protowire.Number) Range {
	return Range{Start: n, End: n}
}

// ToMax reserves every number from start up to the protocol maximum.
func ToMax(start protowire.Number) Range {
	return Range{Start: start, End: protowire.MaxValidNumber}
}

func (r Range) contains(n protowire.Number) bool {
	return n >= r.Start && n <= r.End
}

func (r Range) String() string {
	switch {
	case r.Start == r.End:
		return fmt.Sprintf("%d", r.Start)
	case r.End == protowire.MaxValidNumber:
		return fmt.Sprintf("%d to max", r.Start)
	}
	return fmt.Sprintf("%d to %d", r.Start, r.End)
}

// implementationRange is reserved for the protobuf implementation and is
// never handed out.
var implementationRange = Range{Start: protowire.FirstReservedNumber, End: protowire.LastReservedNumber}

// Allocator hands out field numbers in increasing order, skipping reserved
// ranges. It is not safe for concurrent use.
type Allocator struct {
	reserved []Range
	next     protowire.Number
}

// New creates an allocator that never returns a number inside reserved.
func New(reserved ...Range) (*Allocator, error) {
	for _, r := range reserved {
		if r.Start < protowire.MinValidNumber || r.End > protowire.MaxValidNumber || r.End < r.Start {
			return nil, fmt.Errorf("%w: %d to %d", ErrInvalidRange, r.Start, r.End)
		}
	}
	a := &Allocator{next: protowire.MinValidNumber}
	a.reserved = Merge(slices.Concat(reserved, []Range{implementationRange})...)
	return a, nil
}

// Next returns the lowest free number greater than every number returned
// since the last Reset.
func (a *Allocator) Next() (protowire.Number, error) {
	n := a.next
	for _, r := range a.reserved {
		if r.End < n {
			continue
		}
		if !r.contains(n) {
			break
		}
		if r.End == protowire.MaxValidNumber {
			return 0, fmt.Errorf("%w: %s is reserved", ErrExhausted, r)
		}
		n = r.End + 1
	}
	if n > protowire.MaxValidNumber {
		return 0, ErrExhausted
	}
	a.next = n + 1
	return n, nil
}

// Reset restarts allocation from 1. Reservations are kept.
func (a *Allocator) Reset() {
	a.next = protowire.MinValidNumber
}

// ReserveUsed marks numbers already taken by declared fields.
func (a *Allocator) ReserveUsed(nums ...protowire.Number) {
	if len(nums) == 0 {
		return
	}
	for _, n := range nums {
		if n.IsValid() {
			a.reserved = append(a.reserved, Single(n))
		}
	}
	a.reserved = Merge(a.reserved...)
}

// Reserved returns the merged reservations, including the implementation
// range.
func (a *Allocator) Reserved() []Range {
	return slices.Clone(a.reserved)
}

// Merge returns ranges sorted, with overlapping or adjacent ones joined.
// The argument is not modified.
func Merge(ranges ...Range) []Range {
	ranges = slices.Clone(ranges)
	slices.SortFunc(ranges, func(x, y Range) int {
		return cmp.Compare(x.Start, y.Start)
	})
	out := ranges[:0]
	for _, r := range ranges {
		if n := len(out); n > 0 && r.Start <= out[n-1].End+1 {
			out[n-1].End = max(out[n-1].End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}
