package validator

import (
	"reflect"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// pairwiseLimit is the item count up to which uniqueness is checked by
// comparing every pair instead of hashing.
const pairwiseLimit = 16

// Repeated validates repeated fields: item counts, uniqueness, then every
// item against the item checker with an index subscript.
type Repeated[E any] struct {
	r     rules.RepeatedRules
	item  Checker[E]
	eq    func(a, b E) bool
	hashF func(v E) (uint64, bool)
}

// NewRepeated creates a checker for a repeated field whose items are
// validated by item. A nil item checker validates no item rules.
func NewRepeated[E any](r rules.RepeatedRules, item Checker[E]) *Repeated[E] {
	c := &Repeated[E]{r: r.Clone(), item: item}
	if e, ok := item.(equaler[E]); ok {
		c.eq = e.equal
	} else {
		c.eq = func(a, b E) bool { return reflect.DeepEqual(a, b) }
	}
	if h, ok := item.(hasher[E]); ok {
		c.hashF = h.hash
	}
	return c
}

func (c *Repeated[E]) Kind() rules.Kind     { return rules.KindRepeated }
func (c *Repeated[E]) Rules() rules.RuleSet { return c.r }

// Item returns the item checker.
func (c *Repeated[E]) Item() Checker[E] { return c.item }

func (c *Repeated[E]) describe(info *FieldInfo) {
	if c.item == nil {
		return
	}
	item := describeChecker(c.item)
	info.Items = &item
}

func (c *Repeated[E]) check(st *state, v []E, present bool) {
	r := &c.r
	n := uint64(len(v))
	switch {
	case r.Ignore == rules.IgnoreAlways:
		return
	case n == 0 && r.Ignore == rules.IgnoreIfZeroValue:
		return
	case n == 0 && r.Required:
		st.fail("required", nil, "value is required")
		return
	}

	if lo, ok := r.MinItems.Get(); ok && n < lo {
		if st.failf("repeated.min_items", lo, "must contain at least %d item(s)", lo) {
			return
		}
	}
	if hi, ok := r.MaxItems.Get(); ok && n > hi {
		if st.failf("repeated.max_items", hi, "must contain no more than %d item(s)", hi) {
			return
		}
	}
	if r.Unique && c.hasDuplicate(v) {
		if st.fail("repeated.unique", nil, "repeated value must contain unique items") {
			return
		}
	}

	if c.item != nil {
		for i, e := range v {
			st.subscript(Index(i))
			c.item.check(st, e, true)
			if st.done() {
				break
			}
		}
		st.subscript(Subscript{})
		if st.done() {
			return
		}
	}

	if n > 0 && len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

func (c *Repeated[E]) hasDuplicate(v []E) bool {
	if len(v) > pairwiseLimit && c.hashF != nil {
		if dup, ok := c.hashedDuplicate(v); ok {
			return dup
		}
	}
	for i := range v {
		for j := i + 1; j < len(v); j++ {
			if c.eq(v[i], v[j]) {
				return true
			}
		}
	}
	return false
}

// hashedDuplicate buckets items by hash and compares within buckets only.
// ok is false when the item checker cannot hash.
func (c *Repeated[E]) hashedDuplicate(v []E) (dup, ok bool) {
	buckets := make(map[uint64][]int, len(v))
	for i, e := range v {
		h, ok := c.hashF(e)
		if !ok {
			return false, false
		}
		for _, j := range buckets[h] {
			if c.eq(v[j], e) {
				return true, true
			}
		}
		buckets[h] = append(buckets[h], i)
	}
	return false, true
}

// Map validates map fields: pair counts, then every key against the key
// checker and every value against the value checker with a key subscript.
type Map[K MapKey, V any] struct {
	r     rules.MapRules
	key   Checker[K]
	value Checker[V]
}

// NewMap creates a checker for a map field. Nil key or value checkers
// validate no key or value rules.
func NewMap[K MapKey, V any](r rules.MapRules, key Checker[K], value Checker[V]) *Map[K, V] {
	return &Map[K, V]{r: r.Clone(), key: key, value: value}
}

func (c *Map[K, V]) Kind() rules.Kind     { return rules.KindMap }
func (c *Map[K, V]) Rules() rules.RuleSet { return c.r }

// Key returns the key checker.
func (c *Map[K, V]) Key() Checker[K] { return c.key }

// Value returns the value checker.
func (c *Map[K, V]) Value() Checker[V] { return c.value }

func (c *Map[K, V]) describe(info *FieldInfo) {
	info.KeyType = mapKeyKind[K]()
	if c.key != nil {
		k := describeChecker(c.key)
		info.Key = &k
		info.KeyType = c.key.Kind()
	}
	if c.value != nil {
		v := describeChecker(c.value)
		info.Value = &v
		info.ValueType = c.value.Kind()
	}
}

func (c *Map[K, V]) check(st *state, v map[K]V, present bool) {
	r := &c.r
	n := uint64(len(v))
	switch {
	case r.Ignore == rules.IgnoreAlways:
		return
	case n == 0 && r.Ignore == rules.IgnoreIfZeroValue:
		return
	case n == 0 && r.Required:
		st.fail("required", nil, "value is required")
		return
	}

	if lo, ok := r.MinPairs.Get(); ok && n < lo {
		if st.failf("map.min_pairs", lo, "map must be at least %d entries", lo) {
			return
		}
	}
	if hi, ok := r.MaxPairs.Get(); ok && n > hi {
		if st.failf("map.max_pairs", hi, "map must be at most %d entries", hi) {
			return
		}
	}

	if c.key != nil || c.value != nil {
		c.entries(st, v)
		if st.done() {
			return
		}
	}

	if n > 0 && len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

func (c *Map[K, V]) entries(st *state, v map[K]V) {
	defer st.subscript(Subscript{})

	for k, val := range v {
		st.subscript(Key(k))
		if c.key != nil {
			st.forKey = true
			c.key.check(st, k, true)
			st.forKey = false
			if st.done() {
				return
			}
		}
		if c.value != nil {
			c.value.check(st, val, true)
			if st.done() {
				return
			}
		}
	}
}

func mapKeyKind[K MapKey]() rules.Kind {
	var zero K
	switch any(zero).(type) {
	case string:
		return rules.KindString
	case bool:
		return rules.KindBool
	case int32:
		return rules.KindInt32
	case int64:
		return rules.KindInt64
	case uint32:
		return rules.KindUint32
	}
	return rules.KindUint64
}
