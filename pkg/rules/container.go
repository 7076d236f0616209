package rules

// RepeatedRules is the immutable rule set of a repeated field. Item rules
// are carried by the element checker, not here.
type RepeatedRules struct {
	Common
	MinItems Opt[uint64]
	MaxItems Opt[uint64]
	Unique   bool
}

func (RepeatedRules) Kind() Kind { return KindRepeated }

// Clone returns a copy that shares no slices with r.
func (r RepeatedRules) Clone() RepeatedRules {
	r.Common = r.Common.clone()
	return r
}

func (r RepeatedRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.MinItems.IsSet(), "min_items")
	names = appendIf(names, r.MaxItems.IsSet(), "max_items")
	names = appendIf(names, r.Unique, "unique")
	return names
}

const (
	repMinItems uint = bitKind + iota
	repMaxItems
	repUnique
)

// RepeatedBuilder accumulates repeated rules.
type RepeatedBuilder struct {
	t tracker
	r RepeatedRules
}

// Repeated starts a rule set for a repeated field.
func Repeated() RepeatedBuilder {
	return RepeatedBuilder{t: tracker{kind: KindRepeated}}
}

// Required reports an absent value as a violation.
func (b RepeatedBuilder) Required() RepeatedBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b RepeatedBuilder) Ignore(policy Ignore) RepeatedBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b RepeatedBuilder) CEL(preds ...Predicate) RepeatedBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// MinItems requires at least n items.
func (b RepeatedBuilder) MinItems(n uint64) RepeatedBuilder {
	b.t, b.r.MinItems = setOpt(b.t, repMinItems, "min_items", b.r.MinItems, n)
	return b
}

// MaxItems allows at most n items.
func (b RepeatedBuilder) MaxItems(n uint64) RepeatedBuilder {
	b.t, b.r.MaxItems = setOpt(b.t, repMaxItems, "max_items", b.r.MaxItems, n)
	return b
}

// Unique requires all items to be distinct. Float items are compared with
// the tolerance declared on the item rules.
func (b RepeatedBuilder) Unique() RepeatedBuilder {
	if t, ok := b.t.mark(repUnique, "unique"); ok {
		b.t, b.r.Unique = t, true
	} else {
		b.t = t
	}
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b RepeatedBuilder) Build() (RepeatedRules, error) {
	if err := b.t.err(); err != nil {
		return RepeatedRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b RepeatedBuilder) MustBuild() RepeatedRules {
	return mustBuild(b.Build())
}

// MapRules is the immutable rule set of a map field. Key and value rules
// are carried by the key and value checkers.
type MapRules struct {
	Common
	MinPairs Opt[uint64]
	MaxPairs Opt[uint64]
}

func (MapRules) Kind() Kind { return KindMap }

// Clone returns a copy that shares no slices with r.
func (r MapRules) Clone() MapRules {
	r.Common = r.Common.clone()
	return r
}

func (r MapRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.MinPairs.IsSet(), "min_pairs")
	names = appendIf(names, r.MaxPairs.IsSet(), "max_pairs")
	return names
}

const (
	mapMinPairs uint = bitKind + iota
	mapMaxPairs
)

// MapBuilder accumulates map rules.
type MapBuilder struct {
	t tracker
	r MapRules
}

// Map starts a rule set for a map field.
func Map() MapBuilder {
	return MapBuilder{t: tracker{kind: KindMap}}
}

// Required reports an absent value as a violation.
func (b MapBuilder) Required() MapBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b MapBuilder) Ignore(policy Ignore) MapBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b MapBuilder) CEL(preds ...Predicate) MapBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// MinPairs requires at least n entries.
func (b MapBuilder) MinPairs(n uint64) MapBuilder {
	b.t, b.r.MinPairs = setOpt(b.t, mapMinPairs, "min_pairs", b.r.MinPairs, n)
	return b
}

// MaxPairs allows at most n entries.
func (b MapBuilder) MaxPairs(n uint64) MapBuilder {
	b.t, b.r.MaxPairs = setOpt(b.t, mapMaxPairs, "max_pairs", b.r.MaxPairs, n)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b MapBuilder) Build() (MapRules, error) {
	if err := b.t.err(); err != nil {
		return MapRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b MapBuilder) MustBuild() MapRules {
	return mustBuild(b.Build())
}

// MessageRules is the immutable rule set of a nested message field.
type MessageRules struct {
	Common
}

func (MessageRules) Kind() Kind { return KindMessage }

// Clone returns a copy that shares no slices with r.
func (r MessageRules) Clone() MessageRules {
	r.Common = r.Common.clone()
	return r
}

func (r MessageRules) Declared() []string {
	return r.Common.declared(nil)
}

// MessageBuilder accumulates message field rules.
type MessageBuilder struct {
	t tracker
	r MessageRules
}

// Message starts a rule set for a message field.
func Message() MessageBuilder {
	return MessageBuilder{t: tracker{kind: KindMessage}}
}

// Required reports an absent value as a violation.
func (b MessageBuilder) Required() MessageBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b MessageBuilder) Ignore(policy Ignore) MessageBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b MessageBuilder) CEL(preds ...Predicate) MessageBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b MessageBuilder) Build() (MessageRules, error) {
	if err := b.t.err(); err != nil {
		return MessageRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b MessageBuilder) MustBuild() MessageRules {
	return mustBuild(b.Build())
}

// OneofRules is the immutable rule set of a oneof group.
type OneofRules struct {
	Required bool
}

func (OneofRules) Kind() Kind { return KindOneof }

// CommonRules exposes Required in the shape shared by field rules.
func (r OneofRules) CommonRules() Common { return Common{Required: r.Required} }

func (r OneofRules) Declared() []string {
	return appendIf(nil, r.Required, "required")
}

// OneofBuilder accumulates oneof rules.
type OneofBuilder struct {
	t tracker
	r OneofRules
}

// Oneof starts a rule set for a oneof group.
func Oneof() OneofBuilder {
	return OneofBuilder{t: tracker{kind: KindOneof}}
}

// Required reports an absent value as a violation.
func (b OneofBuilder) Required() OneofBuilder {
	if t, ok := b.t.mark(bitRequired, "required"); ok {
		b.t, b.r.Required = t, true
	} else {
		b.t = t
	}
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b OneofBuilder) Build() (OneofRules, error) {
	if err := b.t.err(); err != nil {
		return OneofRules{}, err
	}
	return b.r, nil
}

// MustBuild is like Build but panics on error.
func (b OneofBuilder) MustBuild() OneofRules {
	return mustBuild(b.Build())
}
