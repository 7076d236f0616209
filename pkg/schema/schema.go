package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hashicorp/go-multierror"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/tagalloc"
)

// Schema is a set of message and enum declarations read from YAML.
type Schema struct {
	Package  string     `yaml:"package"`
	Enums    []*Enum    `yaml:"enums"`
	Messages []*Message `yaml:"messages"`

	source   string
	messages map[string]*Message
	enums    map[string]*Enum
}

// Enum declares an enum type. The first value must be zero.
type Enum struct {
	Name   string      `yaml:"name"`
	Values []EnumValue `yaml:"values"`

	fullName string
}

// FullName returns the package-qualified enum name.
func (e *Enum) FullName() string { return e.fullName }

type EnumValue struct {
	Name   string `yaml:"name"`
	Number int32  `yaml:"number"`
}

// Numbers returns the declared value numbers in declaration order.
func (e *Enum) Numbers() []int32 {
	out := make([]int32, len(e.Values))
	for i, v := range e.Values {
		out[i] = v.Number
	}
	return out
}

func (e *Enum) number(name string) (int32, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Number, true
		}
	}
	return 0, false
}

// Message declares a message type.
type Message struct {
	Name          string      `yaml:"name"`
	Fields        []*Field    `yaml:"fields"`
	Oneofs        []*Oneof    `yaml:"oneofs"`
	Groups        []Group     `yaml:"groups"`
	Reserved      []string    `yaml:"reserved"`
	ReservedNames []string    `yaml:"reserved_names"`
	CEL           []Predicate `yaml:"cel"`

	fullName string
	reserved []tagalloc.Range
	preds    []rules.Predicate
}

// FullName returns the package-qualified message name.
func (m *Message) FullName() string { return m.fullName }

// Field returns the field with the given name, or nil.
func (m *Message) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ReservedRanges returns the parsed reserved ranges.
func (m *Message) ReservedRanges() []tagalloc.Range {
	return slices.Clone(m.reserved)
}

// Field declares one field. Kind is a scalar kind name, "enum", "message",
// "any", "duration", "timestamp" or "map". Ref names the enum or message
// type of the field, or of the map value. Rules apply to the field itself;
// Items, Keys and Values apply to repeated items and map entries.
type Field struct {
	Name     string `yaml:"name"`
	Tag      int32  `yaml:"tag,omitempty"`
	Kind     string `yaml:"kind"`
	Repeated bool   `yaml:"repeated,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Value    string `yaml:"value,omitempty"`
	Ref      string `yaml:"ref,omitempty"`
	Oneof    string `yaml:"oneof,omitempty"`
	Rules    Rules  `yaml:"rules,omitempty"`
	Items    Rules  `yaml:"items,omitempty"`
	Keys     Rules  `yaml:"keys,omitempty"`
	Values   Rules  `yaml:"values,omitempty"`

	kind      rules.Kind
	elem      rules.Kind
	key       rules.Kind
	ruleSet   rules.RuleSet
	elemRules rules.RuleSet
	keyRules  rules.RuleSet
	msg       *Message
	enum      *Enum
}

// FieldKind returns the resolved kind: KindRepeated and KindMap for
// containers, the element kind otherwise.
func (f *Field) FieldKind() rules.Kind { return f.kind }

// RuleSet returns the rules built from the Rules block.
func (f *Field) RuleSet() rules.RuleSet { return f.ruleSet }

// Oneof declares a oneof. Its variants are the fields naming it.
type Oneof struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required,omitempty"`
}

// Group is a message-level rule over plain fields: at most one may be set,
// and exactly one when Required.
type Group struct {
	Fields   []string `yaml:"fields"`
	Required bool     `yaml:"required,omitempty"`
}

// Predicate is a CEL rule as written in YAML.
type Predicate struct {
	ID         string `yaml:"id"`
	Message    string `yaml:"message,omitempty"`
	Expression string `yaml:"expression"`
}

// Rules is a rules block. Keys are rule names as used in rule ids, such
// as min_len, lt or well_known.
type Rules map[string]any

// Load reads a YAML schema, resolves references, assigns tags to fields
// declared without one and builds every rule set. All problems found are
// reported together.
func Load(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidSchema)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := s.resolve(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.source = path
	return s, nil
}

// Source returns the path the schema was loaded from, if any.
func (s *Schema) Source() string { return s.source }

// Message returns a message by short or full name.
func (s *Schema) Message(name string) (*Message, bool) {
	m, ok := s.messages[name]
	return m, ok
}

// Enum returns an enum by short or full name.
func (s *Schema) Enum(name string) (*Enum, bool) {
	e, ok := s.enums[name]
	return e, ok
}

func (s *Schema) qualify(name string) string {
	if s.Package == "" {
		return name
	}
	return s.Package + "." + name
}

func (s *Schema) resolve() error {
	var errs *multierror.Error
	if s.Package != "" && !protoreflect.FullName(s.Package).IsValid() {
		errs = multierror.Append(errs, fmt.Errorf("invalid package name %q", s.Package))
	}

	s.messages = make(map[string]*Message, len(s.Messages)*2)
	s.enums = make(map[string]*Enum, len(s.Enums)*2)
	declared := make(map[string]bool)
	declare := func(name string) error {
		if !protoreflect.Name(name).IsValid() {
			return fmt.Errorf("invalid type name %q", name)
		}
		if declared[name] {
			return fmt.Errorf("type %q declared more than once", name)
		}
		declared[name] = true
		return nil
	}

	for _, e := range s.Enums {
		if err := declare(e.Name); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		errs = multierror.Append(errs, checkEnum(e))
		e.fullName = s.qualify(e.Name)
		s.enums[e.Name] = e
		s.enums[e.fullName] = e
	}
	// Enum values share the package namespace with types and each other.
	for _, e := range s.Enums {
		for _, v := range e.Values {
			if declared[v.Name] {
				errs = multierror.Append(errs, fmt.Errorf("enum %s: value %q collides with another declaration", e.Name, v.Name))
			}
			declared[v.Name] = true
		}
	}
	for _, m := range s.Messages {
		if err := declare(m.Name); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		m.fullName = s.qualify(m.Name)
		s.messages[m.Name] = m
		s.messages[m.fullName] = m
	}
	for _, m := range s.Messages {
		if m.fullName == "" {
			continue
		}
		if err := s.resolveMessage(m); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("message %s: %w", m.Name, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return nil
}

func checkEnum(e *Enum) error {
	if len(e.Values) == 0 {
		return fmt.Errorf("enum %s: no values", e.Name)
	}
	if e.Values[0].Number != 0 {
		return fmt.Errorf("enum %s: first value must be 0", e.Name)
	}
	seen := make(map[string]bool, len(e.Values))
	for _, v := range e.Values {
		if !protoreflect.Name(v.Name).IsValid() || seen[v.Name] {
			return fmt.Errorf("enum %s: invalid or duplicate value name %q", e.Name, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

func (s *Schema) resolveMessage(m *Message) error {
	var errs *multierror.Error

	for _, r := range m.Reserved {
		rng, err := tagalloc.ParseRange(r)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		m.reserved = append(m.reserved, rng)
	}

	oneofs := make(map[string]*Oneof, len(m.Oneofs))
	for _, o := range m.Oneofs {
		switch {
		case !protoreflect.Name(o.Name).IsValid():
			errs = multierror.Append(errs, fmt.Errorf("invalid oneof name %q", o.Name))
		case oneofs[o.Name] != nil:
			errs = multierror.Append(errs, fmt.Errorf("oneof %q declared more than once", o.Name))
		default:
			oneofs[o.Name] = o
		}
	}

	names := make(map[string]bool, len(m.Fields))
	variants := make(map[string]int, len(m.Oneofs))
	for _, f := range m.Fields {
		switch {
		case !protoreflect.Name(f.Name).IsValid():
			errs = multierror.Append(errs, fmt.Errorf("invalid field name %q", f.Name))
			continue
		case names[f.Name]:
			errs = multierror.Append(errs, fmt.Errorf("field %q declared more than once", f.Name))
		case oneofs[f.Name] != nil:
			errs = multierror.Append(errs, fmt.Errorf("field %q shares its name with a oneof", f.Name))
		case slices.Contains(m.ReservedNames, f.Name):
			errs = multierror.Append(errs, fmt.Errorf("field %q uses a reserved name", f.Name))
		}
		names[f.Name] = true

		if err := s.resolveField(f); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("field %s: %w", f.Name, err))
		}
		if f.Oneof != "" {
			switch {
			case oneofs[f.Oneof] == nil:
				errs = multierror.Append(errs, fmt.Errorf("field %s: unknown oneof %q", f.Name, f.Oneof))
			case f.kind == rules.KindRepeated || f.kind == rules.KindMap:
				errs = multierror.Append(errs, fmt.Errorf("field %s: oneof variants cannot be repeated or maps", f.Name))
			}
			variants[f.Oneof]++
		}
	}
	for _, o := range m.Oneofs {
		if oneofs[o.Name] == o && variants[o.Name] == 0 {
			errs = multierror.Append(errs, fmt.Errorf("oneof %q has no fields", o.Name))
		}
	}

	for _, g := range m.Groups {
		for _, name := range g.Fields {
			if f := m.Field(name); f == nil || f.Oneof != "" {
				errs = multierror.Append(errs, fmt.Errorf("group field %q is not a plain field of the message", name))
			}
		}
	}

	for _, p := range m.CEL {
		if p.ID == "" || p.Expression == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: message predicate needs an id and an expression", ErrInvalidRules))
			continue
		}
		m.preds = append(m.preds, rules.Predicate(p))
	}

	errs = multierror.Append(errs, assignTags(m))
	return errs.ErrorOrNil()
}

// assignTags checks explicit tags and numbers the remaining fields in
// declaration order with the lowest free numbers.
func assignTags(m *Message) error {
	var errs *multierror.Error
	used := make(map[int32]string, len(m.Fields))
	var explicit []protowire.Number
	for _, f := range m.Fields {
		if f.Tag == 0 {
			continue
		}
		n := protowire.Number(f.Tag)
		switch {
		case !n.IsValid():
			errs = multierror.Append(errs, fmt.Errorf("field %s: tag %d out of range", f.Name, f.Tag))
		case n >= protowire.FirstReservedNumber && n <= protowire.LastReservedNumber:
			errs = multierror.Append(errs, fmt.Errorf("field %s: tag %d is reserved for the implementation", f.Name, f.Tag))
		case used[f.Tag] != "":
			errs = multierror.Append(errs, fmt.Errorf("field %s: tag %d already used by %s", f.Name, f.Tag, used[f.Tag]))
		}
		for _, r := range m.reserved {
			if n >= r.Start && n <= r.End {
				errs = multierror.Append(errs, fmt.Errorf("field %s: tag %d is reserved (%s)", f.Name, f.Tag, r))
			}
		}
		used[f.Tag] = f.Name
		explicit = append(explicit, n)
	}
	if errs.ErrorOrNil() != nil {
		return errs
	}

	alloc, err := tagalloc.New(m.reserved...)
	if err != nil {
		return err
	}
	alloc.ReserveUsed(explicit...)
	for _, f := range m.Fields {
		if f.Tag != 0 {
			continue
		}
		n, err := alloc.Next()
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		f.Tag = int32(n)
	}
	return nil
}

func (s *Schema) resolveField(f *Field) error {
	kind, err := rules.ParseKind(f.Kind)
	if err != nil {
		return err
	}

	switch kind {
	case rules.KindUnspecified, rules.KindRepeated, rules.KindOneof:
		return fmt.Errorf("%w: kind %q cannot be declared", rules.ErrUnknownKind, f.Kind)
	case rules.KindMap:
		if f.Repeated {
			return errors.New("maps cannot be repeated")
		}
		if f.key, err = rules.ParseKind(f.Key); err != nil {
			return fmt.Errorf("map key: %w", err)
		}
		if !isMapKey(f.key) {
			return fmt.Errorf("map key cannot be %s", f.key)
		}
		if f.elem, err = rules.ParseKind(f.Value); err != nil {
			return fmt.Errorf("map value: %w", err)
		}
		switch f.elem {
		case rules.KindUnspecified, rules.KindRepeated, rules.KindMap, rules.KindOneof:
			return fmt.Errorf("map value cannot be %s", f.elem)
		}
		f.kind = rules.KindMap
	default:
		f.elem = kind
		f.kind = kind
		if f.Repeated {
			f.kind = rules.KindRepeated
		}
	}

	switch f.elem {
	case rules.KindMessage:
		m, ok := s.messages[f.Ref]
		if !ok {
			return fmt.Errorf("%w: message %q", ErrUnknownReference, f.Ref)
		}
		f.msg = m
	case rules.KindEnum:
		e, ok := s.enums[f.Ref]
		if !ok {
			return fmt.Errorf("%w: enum %q", ErrUnknownReference, f.Ref)
		}
		f.enum = e
	default:
		if f.Ref != "" {
			return fmt.Errorf("ref is only allowed on message and enum fields")
		}
	}

	if f.kind != rules.KindRepeated && len(f.Items) > 0 {
		return fmt.Errorf("%w: items rules on a non-repeated field", ErrInvalidRules)
	}
	if f.kind != rules.KindMap && (len(f.Keys) > 0 || len(f.Values) > 0) {
		return fmt.Errorf("%w: keys or values rules on a non-map field", ErrInvalidRules)
	}

	var errs *multierror.Error
	collect := func(rs rules.RuleSet, err error) rules.RuleSet {
		errs = multierror.Append(errs, err)
		return rs
	}
	f.ruleSet = collect(buildRules(f.kind, f.Rules, f.enum))
	switch f.kind {
	case rules.KindRepeated:
		f.elemRules = collect(buildRules(f.elem, f.Items, f.enum))
	case rules.KindMap:
		f.keyRules = collect(buildRules(f.key, f.Keys, nil))
		f.elemRules = collect(buildRules(f.elem, f.Values, f.enum))
	}
	return errs.ErrorOrNil()
}

func isMapKey(k rules.Kind) bool {
	switch k {
	case rules.KindString, rules.KindBool,
		rules.KindInt32, rules.KindInt64, rules.KindUint32, rules.KindUint64,
		rules.KindSint32, rules.KindSint64, rules.KindFixed32, rules.KindFixed64,
		rules.KindSfixed32, rules.KindSfixed64:
		return true
	}
	return false
}
