package expr

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/dmitrymomot/protorules/pkg/cache"
	"github.com/dmitrymomot/protorules/pkg/rules"
)

// DefaultCacheSize is the number of compiled programs kept by Default.
const DefaultCacheSize = 256

type program struct {
	src string
	prg cel.Program
}

// Evaluator runs predicates written in CEL. The predicate sees the validated
// value as `this` and the validation clock reading as `now`. A predicate
// must yield a bool, or a string that is empty on success and otherwise
// the violation message.
//
// Compiled programs are cached, so an Evaluator should be shared.
type Evaluator struct {
	env      *cel.Env
	programs *cache.Cache[uint64, program]
}

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize bounds the number of compiled programs kept in memory.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) (*Evaluator, error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	env, err := newEnv(cel.DynType)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		env:      env,
		programs: cache.New[uint64, program](o.cacheSize),
	}, nil
}

var defaultEvaluator = sync.OnceValue(func() *Evaluator {
	e, err := New()
	if err != nil {
		panic(fmt.Sprintf("expr: default evaluator: %v", err))
	}
	return e
})

// Default returns the process-wide evaluator.
func Default() *Evaluator {
	return defaultEvaluator()
}

func newEnv(this *cel.Type) (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("this", this),
		cel.Variable("now", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("expr: create environment: %w", err)
	}
	return env, nil
}

// CacheStats reports how often compiled programs were reused.
func (e *Evaluator) CacheStats() cache.Stats {
	return e.programs.Stats()
}

// Evaluate runs p against this. It reports whether the predicate holds and,
// when it does not, the violation message. Compile, output type and
// evaluation failures are returned as *ConversionError.
func (e *Evaluator) Evaluate(p rules.Predicate, this any, now time.Time) (bool, string, error) {
	prg, err := e.program(p)
	if err != nil {
		return false, "", err
	}

	out, _, err := prg.Eval(map[string]any{
		"this": this,
		"now":  now,
	})
	if err != nil {
		return false, "", &ConversionError{PredicateID: p.ID, Expression: p.Expression, Err: fmt.Errorf("%w: %w", ErrEval, err)}
	}

	switch v := out.(type) {
	case types.Bool:
		if bool(v) {
			return true, "", nil
		}
		return false, p.Message, nil
	case types.String:
		if v == "" {
			return true, "", nil
		}
		return false, string(v), nil
	}
	return false, "", &ConversionError{
		PredicateID: p.ID,
		Expression:  p.Expression,
		Err:         fmt.Errorf("%w: got %s", ErrOutputType, out.Type().TypeName()),
	}
}

// Check type-checks p with `this` typed after zero, the default value of
// the validated field, without evaluating it.
func (e *Evaluator) Check(p rules.Predicate, zero any) error {
	env, err := newEnv(typeOf(zero))
	if err != nil {
		return err
	}
	_, err = compile(env, p)
	return err
}

func (e *Evaluator) program(p rules.Predicate) (cel.Program, error) {
	key := xxhash.Sum64String(p.Expression)
	cached, err := e.programs.GetOrCompile(key, func(uint64) (program, error) {
		prg, err := compile(e.env, p)
		if err != nil {
			return program{}, err
		}
		return program{src: p.Expression, prg: prg}, nil
	})
	if err != nil {
		return nil, err
	}
	if cached.src != p.Expression {
		return compile(e.env, p)
	}
	return cached.prg, nil
}

func compile(env *cel.Env, p rules.Predicate) (cel.Program, error) {
	ast, iss := env.Compile(p.Expression)
	if iss != nil && iss.Err() != nil {
		return nil, &ConversionError{PredicateID: p.ID, Expression: p.Expression, Err: fmt.Errorf("%w: %w", ErrCompile, iss.Err())}
	}

	switch ast.OutputType().Kind() {
	case types.BoolKind, types.StringKind, types.DynKind:
	default:
		return nil, &ConversionError{
			PredicateID: p.ID,
			Expression:  p.Expression,
			Err:         fmt.Errorf("%w: got %s", ErrOutputType, ast.OutputType()),
		}
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, &ConversionError{PredicateID: p.ID, Expression: p.Expression, Err: fmt.Errorf("%w: %w", ErrCompile, err)}
	}
	return prg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// typeOf maps a Go default value onto the CEL type a predicate sees it as.
func typeOf(zero any) *cel.Type {
	if zero == nil {
		return cel.DynType
	}
	t := reflect.TypeOf(zero)
	switch t {
	case durationType:
		return cel.DurationType
	case timeType:
		return cel.TimestampType
	}
	switch t.Kind() {
	case reflect.Bool:
		return cel.BoolType
	case reflect.String:
		return cel.StringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cel.IntType
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cel.UintType
	case reflect.Float32, reflect.Float64:
		return cel.DoubleType
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return cel.BytesType
		}
		return cel.ListType(cel.DynType)
	case reflect.Map:
		return cel.MapType(cel.DynType, cel.DynType)
	}
	return cel.DynType
}
