package consistency

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dmitrymomot/protorules/pkg/expr"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// Describer is implemented by *validator.Message.
type Describer interface {
	Describe() validator.MessageInfo
	UnknownGroupFields() error
}

// TypeChecker type-checks a predicate against the default value of the
// field it is attached to. *expr.Evaluator implements it.
type TypeChecker interface {
	Check(p rules.Predicate, zero any) error
}

// Checker inspects fully built message validators for rules that
// contradict each other or can never be satisfied.
type Checker struct {
	types   TypeChecker
	logger  *slog.Logger
	workers int
}

// Option configures a Checker.
type Option func(*Checker)

// WithTypeChecker sets the predicate type checker. Defaults to expr.Default().
func WithTypeChecker(tc TypeChecker) Option {
	return func(c *Checker) {
		if tc != nil {
			c.types = tc
		}
	}
}

// WithLogger sets the logger CheckAll reports progress to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers bounds the number of messages CheckAll inspects at once.
func WithMaxWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.types == nil {
		c.types = expr.Default()
	}
	return c
}

// Check inspects one message and returns a *Report listing every issue,
// or nil when the message is consistent.
func Check(d Describer) error {
	return New().Check(d)
}

// CheckAll inspects every message concurrently.
func CheckAll(ctx context.Context, ds ...Describer) error {
	return New().CheckAll(ctx, ds...)
}

// Check inspects one message and returns a *Report listing every issue,
// or nil when the message is consistent.
func (c *Checker) Check(d Describer) error {
	return c.report(d).errorOrNil()
}

// CheckAll inspects every message concurrently. It returns nil when all
// are consistent, otherwise a multierror of the reports ordered by message
// name. A cancelled context stops the inspection of remaining messages.
func (c *Checker) CheckAll(ctx context.Context, ds ...Describer) error {
	start := time.Now()

	var (
		mu      sync.Mutex
		reports []*Report
	)
	p := pool.New().WithMaxGoroutines(c.workers).WithContext(ctx)
	for _, d := range ds {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep := c.report(d)
			if len(rep.Issues) == 0 {
				return nil
			}
			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	slices.SortFunc(reports, func(a, b *Report) int {
		return cmp.Compare(a.Message, b.Message)
	})

	var merr *multierror.Error
	issues := 0
	for _, rep := range reports {
		merr = multierror.Append(merr, rep)
		issues += len(rep.Issues)
		c.logger.WarnContext(ctx, "inconsistent message",
			logger.Component("consistency"),
			logger.Message(rep.Message),
			logger.Errors(rep.Errors()...),
		)
	}
	c.logger.InfoContext(ctx, "consistency check finished",
		logger.Component("consistency"),
		slog.Int("messages", len(ds)),
		slog.Int("issues", issues),
		logger.Duration(time.Since(start)),
	)
	return merr.ErrorOrNil()
}

func (c *Checker) report(d Describer) *Report {
	mi := d.Describe()
	rep := &Report{Message: mi.Name}

	c.checkMessage(rep, d, mi)
	for _, f := range mi.AllFields() {
		c.checkField(rep, f.Name, f)
	}
	return rep
}

func (c *Checker) checkMessage(rep *Report, d Describer, mi validator.MessageInfo) {
	tags := make(map[int32]string)
	names := make(map[string]bool)
	for _, f := range mi.AllFields() {
		n := protowire.Number(f.Tag)
		switch {
		case !n.IsValid():
			rep.add(f.Name, "tag", "field number %d is outside 1 to %d", f.Tag, protowire.MaxValidNumber)
		case n >= protowire.FirstReservedNumber && n <= protowire.LastReservedNumber:
			rep.add(f.Name, "tag", "field number %d is reserved for the protobuf implementation", f.Tag)
		}
		if other, ok := tags[f.Tag]; ok {
			rep.add(f.Name, "tag", "field number %d is already used by %q", f.Tag, other)
		} else {
			tags[f.Tag] = f.Name
		}
		if names[f.Name] {
			rep.add(f.Name, "name", "field name is declared more than once")
		}
		names[f.Name] = true
	}

	for _, o := range mi.Oneofs {
		c.checkOneof(rep, o)
	}

	if err := d.UnknownGroupFields(); err != nil {
		rep.add("", "message.oneof", "%v", err)
	}
	for _, g := range mi.Groups {
		if len(g.Fields) < 2 {
			rep.add("", "message.oneof", "oneof rule over %v needs at least two fields", g.Fields)
		}
	}

	c.checkPredicates(rep, "", mi.CEL, mi.Zero)
}

// checkOneof verifies that the tags a oneof declares are exactly the tags
// of its variants.
func (c *Checker) checkOneof(rep *Report, o validator.OneofInfo) {
	if len(o.Variants) == 0 {
		rep.add(o.Name, "oneof", "oneof has no variants")
	}
	variants := make([]int32, 0, len(o.Variants))
	for _, v := range o.Variants {
		variants = append(variants, v.Tag)
	}
	for _, tag := range o.Declared {
		if !slices.Contains(variants, tag) {
			rep.add(o.Name, "oneof", "declared tag %d has no variant", tag)
		}
	}
	for _, v := range o.Variants {
		if !slices.Contains(o.Declared, v.Tag) {
			rep.add(o.Name, "oneof", "variant %q with tag %d is not declared", v.Name, v.Tag)
		}
	}
}

func (c *Checker) checkPredicates(rep *Report, path string, preds []rules.Predicate, zero any) {
	for _, p := range preds {
		if err := c.types.Check(p, zero); err != nil {
			rep.add(path, "cel", "predicate %q does not type-check: %v", p.ID, err)
		}
	}
}
