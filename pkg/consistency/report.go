package consistency

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Issue is one structural contradiction found in a message's rules.
type Issue struct {
	// Message is the name of the message the issue was found in.
	Message string
	// Field is the dotted path of the field, empty for message-level issues.
	Field string
	// Rule names the offending rule, e.g. "min_len" or "oneof".
	Rule   string
	Detail string
}

func (i Issue) Error() string {
	var b strings.Builder
	b.WriteString(i.Message)
	if i.Field != "" {
		b.WriteByte('.')
		b.WriteString(i.Field)
	}
	fmt.Fprintf(&b, ": %s [%s]", i.Detail, i.Rule)
	return b.String()
}

// Report bundles every issue found in one message. A Report is only
// returned when it holds at least one issue.
type Report struct {
	Message string
	Issues  []Issue
}

func (r *Report) add(field, rule, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Message: r.Message,
		Field:   field,
		Rule:    rule,
		Detail:  fmt.Sprintf(format, args...),
	})
}

func (r *Report) Error() string {
	return r.multi().Error()
}

// Is makes errors.Is(report, ErrInconsistent) hold.
func (r *Report) Is(target error) bool {
	return target == ErrInconsistent
}

// Errors returns the issues as a list of errors.
func (r *Report) Errors() []error {
	return r.multi().WrappedErrors()
}

func (r *Report) multi() *multierror.Error {
	var merr *multierror.Error
	for _, issue := range r.Issues {
		merr = multierror.Append(merr, issue)
	}
	if merr == nil {
		return &multierror.Error{}
	}
	merr.ErrorFormat = func(errs []error) string {
		lines := make([]string, 0, len(errs))
		for _, err := range errs {
			lines = append(lines, "\t* "+err.Error())
		}
		return fmt.Sprintf("%s: %d issue(s):\n%s", r.Message, len(errs), strings.Join(lines, "\n"))
	}
	return merr
}

// errorOrNil returns r as an error when it holds issues.
func (r *Report) errorOrNil() error {
	if r == nil || len(r.Issues) == 0 {
		return nil
	}
	return r
}
