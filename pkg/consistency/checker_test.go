package consistency_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/consistency"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

type account struct {
	name   string
	age    int32
	tags   []string
	kind   int32
	email  string
	phone  string
	joined int64
	since  time.Time
	ttl    time.Duration
}

func nameField(r rules.StringRules) *validator.Field[account] {
	return validator.NewField(1, "name", func(a account) (string, bool) { return a.name, a.name != "" }, validator.NewString(r))
}

func ageField(tag int32, r rules.NumericRules[int32]) *validator.Field[account] {
	return validator.NewField(tag, "age", func(a account) (int32, bool) { return a.age, true }, validator.NewNumeric(r))
}

func report(t *testing.T, err error) *consistency.Report {
	t.Helper()
	require.Error(t, err)
	var rep *consistency.Report
	require.ErrorAs(t, err, &rep)
	return rep
}

func rulesOf(rep *consistency.Report) []string {
	out := make([]string, 0, len(rep.Issues))
	for _, issue := range rep.Issues {
		out = append(out, issue.Rule)
	}
	return out
}

func TestCheck_ConsistentMessage(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[account]("Account").Add(
		nameField(rules.String().MinLen(1).MaxLen(64).CEL(rules.Predicate{ID: "lower", Expression: "size(this) <= 64"}).MustBuild()),
		ageField(2, rules.Int32().Gte(0).Lt(150).MustBuild()),
	)

	assert.NoError(t, consistency.Check(msg))
}

func TestCheck_FieldRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field *validator.Field[account]
		rules []string
	}{
		{
			name:  "min above max",
			field: nameField(rules.String().MinLen(5).MaxLen(3).MustBuild()),
			rules: []string{"min_len"},
		},
		{
			name:  "equal min and max",
			field: nameField(rules.String().MinLen(3).MaxLen(3).MustBuild()),
			rules: []string{"min_len"},
		},
		{
			name:  "len with min",
			field: nameField(rules.String().Len(3).MinLen(1).MustBuild()),
			rules: []string{"min_len"},
		},
		{
			name:  "const with other rules",
			field: nameField(rules.String().Const("abc").MinLen(2).MustBuild()),
			rules: []string{"const"},
		},
		{
			name:  "min characters above max bytes",
			field: nameField(rules.String().MinLen(10).MaxBytes(4).MustBuild()),
			rules: []string{"min_len"},
		},
		{
			name:  "prefix longer than max len",
			field: nameField(rules.String().Prefix("abcdef").MaxLen(3).MustBuild()),
			rules: []string{"prefix"},
		},
		{
			name:  "contains forbidden substring",
			field: nameField(rules.String().Contains("admin").NotContains("adm").MustBuild()),
			rules: []string{"contains"},
		},
		{
			name:  "in overlaps not in",
			field: nameField(rules.String().In("a", "b").NotIn("b").MustBuild()),
			rules: []string{"not_in"},
		},
		{
			name:  "always ignored",
			field: nameField(rules.String().Ignore(rules.IgnoreAlways).MinLen(1).MustBuild()),
			rules: []string{"ignore"},
		},
		{
			name:  "inverted numeric bounds",
			field: ageField(2, rules.Int32().Gt(10).Lt(5).MustBuild()),
			rules: []string{"gt"},
		},
		{
			name:  "empty exclusive range",
			field: ageField(2, rules.Int32().Gt(5).Lt(5).MustBuild()),
			rules: []string{"gt"},
		},
		{
			name:  "inclusive point range",
			field: ageField(2, rules.Int32().Gte(5).Lte(5).MustBuild()),
			rules: []string{"gte"},
		},
		{
			name:  "finite on integers",
			field: ageField(2, rules.Int32().Finite().MustBuild()),
			rules: []string{"finite"},
		},
		{
			name:  "const excluded by not in",
			field: ageField(2, rules.Int32().Const(3).NotIn(3).MustBuild()),
			rules: []string{"const", "const"},
		},
		{
			name:  "predicate does not type-check",
			field: nameField(rules.String().CEL(rules.Predicate{ID: "sum", Expression: "this + 1 > 2"}).MustBuild()),
			rules: []string{"cel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := validator.NewMessage[account]("Account").Add(tt.field)
			rep := report(t, consistency.Check(msg))
			assert.Equal(t, tt.rules, rulesOf(rep))
			for _, issue := range rep.Issues {
				assert.Equal(t, "Account", issue.Message)
				assert.Equal(t, tt.field.Name(), issue.Field)
			}
		})
	}
}

func TestCheck_TimeRules(t *testing.T) {
	t.Parallel()

	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	since := func(r rules.TimestampRules) *validator.Field[account] {
		return validator.NewField(8, "since", func(a account) (time.Time, bool) { return a.since, !a.since.IsZero() }, validator.NewTimestamp(r))
	}
	ttl := func(r rules.DurationRules) *validator.Field[account] {
		return validator.NewField(9, "ttl", func(a account) (time.Duration, bool) { return a.ttl, a.ttl != 0 }, validator.NewDuration(r))
	}

	tests := []struct {
		name  string
		field *validator.Field[account]
		rules []string
	}{
		{"consistent now rules", since(rules.Timestamp().LtNow().NowTolerance(time.Second).Gte(epoch).MustBuild()), nil},
		{"inverted absolute bounds", since(rules.Timestamp().Gt(epoch.Add(time.Hour)).Lt(epoch).MustBuild()), []string{"gt"}},
		{"tolerance without now rule", since(rules.Timestamp().NowTolerance(time.Second).MustBuild()), []string{"now_tolerance"}},
		{"non positive within", since(rules.Timestamp().Within(-time.Second).MustBuild()), []string{"within"}},
		{"now rule with absolute upper bound", since(rules.TimestampRules{LtNow: true, Lt: rules.Some(epoch)}), []string{"lt_now"}},
		{"inverted durations", ttl(rules.Duration().Gte(time.Minute).Lte(time.Second).MustBuild()), []string{"gte"}},
		{"duration const outside in", ttl(rules.Duration().Const(time.Second).In(time.Minute).MustBuild()), []string{"const", "const"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := consistency.Check(validator.NewMessage[account]("Account").Add(tt.field))
			if tt.rules == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.rules, rulesOf(report(t, err)))
		})
	}
}

func TestCheck_Containers(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[account]("Account").Add(
		validator.NewField(3, "tags", func(a account) ([]string, bool) { return a.tags, a.tags != nil },
			validator.NewRepeated[string](
				rules.Repeated().Required().MinItems(1).MustBuild(),
				validator.NewString(rules.String().MinLen(4).MaxLen(2).MustBuild()),
			)),
	)

	rep := report(t, consistency.Check(msg))
	require.Len(t, rep.Issues, 2)
	assert.Equal(t, "tags", rep.Issues[0].Field)
	assert.Equal(t, "required", rep.Issues[0].Rule)
	assert.Equal(t, "tags.items", rep.Issues[1].Field)
	assert.Equal(t, "min_len", rep.Issues[1].Rule)
}

func TestCheck_MessageStructure(t *testing.T) {
	t.Parallel()

	t.Run("oneof declarations must match variants", func(t *testing.T) {
		t.Parallel()
		oneof := validator.NewOneof("contact", rules.Oneof().MustBuild(), func(a account) int32 { return a.kind },
			validator.NewField(10, "email", func(a account) (string, bool) { return a.email, a.kind == 10 }, validator.NewString(rules.String().MustBuild())),
			validator.NewField(11, "phone", func(a account) (string, bool) { return a.phone, a.kind == 11 }, validator.NewString(rules.String().MustBuild())),
		).Declare(10, 12)

		msg := validator.NewMessage[account]("Account").AddOneof(oneof)
		rep := report(t, consistency.Check(msg))
		assert.Equal(t, []string{"oneof", "oneof"}, rulesOf(rep))
		assert.Contains(t, rep.Issues[0].Detail, "declared tag 12 has no variant")
		assert.Contains(t, rep.Issues[1].Detail, `variant "phone" with tag 11 is not declared`)
	})

	t.Run("duplicate and invalid tags", func(t *testing.T) {
		t.Parallel()
		msg := validator.NewMessage[account]("Account").Add(
			nameField(rules.String().MustBuild()),
			ageField(1, rules.Int32().MustBuild()),
			validator.NewField(19500, "joined", func(a account) (int64, bool) { return a.joined, true }, validator.NewNumeric(rules.Int64().MustBuild())),
		)
		rep := report(t, consistency.Check(msg))
		assert.Equal(t, []string{"tag", "tag"}, rulesOf(rep))
		assert.Equal(t, "age", rep.Issues[0].Field)
		assert.Equal(t, "joined", rep.Issues[1].Field)
	})

	t.Run("unknown fields in message oneof rules", func(t *testing.T) {
		t.Parallel()
		msg := validator.NewMessage[account]("Account").Add(nameField(rules.String().MustBuild())).OneOf(false, "name", "fax")
		rep := report(t, consistency.Check(msg))
		assert.Equal(t, []string{"message.oneof"}, rulesOf(rep))
	})

	t.Run("message predicates are type-checked", func(t *testing.T) {
		t.Parallel()
		msg := validator.NewMessage[account]("Account").CEL(
			func(a account) any { return a.name },
			rules.Predicate{ID: "bad", Expression: "this * 2 == 4"},
		)
		rep := report(t, consistency.Check(msg))
		assert.Equal(t, []string{"cel"}, rulesOf(rep))
		assert.Empty(t, rep.Issues[0].Field)
	})
}

func TestReport_Error(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[account]("Account").Add(nameField(rules.String().MinLen(5).MaxLen(3).MustBuild()))
	err := consistency.Check(msg)

	assert.ErrorIs(t, err, consistency.ErrInconsistent)
	assert.Equal(t, "Account: 1 issue(s):\n\t* Account.name: min_len 5 is greater than max_len 3 [min_len]", err.Error())

	rep := report(t, err)
	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, rep.Issues[0], rep.Errors()[0])
}

func TestCheckAll(t *testing.T) {
	t.Parallel()

	good := validator.NewMessage[account]("Good").Add(nameField(rules.String().MinLen(1).MustBuild()))
	badA := validator.NewMessage[account]("Alpha").Add(nameField(rules.String().MinLen(5).MaxLen(3).MustBuild()))
	badB := validator.NewMessage[account]("Beta").Add(ageField(2, rules.Int32().Gt(10).Lt(5).MustBuild()))

	t.Run("merges reports in name order", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		checker := consistency.New(
			consistency.WithLogger(logger.New(logger.WithOutput(buf))),
			consistency.WithMaxWorkers(2),
		)

		err := checker.CheckAll(context.Background(), badB, good, badA)
		require.Error(t, err)

		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Errors, 2)
		assert.Equal(t, "Alpha", merr.Errors[0].(*consistency.Report).Message)
		assert.Equal(t, "Beta", merr.Errors[1].(*consistency.Report).Message)

		assert.Contains(t, buf.String(), `"msg":"consistency check finished"`)
		assert.Contains(t, buf.String(), `"issues":2`)
	})

	t.Run("consistent messages", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, consistency.CheckAll(context.Background(), good))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := consistency.CheckAll(ctx, badA, badB)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
