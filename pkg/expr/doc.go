// Package expr evaluates custom predicates written in the Common Expression
// Language (github.com/google/cel-go).
//
// A predicate sees the validated value as `this` and the validation clock
// reading as `now`:
//
//	ok, msg, err := expr.Default().Evaluate(rules.Predicate{
//		ID:         "even",
//		Message:    "value must be even",
//		Expression: "this % 2 == 0",
//	}, int64(3), time.Now())
//
// A predicate yields either a bool or a string; an empty string means the
// predicate holds and any other string is the violation message.
//
// Failures to compile or evaluate a predicate are returned as
// *ConversionError, never as a failed verdict. Check type-checks a predicate
// against the default value of a field and is meant for build-time checks.
package expr
