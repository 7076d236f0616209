// Package rules defines the declarative rule model: field kinds, the
// immutable rule sets attached to fields, and the builders that produce
// them.
//
// Every field kind has its own builder. Builders are plain values and each
// setter returns a new builder, so a partially configured builder can be
// shared and extended without affecting other copies:
//
//	name := rules.String().Required().MinLen(1).MaxLen(64).MustBuild()
//	age := rules.Int32().Gte(0).Lt(150).MustBuild()
//
// A builder tracks which rules have been set. Setting a rule twice, or
// combining rules that exclude each other (required and ignore=always, lt
// and lte, gt and gte), is recorded and reported by Build as one aggregated
// error. Every reported error wraps ErrRuleAlreadySet, ErrMutuallyExclusive,
// ErrInvalidPattern or ErrInvalidRule.
//
// Rule sets are read-only after Build and may be shared by any number of
// concurrent validations. Whether the declared bounds make sense together
// (for example min_len greater than max_len) is not checked here; see the
// consistency package.
package rules
