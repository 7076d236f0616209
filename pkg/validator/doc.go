// Package validator is the runtime validation engine. It applies the rule
// sets of the rules package to Go values and reports violations addressed
// by field path.
//
// # Architecture
//
// Each field kind has a Checker (String, Bytes, Bool, Enum, Numeric,
// Duration, Timestamp, Any, Nested, Repeated, Map), chosen once when the
// message validator is assembled. A Field binds a checker to an accessor of
// the message type, and a Message walks its fields, oneofs, message-level
// oneof rules and predicates in declaration order.
//
// For every field the engine applies, in order: ignore=always, absence and
// required, ignore=if_zero_value, const (a failing const is the only
// violation reported for the field), the kind rules in a fixed order, and
// finally custom predicates. Repeated and map fields validate their counts
// first and then every item, key and value with an index or key subscript.
//
// Core building blocks:
//   - Checker           – per-kind rule execution
//   - Field, Oneof      – bind checkers to message accessors
//   - Message           – the per-type validator, also used for nesting
//   - ValidationError   – one violation with path, rule id and i18n keys
//   - ValidationErrors  – slice type that implements the error interface
//   - Accumulator       – violations of one call plus the fail-fast flag
//
// # Usage
//
//	user := validator.NewMessage[User]("User")
//	user.Add(
//	    validator.NewField(1, "email", func(u User) (string, bool) { return u.Email, u.Email != "" },
//	        validator.NewString(rules.String().Required().Email().MustBuild())),
//	    validator.NewField(2, "age", func(u User) (int32, bool) { return u.Age, true },
//	        validator.NewNumeric(rules.Int32().Gte(0).Lt(150).MustBuild())),
//	)
//
//	if err := user.ValidateAll(u); err != nil {
//	    if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	        // inspect verrs.RuleIDs(), verrs.Get("email"), ...
//	    }
//	}
//
// # Error Handling
//
// Validate stops at the first violation, ValidateAll collects all of them.
// Both return ValidationErrors, or a predicate conversion error when a
// custom predicate cannot be evaluated; the two are never mixed.
//
// # Concurrency
//
// Messages and checkers are read-only during validation and may be shared
// by any number of goroutines. The path stack and accumulator of a call are
// pooled and never shared, and the success path does not allocate for
// kinds without custom predicates.
package validator
