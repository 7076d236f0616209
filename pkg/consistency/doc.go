// Package consistency inspects built message validators for rules that
// contradict each other, can never be satisfied, or make other rules dead.
//
// It is meant to run once, at process start or in a test, never on the
// validation path:
//
//	if err := consistency.CheckAll(ctx, users, orders); err != nil {
//		log.Fatal(err)
//	}
//
// Issues are collected rather than reported one at a time. Each message
// with at least one issue yields a *Report; CheckAll merges the reports with
// go-multierror. Predicates are type-checked against the default value of
// the field they guard.
package consistency
