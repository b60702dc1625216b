// Package operators is the epoch-aware streaming combinator library:
// each constructor wraps a downstream runtime.Stage and returns the
// upstream-facing Stage a query pipeline pushes into. None of them
// spawn goroutines; all state transitions happen synchronously inside
// Push/Advance, as runtime.Stage requires.
package operators

import "github.com/estuary/streambench/internal/runtime"

// FilterMap applies fn to every record, dropping it when fn reports
// false. Order is preserved within a worker; this is the purely
// stateless combinator every other operator in this package is built
// alongside.
func FilterMap[D, DO any](downstream runtime.Stage[DO], fn func(D) (DO, bool)) runtime.Stage[D] {
	return runtime.PassThrough(downstream, fn)
}

// Map applies fn to every record with no filtering, a convenience
// built on FilterMap for the common case query pipelines need when
// projecting one record shape into another.
func Map[D, DO any](downstream runtime.Stage[DO], fn func(D) DO) runtime.Stage[D] {
	return FilterMap(downstream, func(d D) (DO, bool) { return fn(d), true })
}

// Filter drops records for which keep returns false, preserving shape.
func Filter[D any](downstream runtime.Stage[D], keep func(D) bool) runtime.Stage[D] {
	return FilterMap(downstream, func(d D) (D, bool) { return d, keep(d) })
}
