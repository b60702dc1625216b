// Package runtime is the black-box dataflow engine streambench's operators
// are built on: a minimal stand-in for the timely-dataflow runtime the
// original design targets. It gives operators exactly the primitives
// spec.md treats as provided by the engine — a capability-carrying push
// interface, frontier-driven notification, and a hashed cross-worker
// exchange — and nothing else. Operators never spawn goroutines of their
// own; all work happens synchronously inside Push/Advance calls, driven by
// the single pump loop in internal/driver.
package runtime

import "github.com/estuary/streambench/internal/epoch"

// Stage is one link in an operator pipeline. Push delivers a batch of
// records that share epoch t — the capability to emit at t, in spec.md's
// terms, is simply the fact that Push was called with that epoch.
// Advance tells the stage that the engine's input frontier has moved to
// t: no record at any epoch < t will ever be pushed again on this or any
// upstream path, so any per-epoch state the stage is holding for epochs
// below t must now be flushed (emitted downstream) or discarded, in that
// order, before Advance returns.
type Stage[D any] interface {
	Push(t epoch.T, batch []D)
	Advance(t epoch.T)
}

// StageFunc adapts a pair of plain functions into a Stage. It is the
// stateless case: most of the combinators in internal/operators that
// don't hold per-epoch accumulators (FilterMap, the persistent side of
// RollingCount) are expressed directly as a StageFunc wrapping a closure.
type StageFunc[D any] struct {
	PushFunc    func(t epoch.T, batch []D)
	AdvanceFunc func(t epoch.T)
}

func (f StageFunc[D]) Push(t epoch.T, batch []D) { f.PushFunc(t, batch) }
func (f StageFunc[D]) Advance(t epoch.T)         { f.AdvanceFunc(t) }

// PassThrough constructs a stateless Stage that transforms each record
// through fn and forwards immediately; Advance is simply propagated.
// This is the shape of FilterMap and every map-like operator.
func PassThrough[D, DO any](downstream Stage[DO], fn func(D) (DO, bool)) Stage[D] {
	return StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			out := make([]DO, 0, len(batch))
			for _, d := range batch {
				if do, ok := fn(d); ok {
					out = append(out, do)
				}
			}
			if len(out) > 0 {
				downstream.Push(t, out)
			}
		},
		AdvanceFunc: downstream.Advance,
	}
}

// Tee fans a single upstream into two independent downstream stages —
// used when a query splits one event stream into two filtered
// sub-streams feeding a binary operator (NEXMark's auction/bid and
// person/auction joins both split this way).
func Tee[D any](a, b Stage[D]) Stage[D] {
	return StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			if len(batch) == 0 {
				return
			}
			cp := make([]D, len(batch))
			copy(cp, batch)
			a.Push(t, batch)
			b.Push(t, cp)
		},
		AdvanceFunc: func(t epoch.T) {
			a.Advance(t)
			b.Advance(t)
		},
	}
}

// Discard is a terminal Stage that does nothing; useful as a downstream
// for a pipeline half whose only purpose is to feed a join.
func Discard[D any]() Stage[D] {
	return StageFunc[D]{
		PushFunc:    func(epoch.T, []D) {},
		AdvanceFunc: func(epoch.T) {},
	}
}

// SinkFunc builds a terminal Stage that calls emit for every pushed
// batch, ignoring Advance. The driver uses this to wire a pipeline's
// final output into a Drain.
func SinkFunc[D any](emit func(t epoch.T, batch []D)) Stage[D] {
	return StageFunc[D]{
		PushFunc:    emit,
		AdvanceFunc: func(epoch.T) {},
	}
}
