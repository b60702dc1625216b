package operators

import (
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

type reduceAcc[K comparable, V any] struct {
	values map[K]reduceEntry[V]
}

type reduceEntry[V any] struct {
	value V
	count int
}

// Reduce is the per-epoch grouped reduction every other reduce_*
// variant is defined in terms of. For each record r at epoch t, it
// looks up k = keyFn(r) in that epoch's accumulator, folds via
// value = reductor(r, previous-or-initial), and bumps the per-key
// count. When t closes, it emits one record per key by applying
// completor(k, value, count) and discards the epoch's map entirely —
// no cross-epoch state survives.
func Reduce[D any, K comparable, V any, DO any](
	downstream runtime.Stage[DO],
	keyFn func(D) K,
	initial V,
	reductor func(D, V) V,
	completor func(K, V, int) DO,
) runtime.Stage[D] {
	epochs := runtime.NewEpochMap(func() *reduceAcc[K, V] {
		return &reduceAcc[K, V]{values: make(map[K]reduceEntry[V])}
	})

	flush := func(t epoch.T) {
		acc, ok := epochs.Take(t)
		if !ok {
			return
		}
		if len(acc.values) == 0 {
			return
		}
		out := make([]DO, 0, len(acc.values))
		for k, e := range acc.values {
			out = append(out, completor(k, e.value, e.count))
		}
		downstream.Push(t, out)
	}

	return runtime.StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			acc := epochs.Get(t)
			for _, d := range batch {
				k := keyFn(d)
				e := acc.values[k]
				e.value = reductor(d, orInitial(e.count, e.value, initial))
				e.count++
				acc.values[k] = e
			}
		},
		AdvanceFunc: func(t epoch.T) {
			for _, ready := range epochs.ReadyBefore(t) {
				flush(ready)
			}
			downstream.Advance(t)
		},
	}
}

func orInitial[V any](count int, current, initial V) V {
	if count == 0 {
		return initial
	}
	return current
}

// ReduceBy is Reduce with the identity completor (k, v, _) -> (k, v).
func ReduceBy[D any, K comparable, V any](downstream runtime.Stage[KV[K, V]], keyFn func(D) K, initial V, reductor func(D, V) V) runtime.Stage[D] {
	return Reduce(downstream, keyFn, initial, reductor, func(k K, v V, _ int) KV[K, V] {
		return KV[K, V]{Key: k, Value: v}
	})
}

// KV pairs a key with a value; ReduceBy's output shape.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}

// AverageBy reduces each key's extract(r) values via sum and emits
// sum/count as a float64 once the epoch closes.
func AverageBy[D any, K comparable](downstream runtime.Stage[KV[K, float64]], keyFn func(D) K, extract func(D) float64) runtime.Stage[D] {
	return Reduce(downstream, keyFn, 0.0,
		func(d D, sum float64) float64 { return sum + extract(d) },
		func(k K, sum float64, count int) KV[K, float64] {
			return KV[K, float64]{Key: k, Value: sum / float64(count)}
		},
	)
}

// ReduceTo is Reduce with a single implicit key, folding every record
// in an epoch into one value.
func ReduceTo[D any, V any](downstream runtime.Stage[V], initial V, reductor func(D, V) V) runtime.Stage[D] {
	return Reduce(downstream,
		func(D) struct{} { return struct{}{} },
		initial,
		reductor,
		func(_ struct{}, v V, _ int) V { return v },
	)
}
