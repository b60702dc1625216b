package operators

import (
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

// RollingCount maintains a per-key counter that persists across
// epochs — never reset, always monotone. For every input record it
// computes k = keyFn(r), increments that key's counter, and emits
// counter(r, newCount). Input and output order match within a worker.
// Callers route same-key records to the same worker by wrapping this
// Stage behind a runtime.Exchange keyed on the same extractor before
// wiring it into a pipeline with more than one worker.
func RollingCount[D, DO any, K comparable](downstream runtime.Stage[DO], keyFn func(D) K, counter func(D, int) DO) runtime.Stage[D] {
	counts := make(map[K]int)
	return runtime.StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			out := make([]DO, 0, len(batch))
			for _, d := range batch {
				k := keyFn(d)
				counts[k]++
				out = append(out, counter(d, counts[k]))
			}
			if len(out) > 0 {
				downstream.Push(t, out)
			}
		},
		AdvanceFunc: downstream.Advance,
	}
}
