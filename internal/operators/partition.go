package operators

import (
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

// Partition batches records into fixed-size groups of n per key:
// records are buffered per key until n accumulate, then the Vec is
// emitted and the buffer cleared. State persists across epochs, like
// RollingCount — a key's partial group from one epoch carries into the
// next rather than being flushed early.
func Partition[D any, K comparable](downstream runtime.Stage[[]D], n int, key func(D) K) runtime.Stage[D] {
	partitions := make(map[K][]D)
	return runtime.StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			var out [][]D
			for _, d := range batch {
				k := key(d)
				p := append(partitions[k], d)
				if len(p) == n {
					out = append(out, p)
					delete(partitions, k)
				} else {
					partitions[k] = p
				}
			}
			if len(out) > 0 {
				downstream.Push(t, out)
			}
		},
		AdvanceFunc: downstream.Advance,
	}
}
