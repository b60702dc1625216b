package operators

import (
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

// EpochJoin is the epoch-scoped stream join: within each epoch it
// builds two key-indexed multi-maps, one per side, and on epoch close
// emits the full cross product of every left/right pair sharing a
// key. Two halves of a binary operator share one joiner through two
// adapter Stages built by this constructor's call sites (see
// NewEpochJoin below) — EpochJoin itself is the shared core they both
// push into.
type EpochJoin[L, R, O any, K comparable] struct {
	downstream runtime.Stage[O]
	keyL       func(L) K
	keyR       func(R) K
	combine    func(L, R) O

	left       *runtime.EpochMap[map[K][]L]
	right      *runtime.EpochMap[map[K][]R]
	lastAdvanced epoch.T
}

// NewEpochJoin builds the shared join state. Call Left and Right on
// the result to get each side's Stage.
func NewEpochJoin[L, R, O any, K comparable](downstream runtime.Stage[O], keyL func(L) K, keyR func(R) K, combine func(L, R) O) *EpochJoin[L, R, O, K] {
	return &EpochJoin[L, R, O, K]{
		downstream: downstream,
		keyL:       keyL,
		keyR:       keyR,
		combine:    combine,
		left:       runtime.NewEpochMap(func() *map[K][]L { m := make(map[K][]L); return &m }),
		right:      runtime.NewEpochMap(func() *map[K][]R { m := make(map[K][]R); return &m }),
	}
}

func (j *EpochJoin[L, R, O, K]) flush(t epoch.T) {
	// Peek before taking: a side's accumulator must survive an
	// unready flush attempt so it's still there once the other side
	// actually closes the epoch, instead of being consumed and
	// discarded by this no-op attempt.
	if !j.left.Has(t) || !j.right.Has(t) {
		return
	}
	lm, _ := j.left.Take(t)
	rm, _ := j.right.Take(t)
	var out []O
	for k, ls := range *lm {
		rs, ok := (*rm)[k]
		if !ok {
			continue
		}
		for _, l := range ls {
			for _, r := range rs {
				out = append(out, j.combine(l, r))
			}
		}
	}
	if len(out) > 0 {
		j.downstream.Push(t, out)
	}
}

func (j *EpochJoin[L, R, O, K]) advance(t epoch.T) {
	for _, ready := range j.left.ReadyBefore(t) {
		j.flush(ready)
	}
	for _, ready := range j.right.ReadyBefore(t) {
		j.flush(ready)
	}
	if t > j.lastAdvanced {
		j.lastAdvanced = t
		j.downstream.Advance(t)
	}
}

// Left returns the Stage the left-hand pipeline half should push
// into.
func (j *EpochJoin[L, R, O, K]) Left() runtime.Stage[L] {
	return runtime.StageFunc[L]{
		PushFunc: func(t epoch.T, batch []L) {
			m := j.left.Get(t)
			for _, l := range batch {
				k := j.keyL(l)
				(*m)[k] = append((*m)[k], l)
			}
		},
		AdvanceFunc: j.advance,
	}
}

// Right returns the Stage the right-hand pipeline half should push
// into.
func (j *EpochJoin[L, R, O, K]) Right() runtime.Stage[R] {
	return runtime.StageFunc[R]{
		PushFunc: func(t epoch.T, batch []R) {
			m := j.right.Get(t)
			for _, r := range batch {
				k := j.keyR(r)
				(*m)[k] = append((*m)[k], r)
			}
		},
		AdvanceFunc: j.advance,
	}
}

// LeftJoin is the one-sided streaming hash join: left records are
// indexed by keyL into a persistent, unbounded build-side map. A right
// record with a matching key produces combine(l, r) immediately;
// a right record with no match yet is buffered and flushed the moment
// a matching left record arrives. There is no epoch boundary — this
// operator never closes or discards state.
type LeftJoin[L, R, O any, K comparable] struct {
	downstream  runtime.Stage[O]
	keyL        func(L) K
	keyR        func(R) K
	combine     func(L, R) O
	builtLeft   map[K]L
	bufferedRHS map[K][]R
}

func NewLeftJoin[L, R, O any, K comparable](downstream runtime.Stage[O], keyL func(L) K, keyR func(R) K, combine func(L, R) O) *LeftJoin[L, R, O, K] {
	return &LeftJoin[L, R, O, K]{
		downstream:  downstream,
		keyL:        keyL,
		keyR:        keyR,
		combine:     combine,
		builtLeft:   make(map[K]L),
		bufferedRHS: make(map[K][]R),
	}
}

func (j *LeftJoin[L, R, O, K]) Left() runtime.Stage[L] {
	return runtime.StageFunc[L]{
		PushFunc: func(t epoch.T, batch []L) {
			for _, l := range batch {
				k := j.keyL(l)
				if buffered, ok := j.bufferedRHS[k]; ok {
					out := make([]O, 0, len(buffered))
					for _, r := range buffered {
						out = append(out, j.combine(l, r))
					}
					delete(j.bufferedRHS, k)
					j.downstream.Push(t, out)
				}
				j.builtLeft[k] = l
			}
		},
		AdvanceFunc: j.downstream.Advance,
	}
}

func (j *LeftJoin[L, R, O, K]) Right() runtime.Stage[R] {
	return runtime.StageFunc[R]{
		PushFunc: func(t epoch.T, batch []R) {
			var out []O
			for _, r := range batch {
				k := j.keyR(r)
				if l, ok := j.builtLeft[k]; ok {
					out = append(out, j.combine(l, r))
				} else {
					j.bufferedRHS[k] = append(j.bufferedRHS[k], r)
				}
			}
			if len(out) > 0 {
				j.downstream.Push(t, out)
			}
		},
		AdvanceFunc: j.downstream.Advance,
	}
}
