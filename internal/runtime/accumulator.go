package runtime

import (
	"sort"

	"github.com/estuary/streambench/internal/epoch"
)

// EpochMap holds per-epoch accumulator state for the notify-on-close
// operators (reduce, tumbling window, epoch join). It is the Go encoding of
// "indexed by epoch in a mapping from epoch to per-key map" from spec.md
// §4.2's shared implementation scheme: accumulators are created on first
// touch, mutated until their epoch closes, emitted once, and discarded.
type EpochMap[Acc any] struct {
	byEpoch map[epoch.T]*Acc
	newAcc  func() *Acc
}

// NewEpochMap constructs an EpochMap whose entries are lazily created by
// newAcc on first touch of a given epoch.
func NewEpochMap[Acc any](newAcc func() *Acc) *EpochMap[Acc] {
	return &EpochMap[Acc]{byEpoch: make(map[epoch.T]*Acc), newAcc: newAcc}
}

// Get returns the accumulator for t, creating it if this is the first
// touch of that epoch.
func (m *EpochMap[Acc]) Get(t epoch.T) *Acc {
	acc, ok := m.byEpoch[t]
	if !ok {
		acc = m.newAcc()
		m.byEpoch[t] = acc
	}
	return acc
}

// Has reports whether t has an accumulator at all, without creating one.
func (m *EpochMap[Acc]) Has(t epoch.T) bool {
	_, ok := m.byEpoch[t]
	return ok
}

// Take removes and returns the accumulator for t, if any.
func (m *EpochMap[Acc]) Take(t epoch.T) (*Acc, bool) {
	acc, ok := m.byEpoch[t]
	if ok {
		delete(m.byEpoch, t)
	}
	return acc, ok
}

// ReadyBefore returns the epochs with an accumulator strictly below
// frontier, in ascending order — the set whose notification has just
// fired because the input frontier advanced past them.
func (m *EpochMap[Acc]) ReadyBefore(frontier epoch.T) []epoch.T {
	var ready []epoch.T
	for t := range m.byEpoch {
		if t < frontier {
			ready = append(ready, t)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	return ready
}
