package operators

import (
	"fmt"
	"sort"

	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

// Window is the general sliding window: each record is associated
// with slot t' = timeOf(recordEpoch, record). Windows start at slot 0
// and step by slide; window p covers slots [p, p+size) and is
// triggered the instant slot p+size-1 closes. slide must not exceed
// size. Records arriving for a slot that hasn't been discarded yet are
// still accepted, regardless of the order their enclosing epochs
// close in.
func Window[D any](downstream runtime.Stage[D], size, slide int, timeOf func(t epoch.T, d D) epoch.T) runtime.Stage[D] {
	if slide > size {
		panic(fmt.Sprintf("operators: window slide (%d) cannot exceed size (%d)", slide, size))
	}
	parts := make(map[epoch.T][]D)
	var lastAdvanced epoch.T
	// nextP is the smallest window start not yet flushed. A window's
	// overlap slots (size-slide of them) are deliberately left behind
	// in parts for the following window to share, so a slot once
	// flushed as part of window p can still be present when a later
	// Advance re-examines every present slot (the Infinity branch
	// below) — without this guard that would re-derive p from the
	// retained slot and flush it a second time.
	var nextP epoch.T

	flush := func(p epoch.T) {
		if p < nextP {
			return
		}
		nextP = p + epoch.T(slide)
		var window []D
		for s := p; s < p+epoch.T(size); s++ {
			window = append(window, parts[s]...)
		}
		if len(window) > 0 {
			downstream.Push(p+epoch.T(size)-1, window)
		}
		for s := p; s < p+epoch.T(slide); s++ {
			delete(parts, s)
		}
	}

	return runtime.StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			for _, d := range batch {
				slot := timeOf(t, d)
				parts[slot] = append(parts[slot], d)
			}
		},
		AdvanceFunc: func(t epoch.T) {
			// The final Advance of a run closes the frontier at
			// epoch.Infinity: walking every intermediate slot would
			// never terminate, and no further input could ever need
			// a scheduled empty-window notification past this point,
			// so just flush whatever windows are still outstanding.
			if t == epoch.Infinity {
				slots := make([]epoch.T, 0, len(parts))
				for s := range parts {
					slots = append(slots, s)
				}
				sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
				for _, s := range slots {
					if _, ok := parts[s]; !ok {
						continue // already discarded by an earlier flush in this pass
					}
					if s+1 >= epoch.T(size) {
						p := s - epoch.T(size) + 1
						if uint64(p)%uint64(slide) == 0 {
							flush(p)
						}
					}
				}
				lastAdvanced = t
				downstream.Advance(t)
				return
			}
			for s := lastAdvanced; s < t; s++ {
				if s+1 < epoch.T(size) {
					continue
				}
				p := s - epoch.T(size) + 1
				if uint64(p)%uint64(slide) == 0 {
					flush(p)
				}
			}
			lastAdvanced = t
			downstream.Advance(t)
		},
	}
}

// EpochWindow is window(size, slide, |t, _| t): the slot is exactly
// the record's input epoch.
func EpochWindow[D any](downstream runtime.Stage[D], size, slide int) runtime.Stage[D] {
	return Window(downstream, size, slide, func(t epoch.T, _ D) epoch.T { return t })
}

// TumblingWindow buckets every record at input epoch t into
// window-end slot ((t/size)+1)*size and emits the whole bucket the
// instant that slot closes. Unlike the general Window, a bucket's
// trigger is simply its own closure — there's no overlapping-window
// arithmetic because tumbling windows never overlap.
func TumblingWindow[D any](downstream runtime.Stage[D], size int) runtime.Stage[D] {
	bucket := func(t epoch.T) epoch.T {
		return (t/epoch.T(size) + 1) * epoch.T(size)
	}
	buckets := runtime.NewEpochMap(func() *[]D {
		s := make([]D, 0)
		return &s
	})

	return runtime.StageFunc[D]{
		PushFunc: func(t epoch.T, batch []D) {
			for _, d := range batch {
				b := bucket(t)
				acc := buckets.Get(b)
				*acc = append(*acc, d)
			}
		},
		AdvanceFunc: func(t epoch.T) {
			for _, ready := range buckets.ReadyBefore(t) {
				acc, _ := buckets.Take(ready)
				if len(*acc) > 0 {
					downstream.Push(ready, *acc)
				}
			}
			downstream.Advance(t)
		},
	}
}
