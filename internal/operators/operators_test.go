package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/estuary/streambench/internal/epoch"
)

// recordingStage captures every Push/Advance call it receives, for
// assertions against operator output without needing a full driver.
type recordingStage[D any] struct {
	pushes   []push[D]
	advances []epoch.T
}

type push[D any] struct {
	t    epoch.T
	data []D
}

func (r *recordingStage[D]) Push(t epoch.T, batch []D) {
	cp := make([]D, len(batch))
	copy(cp, batch)
	r.pushes = append(r.pushes, push[D]{t: t, data: cp})
}

func (r *recordingStage[D]) Advance(t epoch.T) {
	r.advances = append(r.advances, t)
}

func (r *recordingStage[D]) allData() []D {
	var out []D
	for _, p := range r.pushes {
		out = append(out, p.data...)
	}
	return out
}

func TestMapProjects(t *testing.T) {
	down := &recordingStage[int]{}
	s := Map[int, int](down, func(d int) int { return d * 2 })

	s.Push(0, []int{1, 2, 3})
	s.Advance(1)

	assert.Equal(t, []int{2, 4, 6}, down.allData())
	assert.Equal(t, []epoch.T{1}, down.advances)
}

func TestFilterDropsRejected(t *testing.T) {
	down := &recordingStage[int]{}
	s := Filter[int](down, func(d int) bool { return d%2 == 0 })

	s.Push(0, []int{1, 2, 3, 4, 5})

	assert.Equal(t, []int{2, 4}, down.allData())
}

func TestFilterMapSkipsEmptyBatchPush(t *testing.T) {
	down := &recordingStage[int]{}
	s := Filter[int](down, func(int) bool { return false })

	s.Push(0, []int{1, 2, 3})

	assert.Empty(t, down.pushes)
}

func TestPartitionEmitsOnceFullAndCarriesRemainderAcrossEpochs(t *testing.T) {
	down := &recordingStage[[]string]{}
	s := Partition[string, string](down, 2, func(d string) string { return d })

	s.Push(0, []string{"a", "a", "b"})
	s.Advance(1)
	s.Push(1, []string{"b"})
	s.Advance(2)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 2, "expected two flushes, one per epoch the second 'a'/'b' closed out")
	assert.Equal(t, epoch.T(0), down.pushes[0].t)
	assert.Equal(t, [][]string{{"a", "a"}}, down.pushes[0].data)
	assert.Equal(t, epoch.T(1), down.pushes[1].t)
	assert.Equal(t, [][]string{{"b", "b"}}, down.pushes[1].data)
}

func TestReduceFlushesOnAdvanceAndDiscardsEpochState(t *testing.T) {
	down := &recordingStage[KV[string, int]]{}
	s := Reduce[int, string, int, KV[string, int]](down,
		func(d int) string {
			if d%2 == 0 {
				return "even"
			}
			return "odd"
		},
		0,
		func(d, acc int) int { return acc + d },
		func(k string, v int, count int) KV[string, int] { return KV[string, int]{Key: k, Value: v} },
	)

	s.Push(0, []int{1, 2, 3, 4})
	s.Advance(1)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected a single flush when epoch 0 closes")
	byKey := map[string]int{}
	for _, kv := range down.pushes[0].data {
		byKey[kv.Key] = kv.Value
	}
	assert.Equal(t, 6, byKey["even"])
	assert.Equal(t, 4, byKey["odd"])

	// Epoch 0's accumulator is gone; nothing further is emitted for it.
	s.Advance(2)
	assert.Len(t, down.pushes, 1)
}

func TestReduceEmitsNothingForEmptyEpoch(t *testing.T) {
	down := &recordingStage[KV[string, int]]{}
	s := ReduceBy[int, string, int](down, func(int) string { return "k" }, 0, func(d, acc int) int { return acc + d })

	s.Advance(1)

	assert.Empty(t, down.pushes)
}

func TestAverageByDividesSumByCount(t *testing.T) {
	down := &recordingStage[KV[string, float64]]{}
	s := AverageBy[int, string](down, func(int) string { return "k" }, func(d int) float64 { return float64(d) })

	s.Push(0, []int{2, 4, 6})
	s.Advance(1)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected one flush")
	require(len(down.pushes[0].data) == 1, "expected one key")
	assert.Equal(t, 4.0, down.pushes[0].data[0].Value)
}

func TestReduceToFoldsAllRecordsIntoOneValue(t *testing.T) {
	down := &recordingStage[int]{}
	s := ReduceTo[int, int](down, 0, func(d, acc int) int { return acc + d })

	s.Push(0, []int{1, 2, 3})
	s.Advance(1)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected one flush")
	assert.Equal(t, []int{6}, down.pushes[0].data)
}

func TestRollingCountPersistsAcrossEpochs(t *testing.T) {
	down := &recordingStage[int]{}
	s := RollingCount[string, int, string](down, func(d string) string { return d }, func(_ string, n int) int { return n })

	s.Push(0, []string{"a", "b", "a"})
	s.Advance(1)
	s.Push(1, []string{"a"})
	s.Advance(2)

	assert.Equal(t, []int{1, 1, 2}, down.pushes[0].data)
	assert.Equal(t, []int{3}, down.pushes[1].data)
}

func TestSessionClosesAfterTimeoutAndExtendsOnLateArrival(t *testing.T) {
	down := &recordingStage[KV[string, []int]]{}
	s := Session[int, string](down, 2, func(d int) (string, epoch.T) { return "k", epoch.T(d) })

	// The record at slot 0 schedules an expiry check at slot 2; that
	// check must be skipped once the slot-1 record extends the session,
	// rescheduling expiry to slot 3. The check only fires once the
	// frontier passes slot 3, i.e. on Advance(4).
	s.Push(0, []int{0})
	s.Advance(1)
	assert.Empty(t, down.pushes, "session should still be open after only one record")

	s.Push(1, []int{1})
	s.Advance(3)
	assert.Empty(t, down.pushes, "the slot-2 expiry check must be superseded by the slot-1 record extending the session")

	s.Advance(4)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected the session to close once the frontier passed its rescheduled expiry")
	assert.Equal(t, "k", down.pushes[0].data[0].Key)
	assert.Equal(t, []int{0, 1}, down.pushes[0].data[0].Value)
}

func TestSessionFlushesOutstandingOnInfinityAdvance(t *testing.T) {
	down := &recordingStage[KV[string, []int]]{}
	s := Session[int, string](down, 100, func(d int) (string, epoch.T) { return "k", epoch.T(d) })

	s.Push(0, []int{0, 1})
	s.Advance(epoch.Infinity)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected the still-open session to flush on final Advance")
	assert.Equal(t, []int{0, 1}, down.pushes[0].data[0].Value)
	assert.Equal(t, []epoch.T{epoch.Infinity}, down.advances)
}

func TestTumblingWindowBucketsAndFlushesOnClose(t *testing.T) {
	down := &recordingStage[int]{}
	s := TumblingWindow[int](down, 10)

	s.Push(3, []int{1})
	s.Push(7, []int{2})
	s.Advance(10) // bucket (t/10+1)*10 for t in [0,10) is 10; not yet closed until frontier > 10

	assert.Empty(t, down.pushes, "bucket 10 shouldn't flush until the frontier passes it")

	s.Advance(11)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected bucket 10 to flush once frontier passed it")
	assert.ElementsMatch(t, []int{1, 2}, down.pushes[0].data)
	assert.Equal(t, epoch.T(10), down.pushes[0].t)
}

func TestEpochWindowIsWindowOverRawEpoch(t *testing.T) {
	down := &recordingStage[int]{}
	s := EpochWindow[int](down, 2, 2)

	s.Push(0, []int{1})
	s.Push(1, []int{2})
	s.Advance(2)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected window [0,2) to trigger once slot 1 closed")
	assert.ElementsMatch(t, []int{1, 2}, down.pushes[0].data)
	assert.Equal(t, epoch.T(1), down.pushes[0].t)
}

func TestWindowSlidingOverlapRetainsRecordsAcrossWindows(t *testing.T) {
	down := &recordingStage[int]{}
	// size=2, slide=1: window starting at p=1 covers slots [1,3) and
	// overlaps with the window starting at p=0 covering [0,2).
	s := Window[int](down, 2, 1, func(t epoch.T, _ int) epoch.T { return t })

	s.Push(0, []int{0})
	s.Push(1, []int{1})
	s.Push(2, []int{2})
	s.Advance(3)

	var windows [][]int
	for _, p := range down.pushes {
		windows = append(windows, p.data)
	}
	assert.ElementsMatch(t, []int{0, 1}, windows[0])
	assert.ElementsMatch(t, []int{1, 2}, windows[1])
}

func TestWindowInfinityAdvanceDoesNotReflushRetainedOverlap(t *testing.T) {
	down := &recordingStage[int]{}
	// size=3, slide=2: window p=0 covers [0,3) and retains slot 2 as
	// overlap; window p=2 covers [2,5) and retains slot 4. The final
	// Advance(Infinity) must not rederive p=0 or p=2 from those
	// retained slots and re-push an already-closed window.
	s := Window[int](down, 3, 2, func(t epoch.T, _ int) epoch.T { return t })

	for e := 0; e < 5; e++ {
		s.Push(epoch.T(e), []int{e})
	}
	s.Advance(5)
	s.Advance(epoch.Infinity)

	assert.Len(t, down.pushes, 2, "Advance(Infinity) must not re-emit a window already flushed normally")
	assert.ElementsMatch(t, []int{0, 1, 2}, down.pushes[0].data)
	assert.ElementsMatch(t, []int{2, 3, 4}, down.pushes[1].data)
}

func TestWindowPanicsWhenSlideExceedsSize(t *testing.T) {
	down := &recordingStage[int]{}
	assert.Panics(t, func() {
		Window[int](down, 2, 3, func(t epoch.T, _ int) epoch.T { return t })
	})
}

func TestEpochJoinEmitsCrossProductOnSharedEpochClose(t *testing.T) {
	down := &recordingStage[string]{}
	j := NewEpochJoin[string, int, string, string](down,
		func(l string) string { return l },
		func(r int) string {
			if r%2 == 0 {
				return "even"
			}
			return "odd"
		},
		func(l string, r int) string { return l },
	)
	left := j.Left()
	right := j.Right()

	left.Push(0, []string{"even", "odd"})
	right.Push(0, []int{2, 4, 1})
	left.Advance(1)
	right.Advance(1)

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected a single flush once both sides closed epoch 0")
	assert.ElementsMatch(t, []string{"even", "even", "odd"}, down.pushes[0].data)
}

// TestEpochJoinWaitsForBothSidesBeforeFlushing confirms a flush
// attempt on one side alone, before the other side has pushed
// anything for that epoch, is a genuine no-op: the side that did push
// keeps its buffered records until the other side's data actually
// arrives, rather than losing them to a premature attempt.
func TestEpochJoinWaitsForBothSidesBeforeFlushing(t *testing.T) {
	down := &recordingStage[string]{}
	j := NewEpochJoin[string, int, string, int](down,
		func(l string) int { return 1 },
		func(r int) int { return 1 },
		func(l string, r int) string { return l },
	)
	left := j.Left()
	right := j.Right()

	left.Push(0, []string{"a"})
	left.Advance(1)
	assert.Empty(t, down.pushes, "left alone closing its epoch must not flush without the right side")

	right.Push(0, []int{1})
	right.Advance(1)
	assert.Len(t, down.pushes, 1, "the left side's epoch-0 buffer must survive the earlier no-op attempt and join once the right side arrives")
}

func TestLeftJoinEmitsImmediatelyWhenLeftAlreadyBuilt(t *testing.T) {
	down := &recordingStage[string]{}
	j := NewLeftJoin[string, int, string, int](down,
		func(l string) int { return len(l) },
		func(r int) int { return r },
		func(l string, r int) string { return l },
	)
	j.Left().Push(0, []string{"ab"})
	j.Right().Push(0, []int{2})

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected an immediate match since the left side was already built")
	assert.Equal(t, []string{"ab"}, down.pushes[0].data)
}

func TestLeftJoinBuffersUnmatchedRightUntilLeftArrives(t *testing.T) {
	down := &recordingStage[string]{}
	j := NewLeftJoin[string, int, string, int](down,
		func(l string) int { return len(l) },
		func(r int) int { return r },
		func(l string, r int) string { return l },
	)
	j.Right().Push(0, []int{2})
	assert.Empty(t, down.pushes, "right record with no matching left yet should be buffered, not dropped")

	j.Left().Push(1, []string{"xy"})

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(down.pushes) == 1, "expected the buffered right record to flush once its matching left arrived")
	assert.Equal(t, []string{"xy"}, down.pushes[0].data)
}
