package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/estuary/streambench/internal/epoch"
)

// recordingStage captures every Push/Advance call a Side forwards
// downstream. Exchange drives each worker's downstream from that
// worker's own goroutine, so pushes/advances land here from whichever
// goroutine owns this recorder's Side — the mutex is what makes that
// safe to inspect once every goroutine has finished.
type recordingStage struct {
	mu       sync.Mutex
	pushes   []exchangePush
	advances []epoch.T
}

type exchangePush struct {
	t    epoch.T
	data []int
}

func (r *recordingStage) Push(t epoch.T, batch []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, exchangePush{t: t, data: append([]int(nil), batch...)})
}

func (r *recordingStage) Advance(t epoch.T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advances = append(r.advances, t)
}

func (r *recordingStage) all() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, p := range r.pushes {
		out = append(out, p.data...)
	}
	return out
}

// TestExchangeRoutesByHashAcrossConcurrentWorkers drives a 2-worker
// Exchange from two real goroutines, the way HiBench's
// Repartition/Wordcount do. Each worker's Advance blocks in
// drainUntil until the other has voted for the same frontier, so this
// test only terminates if Side is actually safe to run concurrently;
// run sequentially in one goroutine it would deadlock forever on the
// first Advance.
func TestExchangeRoutesByHashAcrossConcurrentWorkers(t *testing.T) {
	ex := NewExchange[int](2, func(d int) uint64 { return uint64(d) })

	down0 := &recordingStage{}
	down1 := &recordingStage{}
	side0 := ex.Side(0, down0)
	side1 := ex.Side(1, down1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		side0.Push(0, []int{0, 2, 4, 5})
		side0.Advance(1)
	}()
	go func() {
		defer wg.Done()
		side1.Push(0, []int{1, 3, 6, 7})
		side1.Advance(1)
	}()
	wg.Wait()

	assert.ElementsMatch(t, []int{0, 2, 4, 6}, down0.all())
	assert.ElementsMatch(t, []int{1, 3, 5, 7}, down1.all())
	assert.Equal(t, []epoch.T{1}, down0.advances)
	assert.Equal(t, []epoch.T{1}, down1.advances)
}

// TestExchangeSingleWorkerBypassesChannels confirms the n==1 fast path
// hands back downstream untouched rather than routing through an
// inbox, since there's no shuffle to do with one worker.
func TestExchangeSingleWorkerBypassesChannels(t *testing.T) {
	ex := NewExchange[int](1, func(d int) uint64 { return uint64(d) })
	down := &recordingStage{}
	side := ex.Side(0, down)

	side.Push(0, []int{1, 2, 3})
	side.Advance(1)

	assert.Equal(t, []int{1, 2, 3}, down.all())
	assert.Equal(t, []epoch.T{1}, down.advances)
}
