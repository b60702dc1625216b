// Package driver is the per-worker orchestration loop: pull a batch
// from a Source, push it through a query's operator pipeline, forward
// whatever comes out to a Drain, and once the source is exhausted,
// reduce the per-epoch first/last observation timestamps into a
// Statistics block. There is exactly one driver per worker; workers
// never share state.
package driver

import (
	"fmt"
	"time"

	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/opslog"
	"github.com/estuary/streambench/internal/runtime"
	"github.com/estuary/streambench/internal/stats"
)

// now is the driver's one and only clock read, factored out so the
// rest of the package never calls time.Now() directly — Run's probes
// are the only place this package reads wall time.
var now = time.Now

// Result is what Run returns: the aggregated latency statistics for
// this worker's run, plus the number of epochs observed.
type Result struct {
	Stats  stats.Statistics
	Epochs int
}

// Run drives source through build to drain until the source reports
// out-of-data, then reduces the per-epoch observation log into a
// Statistics block. build receives the sink Stage (wired to drain)
// and must return the Stage the loop pushes source batches into —
// this is exactly construct_dataflow in spec.md's terms, with the
// source/probe/sink wiring done here instead of by the query.
func Run[D, DO any](log opslog.Logger, source endpoint.Source[D], drain endpoint.Drain[DO], build func(sink runtime.Stage[DO]) runtime.Stage[D]) (Result, error) {
	observations := make(map[epoch.T]*stats.Observation)
	touch := func(t epoch.T) {
		o, ok := observations[t]
		if !ok {
			o = &stats.Observation{First: now()}
			observations[t] = o
		}
		o.Last = now()
	}

	sink := runtime.SinkFunc[DO](func(t epoch.T, batch []DO) {
		touch(t)
		drain.Push(t, batch)
	})
	head := build(sink)

	for {
		t, batch, err := source.Next()
		if endpoint.IsOutOfData(err) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("driver: source: %w", err)
		}
		touch(t)
		// Advance before Push: advancing to t flushes any state held
		// for epochs strictly below t (spec.md's "output frontier
		// catches up to input frontier" before the batch for t is
		// delivered), without closing t itself.
		head.Advance(t)
		head.Push(t, batch)
		log.WithField("epoch", t).Debugf("drove batch of %d records", len(batch))
	}
	head.Advance(epoch.Infinity)

	obs := make([]stats.Observation, 0, len(observations))
	for _, o := range observations {
		obs = append(obs, *o)
	}
	return Result{Stats: stats.FromObservations(obs), Epochs: len(obs)}, nil
}
