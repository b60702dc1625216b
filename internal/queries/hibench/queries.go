// Package hibench wires the HiBench record stream into the four named
// queries: Identity maps each record to its parsed timestamp and an
// observation time, and Repartition
// round-robins records across workers through runtime.Exchange;
// Wordcount and Fixwindow are the two real aggregations.
package hibench

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/epoch"
	gen "github.com/estuary/streambench/internal/generators/hibench"
	"github.com/estuary/streambench/internal/operators"
	"github.com/estuary/streambench/internal/runtime"
)

// Identity re-emits (parsed-timestamp, observation-time) for every
// record — matching the original's "map to (ts_parsed, wallclock)"
// stub shape. wallClock is injected so the query stays pure; the
// driver supplies the real clock.
func Identity(downstream runtime.Stage[IdentityOut], wallClock func() epoch.T) runtime.Stage[gen.Record] {
	return operators.Map(downstream, func(r gen.Record) IdentityOut {
		ts, _ := strconv.ParseUint(r.Timestamp, 10, 64)
		return IdentityOut{Timestamp: epoch.T(ts), Observed: wallClock()}
	})
}

// IdentityOut is Identity's output shape.
type IdentityOut struct {
	Timestamp epoch.T
	Observed  epoch.T
}

// Repartition shuffles every record round-robin across workerCount
// logical partitions via runtime.Exchange, keyed by a rotating
// counter rather than record content — the "RoundRobin shuffling" the
// original leaves as a TODO, restored here since the operator library
// already has the Exchange primitive it needed.
func Repartition(downstream runtime.Stage[string], self, workerCount int) runtime.Stage[string] {
	var next uint64
	ex := runtime.NewExchange[string](workerCount, func(string) uint64 {
		n := next
		next++
		return n
	})
	return ex.Side(self, downstream)
}

// WordcountOut is Wordcount's output shape: an IP, the timestamp of
// the record that produced this count, and IP's running count.
type WordcountOut struct {
	IP    string
	TS    string
	Count int
}

// Wordcount projects each record to (ip, ts), shuffles on a hash of
// ip so same-IP records land on one worker, and maintains a running
// per-IP count.
func Wordcount(downstream runtime.Stage[WordcountOut], self, workerCount int) runtime.Stage[gen.Record] {
	type ipTS struct {
		ip string
		ts string
	}
	counted := operators.RollingCount(downstream, func(p ipTS) string { return p.ip },
		func(p ipTS, count int) WordcountOut { return WordcountOut{IP: p.ip, TS: p.ts, Count: count} })

	ex := runtime.NewExchange[ipTS](workerCount, func(p ipTS) uint64 { return xxhash.Sum64String(p.ip) })
	shuffled := ex.Side(self, counted)

	return operators.FilterMap(shuffled, func(r gen.Record) (ipTS, bool) {
		ip, ok := gen.GetIP(r.Payload)
		if !ok {
			return ipTS{}, false
		}
		return ipTS{ip: ip, ts: r.Timestamp}, true
	})
}

// FixwindowOut is Fixwindow's output shape: an IP's minimum observed
// timestamp and record count within its tumbling window.
type FixwindowOut struct {
	IP    string
	MinTS uint64
	Count int
}

type ipTimestamp struct {
	ip string
	ts uint64
}

// Fixwindow projects each record to (ip, parsed numeric timestamp),
// tumbles in windows of windowSize epochs, and reduces each window's
// records by IP into (min timestamp, count).
func Fixwindow(downstream runtime.Stage[FixwindowOut], windowSize int) runtime.Stage[gen.Record] {
	reduced := operators.Reduce[ipTimestamp, string, ipMinCount, FixwindowOut](downstream,
		func(p ipTimestamp) string { return p.ip },
		ipMinCount{},
		func(p ipTimestamp, acc ipMinCount) ipMinCount {
			if acc.count == 0 || p.ts < acc.min {
				acc.min = p.ts
			}
			acc.count++
			return acc
		},
		func(ip string, acc ipMinCount, _ int) FixwindowOut {
			return FixwindowOut{IP: ip, MinTS: acc.min, Count: acc.count}
		},
	)
	windowed := operators.TumblingWindow(reduced, windowSize)
	return operators.FilterMap(windowed, func(r gen.Record) (ipTimestamp, bool) {
		ip, ok := gen.GetIP(r.Payload)
		if !ok {
			return ipTimestamp{}, false
		}
		ts, err := strconv.ParseUint(r.Timestamp, 10, 64)
		if err != nil {
			return ipTimestamp{}, false
		}
		return ipTimestamp{ip: ip, ts: ts}, true
	})
}

type ipMinCount struct {
	min   uint64
	count int
}

// WindowSizeFrom reads the window-size config key shared by Fixwindow
// and several NEXMark queries.
func WindowSizeFrom(c *config.Config) int {
	return c.GetInt("window-size", 10)
}
