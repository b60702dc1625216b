package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/driver"
	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
	genhib "github.com/estuary/streambench/internal/generators/hibench"
	gennex "github.com/estuary/streambench/internal/generators/nexmark"
	genysb "github.com/estuary/streambench/internal/generators/ysb"
	"github.com/estuary/streambench/internal/opslog"
	qhib "github.com/estuary/streambench/internal/queries/hibench"
	qnex "github.com/estuary/streambench/internal/queries/nexmark"
	qysb "github.com/estuary/streambench/internal/queries/ysb"
	"github.com/estuary/streambench/internal/report"
	"github.com/estuary/streambench/internal/runtime"
	"github.com/estuary/streambench/internal/stats"
)

func durationOf(ns int64) time.Duration { return time.Duration(ns) }

// testCase is one named query, fully bound to a concrete data shape
// inside its run closure — the registry itself stays untyped so
// HiBench/YSB/NEXMark queries, each with their own record and output
// types, can sit side by side in one selection table.
type testCase struct {
	suite string
	name  string
	run   func(c *config.Config, workerIndex, workerCount int, log opslog.Logger) (driver.Result, error)
}

func runTests(c *config.Config) error {
	cases := allTestCases()
	reportMode := report.Mode(c.GetOr("report", "summary"))
	threads := c.GetInt("threads", 1)

	ran := false
	for _, tc := range cases {
		if !matches(c, "benchmarks", tc.suite) || !matches(c, "tests", tc.name) {
			continue
		}
		ran = true
		log := opslog.New().WithField("query", tc.name)

		results := make([]driver.Result, threads)
		errs := make([]error, threads)
		var wg sync.WaitGroup
		for worker := 0; worker < threads; worker++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				results[worker], errs[worker] = tc.run(c, worker, threads, opslog.ForWorker(worker, threads).WithField("query", tc.name))
			}(worker)
		}
		wg.Wait()

		allStats := make([]stats.Statistics, 0, threads)
		for worker, err := range errs {
			if err != nil {
				return fmt.Errorf("%s/%s worker %d: %w", tc.suite, tc.name, worker, err)
			}
			allStats = append(allStats, results[worker].Stats)
			log.Debugf("worker %d processed %d epochs", worker, results[worker].Epochs)
		}
		report.Write(os.Stdout, reportMode, tc.suite+"/"+tc.name, mergeStats(allStats))
	}
	if !ran {
		return fmt.Errorf("configuration error: no query matched --benchmarks/--tests")
	}
	return nil
}

// mergeStats combines every worker's Statistics into one report-level
// block. Workers run concurrently, so Total (the wall span of the
// whole query) is the max across workers rather than a sum; Count
// sums directly; Average/Median/Deviation are count-weighted
// approximations across workers rather than a re-reduction over the
// original per-epoch samples, which this report layer no longer has.
func mergeStats(all []stats.Statistics) stats.Statistics {
	var merged stats.Statistics
	var weightedAvg, weightedMedian, weightedDev int64
	for _, s := range all {
		merged.Count += s.Count
		if s.Total > merged.Total {
			merged.Total = s.Total
		}
		if s.Minimum > 0 && (merged.Minimum == 0 || s.Minimum < merged.Minimum) {
			merged.Minimum = s.Minimum
		}
		if s.Maximum > merged.Maximum {
			merged.Maximum = s.Maximum
		}
		weightedAvg += int64(s.Average) * int64(s.Count)
		weightedMedian += int64(s.Median) * int64(s.Count)
		weightedDev += int64(s.Deviation) * int64(s.Count)
	}
	if merged.Count > 0 {
		merged.Average = durationOf(weightedAvg / int64(merged.Count))
		merged.Median = durationOf(weightedMedian / int64(merged.Count))
		merged.Deviation = durationOf(weightedDev / int64(merged.Count))
	}
	return merged
}

// openInputFile resolves --input-file, falling back to a suite's
// default generated-data path under --data-dir when the flag is
// absent — so `test --input file` works against data a prior
// `generate` run already produced.
func openInputFile(c *config.Config, suite, ext string, workerIndex int) string {
	if p, ok := c.Get("input-file"); ok {
		return p
	}
	dataDir := c.GetOr("data-dir", "data")
	return filepath.Join(dataDir, suite, "events-"+strconv.Itoa(workerIndex)+ext)
}

func outputFilePath(c *config.Config, workerIndex int) string {
	if p, ok := c.Get("output-file"); ok {
		return p
	}
	return filepath.Join(c.GetOr("data-dir", "data"), "out-"+strconv.Itoa(workerIndex)+".txt")
}

// offsetForWorker copies the known workload keys of c into a new
// Config, with first-event-id shifted by workerIndex*1_000_000 so
// that concurrent NEXMark workers in one process don't generate
// byte-identical synthetic streams. Only the NEXMark generator reads
// first-event-id; HiBench and YSB workers still generate identical
// streams. Exact non-overlapping coverage across workers is not
// guaranteed by this scheme — see DESIGN.md.
func offsetForWorker(c *config.Config, workerIndex int) *config.Config {
	shifted := config.New()
	base := c.GetInt("first-event-id", 0)
	shifted.Insert("first-event-id", strconv.Itoa(base+workerIndex*1_000_000))
	for _, key := range []string{
		"seconds", "events-per-second", "first-event-rate", "next-event-rate", "us-per-unit",
		"rate-period", "rate-shape", "active-people", "in-flight-auctions", "out-of-order-group-size",
		"hot-seller-ratio", "hot-auction-ratio", "hot-bidder-ratio", "auction-skip", "threads",
		"window-size", "window-slide", "ips", "ads", "base-time", "data-dir",
	} {
		if v, ok := c.Get(key); ok {
			shifted.Insert(key, v)
		}
	}
	return shifted
}

// defaultRender renders any value as one JSON line — the fallback
// FromData used by every query whose output shape has no
// suite-specific on-disk format of its own.
func defaultRender[D any](_ epoch.T, d D) string {
	b, _ := json.Marshal(d)
	return string(b)
}

// resolveSource picks the Source implementation named by --input:
// null for a smoke test of the plumbing, console/file for replaying a
// previously captured line stream, kafka for a broker this harness
// doesn't ship a client for, or generated (the default) for the
// suite's own synthetic data generator.
func resolveSource[D any](c *config.Config, suite, ext string, workerIndex int, decode endpoint.ToData[D], generated func(*config.Config) endpoint.Source[D]) (endpoint.Source[D], func() error, error) {
	noop := func() error { return nil }
	switch c.GetOr("input", "generated") {
	case "null":
		return endpoint.NullSource[D](), noop, nil
	case "console":
		return endpoint.ConsoleSource[D](decode), noop, nil
	case "kafka":
		return endpoint.KafkaSource[D](), noop, nil
	case "file":
		path := openInputFile(c, suite, ext, workerIndex)
		src, f, err := endpoint.OpenFileSource[D](path, decode)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}
		return src, f.Close, nil
	default:
		return generated(c), noop, nil
	}
}

// resolveDrain picks the Drain implementation named by --output: null
// to discard, console/file to persist the rendered line stream, meter
// to report per-epoch batch counts through opslog/Prometheus instead
// of the records themselves, or kafka — recognized but rejected here
// rather than handed back as a Drain that would only panic on first
// Push.
func resolveDrain[D any](c *config.Config, workerIndex int, query string, render endpoint.FromData[D], log opslog.Logger) (endpoint.Drain[D], func() error, error) {
	noop := func() error { return nil }
	switch c.GetOr("output", "null") {
	case "console":
		return endpoint.ConsoleDrain[D](render), noop, nil
	case "kafka":
		return nil, nil, endpoint.ErrKafkaUnconfigured
	case "file":
		path := outputFilePath(c, workerIndex)
		d, err := endpoint.CreateFileDrain[D](path, render)
		if err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", path, err)
		}
		return d, d.Close, nil
	case "meter":
		return endpoint.NewMeterDrain[D](query, log), noop, nil
	default:
		return endpoint.NullDrain[D](), noop, nil
	}
}

// runQuery is the one general-purpose shape every testCase.run closure
// below is built from: resolve this worker's source and drain from the
// shared config, wire them through build, and drive them to
// completion. It's generic over the query's input record type D and
// output record type DO so every suite's queries, despite having
// unrelated shapes, share this one assembly path.
func runQuery[D, DO any](
	c *config.Config, workerIndex, workerCount int, log opslog.Logger,
	suite, ext, query string,
	decode endpoint.ToData[D], generated func(*config.Config) endpoint.Source[D],
	render endpoint.FromData[DO],
	build func(sink runtime.Stage[DO]) runtime.Stage[D],
) (driver.Result, error) {
	wc := offsetForWorker(c, workerIndex)

	src, closeSrc, err := resolveSource[D](wc, suite, ext, workerIndex, decode, generated)
	if err != nil {
		return driver.Result{}, err
	}
	defer closeSrc()

	drain, closeDrain, err := resolveDrain[DO](c, workerIndex, query, render, log)
	if err != nil {
		return driver.Result{}, err
	}
	defer closeDrain()

	return driver.Run[D, DO](log, src, drain, build)
}

// nexmarkSource adapts *gen.Generator to endpoint.Source[gen.Event]
// without a wrapper — the generator already implements Next() in that
// exact shape.
func nexmarkSource(c *config.Config) endpoint.Source[gennex.Event] { return gennex.NewGenerator(c) }
func hibenchSource(c *config.Config) endpoint.Source[genhib.Record] { return genhib.NewGenerator(c) }
func ysbSource(c *config.Config) endpoint.Source[genysb.Event]     { return genysb.NewGenerator(c) }

// hibenchLineSource reconstitutes the on-disk HiBench line text
// itself (rather than the parsed Record) for Repartition, which
// shuffles raw lines and doesn't care about their structure.
func hibenchLineSource(c *config.Config) endpoint.Source[string] {
	g := genhib.NewGenerator(c)
	return endpoint.SourceFunc[string](func() (epoch.T, []string, error) {
		t, batch, err := g.Next()
		if err != nil {
			return 0, nil, err
		}
		lines := make([]string, len(batch))
		for i, r := range batch {
			lines[i] = genhib.FromLine(t, r)
		}
		return t, lines, nil
	})
}

func decodeHibenchLine(line string) (epoch.T, string, error) {
	t, rec, err := genhib.ToLine(line)
	if err != nil {
		return 0, "", err
	}
	return t, genhib.FromLine(t, rec), nil
}

func renderLine(_ epoch.T, s string) string { return s }

// allTestCases registers every benchmark query this build knows about,
// one entry per suite/name pair, each fully bound to its own record
// and output types inside its run closure.
func allTestCases() []testCase {
	var cases []testCase
	add := func(suite, name string, run func(c *config.Config, workerIndex, workerCount int, log opslog.Logger) (driver.Result, error)) {
		cases = append(cases, testCase{suite: suite, name: name, run: run})
	}

	add("nexmark", "q0", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, gennex.Event](c, wi, wc, log, "nexmark", ".json", "nexmark/q0",
			gennex.UnmarshalEvent, nexmarkSource, gennex.MarshalEvent,
			func(sink runtime.Stage[gennex.Event]) runtime.Stage[gennex.Event] { return qnex.Q0(sink) })
	})
	add("nexmark", "q1", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Bid1Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q1",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Bid1Out],
			func(sink runtime.Stage[qnex.Bid1Out]) runtime.Stage[gennex.Event] { return qnex.Q1(sink) })
	})
	add("nexmark", "q2", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Bid2Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q2",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Bid2Out],
			func(sink runtime.Stage[qnex.Bid2Out]) runtime.Stage[gennex.Event] { return qnex.Q2(sink, c) })
	})
	add("nexmark", "q3", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q3Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q3",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q3Out],
			func(sink runtime.Stage[qnex.Q3Out]) runtime.Stage[gennex.Event] {
				auctions, persons := qnex.Q3(sink)
				return runtime.Tee[gennex.Event](auctions, persons)
			})
	})
	add("nexmark", "q4", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q4Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q4",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q4Out],
			func(sink runtime.Stage[qnex.Q4Out]) runtime.Stage[gennex.Event] {
				auctions, bids := qnex.Q4(sink)
				return runtime.Tee[gennex.Event](auctions, bids)
			})
	})
	add("nexmark", "q5", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q5Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q5",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q5Out],
			func(sink runtime.Stage[qnex.Q5Out]) runtime.Stage[gennex.Event] { return qnex.Q5(sink, c) })
	})
	add("nexmark", "q6", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q6Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q6",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q6Out],
			func(sink runtime.Stage[qnex.Q6Out]) runtime.Stage[gennex.Event] {
				auctions, bids := qnex.Q6(sink)
				return runtime.Tee[gennex.Event](auctions, bids)
			})
	})
	add("nexmark", "q7", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q7Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q7",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q7Out],
			func(sink runtime.Stage[qnex.Q7Out]) runtime.Stage[gennex.Event] { return qnex.Q7(sink, c) })
	})
	add("nexmark", "q8", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q8Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q8",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q8Out],
			func(sink runtime.Stage[qnex.Q8Out]) runtime.Stage[gennex.Event] {
				persons, auctions := qnex.Q8(sink, c)
				return runtime.Tee[gennex.Event](persons, auctions)
			})
	})
	add("nexmark", "q9", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.HotBid](c, wi, wc, log, "nexmark", ".json", "nexmark/q9",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.HotBid],
			func(sink runtime.Stage[qnex.HotBid]) runtime.Stage[gennex.Event] {
				auctions, bids := qnex.Q9(sink)
				return runtime.Tee[gennex.Event](auctions, bids)
			})
	})
	add("nexmark", "q11", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[gennex.Event, qnex.Q11Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q11",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q11Out],
			func(sink runtime.Stage[qnex.Q11Out]) runtime.Stage[gennex.Event] { return qnex.Q11(sink) })
	})
	add("nexmark", "q12", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		wallClockSlot := func() epoch.T { return epoch.T(time.Now().Unix()) }
		return runQuery[gennex.Event, qnex.Q11Out](c, wi, wc, log, "nexmark", ".json", "nexmark/q12",
			gennex.UnmarshalEvent, nexmarkSource, defaultRender[qnex.Q11Out],
			func(sink runtime.Stage[qnex.Q11Out]) runtime.Stage[gennex.Event] { return qnex.Q12(sink, wallClockSlot) })
	})

	add("hibench", "identity", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		wallClock := func() epoch.T { return epoch.T(time.Now().Unix()) }
		return runQuery[genhib.Record, qhib.IdentityOut](c, wi, wc, log, "hibench", ".csv", "hibench/identity",
			genhib.ToLine, hibenchSource, defaultRender[qhib.IdentityOut],
			func(sink runtime.Stage[qhib.IdentityOut]) runtime.Stage[genhib.Record] { return qhib.Identity(sink, wallClock) })
	})
	add("hibench", "repartition", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[string, string](c, wi, wc, log, "hibench", ".csv", "hibench/repartition",
			decodeHibenchLine, hibenchLineSource, renderLine,
			func(sink runtime.Stage[string]) runtime.Stage[string] { return qhib.Repartition(sink, wi, wc) })
	})
	add("hibench", "wordcount", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[genhib.Record, qhib.WordcountOut](c, wi, wc, log, "hibench", ".csv", "hibench/wordcount",
			genhib.ToLine, hibenchSource, defaultRender[qhib.WordcountOut],
			func(sink runtime.Stage[qhib.WordcountOut]) runtime.Stage[genhib.Record] { return qhib.Wordcount(sink, wi, wc) })
	})
	add("hibench", "fixwindow", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		return runQuery[genhib.Record, qhib.FixwindowOut](c, wi, wc, log, "hibench", ".csv", "hibench/fixwindow",
			genhib.ToLine, hibenchSource, defaultRender[qhib.FixwindowOut],
			func(sink runtime.Stage[qhib.FixwindowOut]) runtime.Stage[genhib.Record] {
				return qhib.Fixwindow(sink, qhib.WindowSizeFrom(c))
			})
	})

	add("ysb", "campaign-count", func(c *config.Config, wi, wc int, log opslog.Logger) (driver.Result, error) {
		table := genysb.BuildCampaignTable(c.GetInt("ads", 100))
		return runQuery[genysb.Event, qysb.Out](c, wi, wc, log, "ysb", ".json", "ysb/campaign-count",
			genysb.ToLine, ysbSource, defaultRender[qysb.Out],
			func(sink runtime.Stage[qysb.Out]) runtime.Stage[genysb.Event] { return qysb.Query(sink, table, c) })
	})

	return cases
}
