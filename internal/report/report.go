// Package report renders a run's stats.Statistics to the console the
// way the CLI's `--report summary|latencies` mode requires: a short
// colorized summary by default, or the full latency breakdown when
// asked for detail.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/estuary/streambench/internal/stats"
)

// Mode selects how much detail Write prints.
type Mode string

const (
	Summary   Mode = "summary"
	Latencies Mode = "latencies"
)

// Write renders s under the given query name to w, in mode.
func Write(w io.Writer, mode Mode, query string, s stats.Statistics) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)

	title.Fprintf(w, "%s\n", query)
	fmt.Fprintf(w, "  %s %s over %s\n",
		label.Sprint("processed"),
		humanize.Comma(int64(s.Count)),
		label.Sprint("epochs"),
	)
	fmt.Fprintf(w, "  %s %s\n", label.Sprint("total"), s.Total)

	if mode != Latencies {
		return
	}
	fmt.Fprintf(w, "  %s min=%s max=%s avg=%s median=%s stddev=%s\n",
		label.Sprint("latency"),
		fmtDuration(s.Minimum), fmtDuration(s.Maximum), fmtDuration(s.Average),
		fmtDuration(s.Median), fmtDuration(s.Deviation),
	)
}

func fmtDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.String()
}
