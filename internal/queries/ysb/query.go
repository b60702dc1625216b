// Package ysb wires the single Yahoo Streaming Benchmark query: view
// events projected to their campaign, tumbled into windows of
// window-size epochs (seconds), reduced to a per-campaign count.
package ysb

import (
	"github.com/estuary/streambench/internal/config"
	gen "github.com/estuary/streambench/internal/generators/ysb"
	"github.com/estuary/streambench/internal/operators"
	"github.com/estuary/streambench/internal/runtime"
)

// Out is the query's output shape: a campaign and how many "view"
// events it accrued within one tumbling window.
type Out struct {
	CampaignID string
	Count      int
}

// Query filters to view events, looks up each ad's campaign via the
// process-local, read-only table built at worker startup, tumbles by
// windowSize seconds, and reduces by campaign into a count.
func Query(downstream runtime.Stage[Out], table gen.CampaignTable, c *config.Config) runtime.Stage[gen.Event] {
	windowSize := c.GetInt("window-size", 10)

	reduced := operators.ReduceBy(
		operators.Map(downstream, func(kv operators.KV[string, int]) Out { return Out{CampaignID: kv.Key, Count: kv.Value} }),
		func(campaignID string) string { return campaignID },
		0,
		func(_ string, count int) int { return count + 1 },
	)
	windowed := operators.TumblingWindow(reduced, windowSize)
	return operators.FilterMap(windowed, func(e gen.Event) (string, bool) {
		if e.EventType != "view" {
			return "", false
		}
		campaignID, ok := table[e.AdID]
		return campaignID, ok
	})
}
