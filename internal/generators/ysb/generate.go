// Package ysb generates the Yahoo Streaming Benchmark's Event record
// and its ad_id -> campaign_id lookup table, per spec.md §4.3/§6.
package ysb

import (
	"fmt"
	"math/rand"

	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
)

// Event is one YSB ad-click-stream record.
type Event struct {
	UserID      string
	PageID      string
	AdID        string
	AdType      string
	EventType   string
	EventTimeMs uint64
	IPAddress   string
}

var adTypes = []string{"banner", "modal", "sponsored-search", "mail", "mobile"}
var eventTypes = []string{"view", "click", "purchase"}

// CampaignTable maps ad_id to campaign_id; built once at worker
// startup and treated as read-only for the rest of the run, per
// spec.md's "immutable run-wide state" design note.
type CampaignTable map[string]string

// BuildCampaignTable derives a deterministic ad_id -> campaign_id
// mapping for numAds ads grouped into campaigns of a fixed size, so
// every worker constructs the identical table without coordination.
func BuildCampaignTable(numAds int) CampaignTable {
	const adsPerCampaign = 10
	table := make(CampaignTable, numAds)
	for i := 0; i < numAds; i++ {
		adID := fmt.Sprintf("ad-%d", i)
		campaignID := fmt.Sprintf("campaign-%d", i/adsPerCampaign)
		table[adID] = campaignID
	}
	return table
}

// Generator is a deterministic YSB source: each epoch (one second) it
// emits eventsPerEpoch ad-click events drawn from a fixed pool of
// ads/pages/users/ips, seeded by event index.
type Generator struct {
	seconds        int
	eventsPerEpoch int
	numAds         int
	numPages       int
	epoch          int
	events         int
}

// NewGenerator builds a Generator from the recognized YSB config keys.
func NewGenerator(c *config.Config) *Generator {
	return &Generator{
		seconds:        c.GetInt("seconds", 60),
		eventsPerEpoch: c.GetInt("events-per-second", 1000),
		numAds:         c.GetInt("ads", 100),
		numPages:       c.GetInt("ips", 100),
	}
}

// Next implements endpoint.Source[Event].
func (g *Generator) Next() (epoch.T, []Event, error) {
	if g.epoch >= g.seconds {
		return 0, nil, endpoint.ErrOutOfData
	}
	batch := make([]Event, g.eventsPerEpoch)
	for i := range batch {
		batch[i] = g.event(g.events, uint64(g.epoch)*1000+uint64(i%1000))
		g.events++
	}
	t := epoch.T(g.epoch)
	g.epoch++
	return t, batch, nil
}

func (g *Generator) event(eventNumber int, timeMs uint64) Event {
	r := rand.New(rand.NewSource(int64(eventNumber)))
	return Event{
		UserID:      fmt.Sprintf("user-%d", r.Intn(10_000)),
		PageID:      fmt.Sprintf("page-%d", r.Intn(g.numPages)),
		AdID:        fmt.Sprintf("ad-%d", r.Intn(g.numAds)),
		AdType:      adTypes[r.Intn(len(adTypes))],
		EventType:   eventTypes[r.Intn(len(eventTypes))],
		EventTimeMs: timeMs,
		IPAddress:   fmt.Sprintf("10.%d.%d.%d", r.Intn(256), r.Intn(256), r.Intn(256)),
	}
}
