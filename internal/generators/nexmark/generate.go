package nexmark

import (
	goconfig "github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
)

// newEvent builds the events-so-far'th event: the out-of-order
// adjustment picks which absolute event number actually gets
// generated, the adjusted number's timestamp and id follow from it,
// and a fresh per-event RNG seeded on that id decides the record's
// kind and every randomized field — nothing here depends on any
// other event, so generation needs no shared state across partitions.
func newEvent(eventsSoFar int, nex Config) Event {
	adjusted := nex.NextAdjustedEvent(eventsSoFar)
	rem := adjusted % proportionDenominator
	timestamp := nex.EventTimestamp(adjusted)
	id := Id(nex.FirstEventID + adjusted)
	r := newRNG(id)

	switch {
	case rem < personProportion:
		return Event{Kind: KindPerson, Person: newPerson(id, timestamp, r)}
	case rem < personProportion+auctionProportion:
		return Event{Kind: KindAuction, Auction: newAuction(eventsSoFar, id, timestamp, r, nex)}
	default:
		return Event{Kind: KindBid, Bid: newBid(id, timestamp, r, nex)}
	}
}

// Generator is a deterministic, stateless-besides-a-counter
// endpoint.Source[Event]: each call to Next advances the event
// counter and emits every event that falls in the current wall-clock
// second before that second's events-per-epoch window is exhausted,
// mirroring the Rust source's NEXMarkGenerator::next batching.
type Generator struct {
	cfg     Config
	events  int
	seconds int
}

// NewGenerator builds a Generator from the process Config's
// recognized NEXMark keys.
func NewGenerator(c *goconfig.Config) *Generator {
	return &Generator{cfg: NewConfig(c), seconds: c.GetInt("seconds", 60)}
}

// Next implements endpoint.Source[Event]: it returns one epoch's
// worth of events (epoch = seconds since base-time), or ErrOutOfData
// once the configured run length has elapsed.
func (g *Generator) Next() (epoch.T, []Event, error) {
	firstEventNumber := g.events + g.cfg.FirstEventID
	e := (g.cfg.EventTimestamp(firstEventNumber) - g.cfg.BaseTime) / 1000

	var data []Event
	for {
		t := g.cfg.EventTimestamp(g.events + g.cfg.FirstEventID)
		nextEpoch := (t - g.cfg.BaseTime) / 1000
		event := newEvent(g.events, g.cfg)

		if int(nextEpoch) < g.seconds && nextEpoch == e {
			g.events++
			data = append(data, event)
		} else {
			break
		}
	}

	if len(data) == 0 {
		return 0, nil, endpoint.ErrOutOfData
	}
	return epoch.T(e), data, nil
}
