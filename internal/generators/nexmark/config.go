package nexmark

import (
	"math"

	"github.com/estuary/streambench/internal/config"
)

type rateShape int

const (
	rateSquare rateShape = iota
	rateSine
)

// Config holds the derived rate-shape arithmetic a Generator needs to
// place every event at its exact timestamp and, from that, recover
// which epoch it belongs to. It is built once per worker from the
// process Config and is otherwise immutable and safe to share.
type Config struct {
	ActivePeople         int
	InFlightAuctions     int
	OutOfOrderGroupSize  int
	HotSellerRatio       int
	HotAuctionRatio      int
	HotBidderRatio       int
	FirstEventID         int
	FirstEventNumber     int
	BaseTime             uint64
	StepLength           int
	EventsPerEpoch       int
	EpochPeriod          float64
	InterEventDelays     []float64
}

// NewConfig derives rate-shape timing from the recognized NEXMark
// config keys, following the Rust source's NEXMarkConfig::new exactly:
// inter-event delays are computed first (as a Square two-point or Sine
// ten-point approximation), then events-per-epoch and epoch-period
// fall out of summing cycle lengths over those delays.
func NewConfig(c *config.Config) Config {
	shape := rateSine
	if c.GetOr("rate-shape", "sine") != "sine" {
		shape = rateSquare
	}

	firstRate := c.GetInt("first-event-rate", c.GetInt("events-per-second", 10_000))
	nextRate := c.GetInt("next-event-rate", firstRate)
	usPerUnit := c.GetInt("us-per-unit", 1_000_000)
	generators := float64(c.GetInt("threads", 1))
	rateToPeriod := func(r int) float64 { return float64(usPerUnit) / float64(r) }

	var delays []float64
	if firstRate == nextRate {
		delays = append(delays, rateToPeriod(firstRate)*generators)
	} else if shape == rateSquare {
		delays = append(delays, rateToPeriod(firstRate)*generators)
		delays = append(delays, rateToPeriod(nextRate)*generators)
	} else {
		mid := float64(firstRate+nextRate) / 2.0
		amp := float64(firstRate-nextRate) / 2.0
		for i := 0; i < sineApproxSteps; i++ {
			r := (2.0 * math.Pi * float64(i)) / float64(sineApproxSteps)
			rate := mid + amp*math.Cos(r)
			delays = append(delays, rateToPeriod(int(math.Round(rate)))*generators)
		}
	}

	n := sineApproxSteps
	if shape == rateSquare {
		n = 2
	}
	ratePeriod := c.GetInt("rate-period", 600)
	stepLength := (ratePeriod + n - 1) / n

	eventsPerEpoch := 0
	epochPeriod := 0.0
	if len(delays) > 1 {
		for _, d := range delays {
			numEvents := (float64(stepLength) * 1_000_000) / d
			eventsPerEpoch += int(math.Round(numEvents))
			epochPeriod += (numEvents * d) / 1000.0
		}
	}

	return Config{
		ActivePeople:        c.GetInt("active-people", 1000),
		InFlightAuctions:    c.GetInt("in-flight-auctions", 100),
		OutOfOrderGroupSize: c.GetInt("out-of-order-group-size", 1),
		HotSellerRatio:      c.GetInt("hot-seller-ratio", 4),
		HotAuctionRatio:     c.GetInt("hot-auction-ratio", 2),
		HotBidderRatio:      c.GetInt("hot-bidder-ratio", 4),
		FirstEventID:        c.GetInt("first-event-id", 0),
		FirstEventNumber:    c.GetInt("first-event-number", 0),
		BaseTime:            c.GetUint64("base-time", BaseTime),
		StepLength:          stepLength,
		EventsPerEpoch:      eventsPerEpoch,
		EpochPeriod:         epochPeriod,
		InterEventDelays:    delays,
	}
}

// EventTimestamp returns the wall-clock millisecond timestamp for the
// given absolute event number, following the single-rate fast path or
// the piecewise-linear multi-rate cycle depending on how many delay
// samples the config carries.
func (nex Config) EventTimestamp(eventNumber int) uint64 {
	if len(nex.InterEventDelays) == 1 {
		return nex.BaseTime + uint64(math.Round((float64(eventNumber)*nex.InterEventDelays[0])/1000.0))
	}

	epoch := eventNumber / nex.EventsPerEpoch
	eventI := eventNumber % nex.EventsPerEpoch
	offsetInEpoch := 0.0
	for _, delay := range nex.InterEventDelays {
		numEvents := (float64(nex.StepLength) * 1_000_000) / delay
		if nex.OutOfOrderGroupSize < int(math.Round(numEvents)) {
			offsetInCycle := float64(eventI) * delay
			return nex.BaseTime + uint64(math.Round(float64(epoch)*nex.EpochPeriod+offsetInEpoch+offsetInCycle/1000.0))
		}
		eventI -= int(math.Round(numEvents))
		offsetInEpoch += (numEvents * delay) / 1000.0
	}
	return 0
}

// NextAdjustedEvent reorders event numbers within out-of-order groups
// of size n: within each group of n consecutive event numbers, events
// are emitted in an order determined by (eventNumber*953)%n, producing
// a deterministic bounded amount of out-of-orderness.
func (nex Config) NextAdjustedEvent(eventsSoFar int) int {
	n := nex.OutOfOrderGroupSize
	eventNumber := nex.FirstEventNumber + eventsSoFar
	return (eventNumber/n)*n + (eventNumber*953)%n
}
