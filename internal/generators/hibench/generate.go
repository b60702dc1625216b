// Package hibench generates the CSV-ish (timestamp_text, payload_text)
// record pairs HiBench's four queries operate on, grounded on
// original_source/benchmarks/src/hibench.rs's get_ip parser and the
// sample lines documented in its comment header.
package hibench

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
)

// Record is one HiBench line, already split into its two columns: the
// leading timestamp text and the remaining comma-separated payload.
type Record struct {
	Timestamp string
	Payload   string
}

// GetIP recovers the IP field from a payload: the first comma-
// delimited column, following the Rust source's get_ip exactly
// (it also tolerates a leading run of whitespace-joined columns
// before the IP by searching for the last whitespace before the
// first comma, matching records like "0    1.2.3.4,session,...").
func GetIP(record string) (string, bool) {
	end := strings.IndexByte(record, ',')
	if end < 0 {
		return "", false
	}
	field := record[:end]
	start := strings.LastIndexFunc(field, func(r rune) bool { return r == ' ' || r == '\t' })
	return field[start+1:], true
}

var countries = []string{"USA", "GBR", "DEU", "FRA", "JPN", "YEM", "PRT", "DOM"}
var browsers = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X)",
	"Mozilla/5.0 (X11; Linux x86_64)",
}

// Generator is a deterministic HiBench source: each epoch (one
// second) it emits eventsPerEpoch records whose IPs are drawn from a
// fixed-size pool of ipPool synthetic addresses, each with a random
// session id, seeded by event index the same way the NEXMark
// generator is, so a run is reproducible.
type Generator struct {
	seconds        int
	eventsPerEpoch int
	ipPool         int
	epoch          int
	events         int
}

// NewGenerator builds a Generator from the recognized HiBench config
// keys.
func NewGenerator(c *config.Config) *Generator {
	return &Generator{
		seconds:        c.GetInt("seconds", 60),
		eventsPerEpoch: c.GetInt("events-per-second", 1000),
		ipPool:         c.GetInt("ips", 100),
	}
}

// Next implements endpoint.Source[Record]: one epoch's batch of
// eventsPerEpoch synthetic records, or ErrOutOfData once seconds have
// elapsed.
func (g *Generator) Next() (epoch.T, []Record, error) {
	if g.epoch >= g.seconds {
		return 0, nil, endpoint.ErrOutOfData
	}
	batch := make([]Record, g.eventsPerEpoch)
	for i := range batch {
		batch[i] = g.record(g.events)
		g.events++
	}
	t := epoch.T(g.epoch)
	g.epoch++
	return t, batch, nil
}

func (g *Generator) record(eventNumber int) Record {
	r := rand.New(rand.NewSource(int64(eventNumber)))
	ipN := r.Intn(g.ipPool)
	ip := fmt.Sprintf("10.%d.%d.%d", (ipN>>16)%256, (ipN>>8)%256, ipN%256)
	session := randomSession(r, 40)
	country := countries[r.Intn(len(countries))]
	browser := browsers[r.Intn(len(browsers))]
	frac := r.Float64()
	payload := fmt.Sprintf("%s,%s,%.7f,%s,%s,word%d,%d", ip, session, frac, browser, country, r.Intn(1000), r.Intn(10))
	return Record{Timestamp: strconv.Itoa(g.epoch), Payload: payload}
}

func randomSession(r *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

// ToLine decodes one on-disk HiBench line — space-separated timestamp
// then the comma-joined payload — into (epoch, Record).
func ToLine(line string) (epoch.T, Record, error) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return 0, Record{}, fmt.Errorf("hibench: malformed line %q", line)
	}
	tsText := strings.TrimSpace(line[:sp])
	payload := strings.TrimSpace(line[sp+1:])
	t, err := strconv.ParseUint(tsText, 10, 64)
	if err != nil {
		return 0, Record{}, fmt.Errorf("hibench: parsing timestamp: %w", err)
	}
	return epoch.T(t), Record{Timestamp: tsText, Payload: payload}, nil
}

// FromLine renders a Record back to its on-disk form.
func FromLine(t epoch.T, rec Record) string {
	return fmt.Sprintf("%-4d %s", t, rec.Payload)
}
