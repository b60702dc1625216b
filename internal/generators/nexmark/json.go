package nexmark

import (
	"encoding/json"
	"fmt"

	"github.com/estuary/streambench/internal/epoch"
)

// carrier mirrors the Rust source's EventCarrier: one line of the
// on-disk NEXMark file is {"time": <epoch>, "event": {...}}, tagging
// the event payload with its Kind under a "type" field the way
// serde's #[serde(tag = "type")] does for the three-variant enum.
type carrier struct {
	Time  epoch.T         `json:"time"`
	Event json.RawMessage `json:"event"`
}

type taggedEvent struct {
	Type string `json:"type"`
	Person
	Auction
	Bid
}

// MarshalEvent renders (t, e) as one NEXMark JSON line, for
// FileDrain/LineDrain.
func MarshalEvent(t epoch.T, e Event) string {
	var tagged taggedEvent
	switch e.Kind {
	case KindPerson:
		tagged = taggedEvent{Type: "Person", Person: e.Person}
	case KindAuction:
		tagged = taggedEvent{Type: "Auction", Auction: e.Auction}
	case KindBid:
		tagged = taggedEvent{Type: "Bid", Bid: e.Bid}
	}
	payload, _ := json.Marshal(tagged)
	out, _ := json.Marshal(carrier{Time: t, Event: payload})
	return string(out)
}

// UnmarshalEvent parses one NEXMark JSON line back into (t, e), for
// LineSource.
func UnmarshalEvent(line string) (epoch.T, Event, error) {
	var c carrier
	if err := json.Unmarshal([]byte(line), &c); err != nil {
		return 0, Event{}, fmt.Errorf("nexmark: decoding line: %w", err)
	}
	var tagged taggedEvent
	if err := json.Unmarshal(c.Event, &tagged); err != nil {
		return 0, Event{}, fmt.Errorf("nexmark: decoding event: %w", err)
	}
	switch tagged.Type {
	case "Person":
		return c.Time, Event{Kind: KindPerson, Person: tagged.Person}, nil
	case "Auction":
		return c.Time, Event{Kind: KindAuction, Auction: tagged.Auction}, nil
	case "Bid":
		return c.Time, Event{Kind: KindBid, Bid: tagged.Bid}, nil
	default:
		return 0, Event{}, fmt.Errorf("nexmark: unknown event type %q", tagged.Type)
	}
}
