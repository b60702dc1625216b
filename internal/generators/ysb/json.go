package ysb

import (
	"encoding/json"
	"fmt"

	"github.com/estuary/streambench/internal/epoch"
)

// eventJSON is the on-disk shape of one NDJSON line under
// {data-dir}/ysb/events-{partition}.json.
type eventJSON struct {
	UserID      string `json:"user_id"`
	PageID      string `json:"page_id"`
	AdID        string `json:"ad_id"`
	AdType      string `json:"ad_type"`
	EventType   string `json:"event_type"`
	EventTimeMs uint64 `json:"event_time_ms"`
	IPAddress   string `json:"ip_address"`
}

// ToLine decodes one NDJSON Event line. Epoch is derived from
// event_time_ms/1000, matching the driver-facing convention every
// other endpoint in this package uses.
func ToLine(line string) (epoch.T, Event, error) {
	var e eventJSON
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return 0, Event{}, fmt.Errorf("ysb: decoding event: %w", err)
	}
	ev := Event{
		UserID: e.UserID, PageID: e.PageID, AdID: e.AdID, AdType: e.AdType,
		EventType: e.EventType, EventTimeMs: e.EventTimeMs, IPAddress: e.IPAddress,
	}
	return epoch.T(e.EventTimeMs / 1000), ev, nil
}

// FromLine renders an Event back to its NDJSON form.
func FromLine(_ epoch.T, ev Event) string {
	out, _ := json.Marshal(eventJSON{
		UserID: ev.UserID, PageID: ev.PageID, AdID: ev.AdID, AdType: ev.AdType,
		EventType: ev.EventType, EventTimeMs: ev.EventTimeMs, IPAddress: ev.IPAddress,
	})
	return string(out)
}

// MarshalCampaigns renders a CampaignTable as the campaigns.json
// object spec.md's persisted-state layout names.
func MarshalCampaigns(t CampaignTable) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// UnmarshalCampaigns parses a campaigns.json object back into a
// CampaignTable.
func UnmarshalCampaigns(data []byte) (CampaignTable, error) {
	var t CampaignTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("ysb: decoding campaigns table: %w", err)
	}
	return t, nil
}
