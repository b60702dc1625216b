package operators

import (
	"sort"

	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/runtime"
)

// Session is the per-key session window. keyTimeOf extracts (key,
// slot) from each record; a session for a key stays open until
// timeout slots pass with no further record for that key, at which
// point it's emitted as a (key, records) pair. A late record that
// arrives within timeout slots of the key's most recent record
// extends that still-open session instead of starting a new one.
func Session[D any, K comparable](downstream runtime.Stage[KV[K, []D]], timeout int, keyTimeOf func(D) (K, epoch.T)) runtime.Stage[D] {
	type openSession struct {
		last epoch.T
		data []D
	}
	open := make(map[K]*openSession)
	// expireAt[t] holds the keys whose session is scheduled to be
	// checked for expiry when slot t closes, because t is `timeout`
	// slots past the last record seen for that key at the time the
	// notification was requested.
	expireAt := make(map[epoch.T][]K)
	var lastAdvanced epoch.T

	scheduleExpiry := func(k K, last epoch.T) {
		at := last + epoch.T(timeout)
		expireAt[at] = append(expireAt[at], k)
	}

	return runtime.StageFunc[D]{
		PushFunc: func(_ epoch.T, batch []D) {
			for _, d := range batch {
				k, slot := keyTimeOf(d)
				s, ok := open[k]
				if !ok {
					s = &openSession{last: slot}
					open[k] = s
				} else if slot > s.last {
					s.last = slot
				}
				s.data = append(s.data, d)
				scheduleExpiry(k, slot)
			}
		},
		AdvanceFunc: func(t epoch.T) {
			checkExpiry := func(at epoch.T, keys []K) {
				for _, k := range keys {
					s, ok := open[k]
					if !ok {
						continue
					}
					if s.last+epoch.T(timeout) > at {
						// A newer record for this key arrived since
						// this expiry was scheduled; it's covered by
						// a later-scheduled check instead.
						continue
					}
					delete(open, k)
					downstream.Push(at, []KV[K, []D]{{Key: k, Value: s.data}})
				}
			}
			// The final Advance of a run closes the frontier at
			// epoch.Infinity: scanning every intermediate slot up to
			// it would never terminate, and nothing could ever
			// schedule a later expiry past this point, so check
			// whatever expiries are still outstanding directly.
			if t == epoch.Infinity {
				pending := make([]epoch.T, 0, len(expireAt))
				for at := range expireAt {
					pending = append(pending, at)
				}
				sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
				for _, at := range pending {
					checkExpiry(at, expireAt[at])
				}
				expireAt = make(map[epoch.T][]K)
				lastAdvanced = t
				downstream.Advance(t)
				return
			}
			for at := lastAdvanced; at < t; at++ {
				keys, ok := expireAt[at]
				if !ok {
					continue
				}
				delete(expireAt, at)
				checkExpiry(at, keys)
			}
			lastAdvanced = t
			downstream.Advance(t)
		},
	}
}
