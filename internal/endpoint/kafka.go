package endpoint

import (
	"fmt"

	"github.com/estuary/streambench/internal/epoch"
)

// ErrKafkaUnconfigured is returned by the `kafka` source/drain variant:
// this harness recognizes Kafka's place in the endpoint taxonomy but
// does not ship a broker client. Selecting it is a configuration
// error, not a silent no-op.
var ErrKafkaUnconfigured = fmt.Errorf("kafka endpoint requested but no broker client is configured")

// KafkaSource always fails with ErrKafkaUnconfigured on first Next.
func KafkaSource[D any]() Source[D] {
	return SourceFunc[D](func() (epoch.T, []D, error) {
		return 0, nil, ErrKafkaUnconfigured
	})
}

// KafkaDrain panics if pushed to. resolveDrain rejects the `kafka`
// output variant with ErrKafkaUnconfigured before ever constructing
// one; it's exported so a future broker-backed implementation has an
// obvious drop-in replacement, and so the variant's failure mode is
// exercised directly in tests without going through the CLI plumbing.
func KafkaDrain[D any]() Drain[D] {
	return DrainFunc[D](func(epoch.T, []D) {
		panic("kafka drain selected without a broker client")
	})
}
