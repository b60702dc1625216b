// Package endpoint is the boundary between the outside world and the
// runtime's epoch discipline: pluggable sources feed (epoch, batch)
// pairs into a dataflow, pluggable drains absorb the closed-epoch
// output. Every concrete Source/Drain here is a small adapter around
// the corresponding OS resource (stdin, a file, a null sink), matching
// the single-method contract the engine actually needs.
package endpoint

import "github.com/estuary/streambench/internal/epoch"

// ErrOutOfData is the well-known, non-fatal failure a Source returns
// once it has no more records to produce. The driver treats it as
// clean termination for that worker, not an error.
var ErrOutOfData = outOfData{}

type outOfData struct{}

func (outOfData) Error() string { return "out of data" }

// IsOutOfData reports whether err is the sentinel out-of-data
// condition (as opposed to a fatal parse or I/O error).
func IsOutOfData(err error) bool {
	_, ok := err.(outOfData)
	return ok
}

// Source produces one closed-epoch batch per call to Next, in
// non-decreasing epoch order. A single call never spans more than one
// logical epoch, except for the deliberate epoch-leak quirk some
// line-oriented sources preserve — see LineSource.
type Source[D any] interface {
	Next() (epoch.T, []D, error)
}

// Drain accepts the closed-epoch output batch. Side effects must be
// synchronous within Push; there is no back-pressure channel, so a
// Drain is expected to be fast relative to the pipeline.
type Drain[D any] interface {
	Push(t epoch.T, batch []D)
}

// ToData decodes one line of text into a record tagged with its
// epoch. A decode failure is fatal — the driver does not retry or
// skip malformed input.
type ToData[D any] func(line string) (epoch.T, D, error)

// FromData renders one record, at its epoch, back to a line of text.
type FromData[D any] func(t epoch.T, d D) string

// SourceFunc adapts a plain function into a Source.
type SourceFunc[D any] func() (epoch.T, []D, error)

func (f SourceFunc[D]) Next() (epoch.T, []D, error) { return f() }

// DrainFunc adapts a plain function into a Drain.
type DrainFunc[D any] func(t epoch.T, batch []D)

func (f DrainFunc[D]) Push(t epoch.T, batch []D) { f(t, batch) }

// NullSource produces no data; it is the `null` input variant, used
// for smoke tests of the driver plumbing without any real generator.
func NullSource[D any]() Source[D] {
	return SourceFunc[D](func() (epoch.T, []D, error) {
		return 0, nil, ErrOutOfData
	})
}

// NullDrain discards everything pushed to it; the `null` output
// variant.
func NullDrain[D any]() Drain[D] {
	return DrainFunc[D](func(epoch.T, []D) {})
}

// VectorSource replays a pre-built, already epoch-grouped sequence of
// batches — the `vector` (internal) input variant used by unit tests
// that don't want to exercise the line-batching logic at all.
func VectorSource[D any](batches []Batch[D]) Source[D] {
	i := 0
	return SourceFunc[D](func() (epoch.T, []D, error) {
		if i >= len(batches) {
			return 0, nil, ErrOutOfData
		}
		b := batches[i]
		i++
		return b.T, b.Data, nil
	})
}

// Batch pairs an epoch with the records that share it; used to seed a
// VectorSource.
type Batch[D any] struct {
	T    epoch.T
	Data []D
}

// VectorDrain appends every pushed batch in order, for assertions in
// unit tests.
type VectorDrain[D any] struct {
	Batches []Batch[D]
}

func NewVectorDrain[D any]() *VectorDrain[D] { return &VectorDrain[D]{} }

func (v *VectorDrain[D]) Push(t epoch.T, batch []D) {
	cp := make([]D, len(batch))
	copy(cp, batch)
	v.Batches = append(v.Batches, Batch[D]{T: t, Data: cp})
}
