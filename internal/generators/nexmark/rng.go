package nexmark

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// rng wraps math/rand with the two NEXMark-specific draws the Rust
// source adds to StdRng via its NEXMarkRng extension trait.
type rng struct {
	*rand.Rand
}

// newRNG seeds deterministically from id, so that any worker can
// reconstruct exactly the same event given only its event number —
// the property that lets NEXMark generation run without any shared
// state across partitions.
func newRNG(id Id) rng {
	return rng{rand.New(rand.NewSource(int64(id)))}
}

// genRange mirrors StdRng::gen_range(lo, hi): a uniform draw from
// [lo, hi).
func (r rng) genRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo)
}

// genString mirrors gen_string: a random lowercase-and-space string of
// length in [minStringLength, max), trimmed.
func (r rng) genString(max int) string {
	length := r.genRange(minStringLength, max)
	var b strings.Builder
	for i := 0; i < length; i++ {
		if r.genRange(0, 13) == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(byte('a' + r.genRange(0, 26)))
		}
	}
	return strings.TrimSpace(b.String())
}

// genPrice mirrors gen_price: 100 * 10^(U*6), rounded, where U is
// uniform on [0,1) — a heavy-tailed price distribution.
func (r rng) genPrice() uint64 {
	v := math.Pow(10.0, r.Float64()*6.0) * 100.0
	return uint64(math.Round(v))
}

// chooseString picks a uniformly random element of xs.
func chooseString(r rng, xs []string) string {
	return xs[r.Intn(len(xs))]
}

func fourDigitGroups(r rng, n int) string {
	groups := make([]string, n)
	for i := range groups {
		groups[i] = fmt.Sprintf("%04d", r.genRange(0, 10000))
	}
	return strings.Join(groups, " ")
}
