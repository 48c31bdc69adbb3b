// Package gossip plans anti-entropy rounds. Each round sends every tracked
// peer the facts it is not known to hold, padded with a random sample of the
// whole store so that a lost message is eventually repaired even after the
// sender believes the peer caught up.
package gossip

import (
	"math/rand"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/discovery"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
)

// Batch is what one peer is sent in one round.
type Batch[F comparable] struct {
	Peer string
	// Facts is sorted, duplicate free and never empty.
	Facts []F
	// Missing counts the facts of Facts the peer was not known to hold.
	Missing int
}

// Engine is not safe for concurrent use.
type Engine[F comparable] struct {
	rng     *rand.Rand
	divisor int
	cmp     func(a, b F) int
}

// NewEngine returns an engine that pads each batch with |store|/divisor
// random facts. A divisor of zero or less disables the padding.
func NewEngine[F comparable](rng *rand.Rand, divisor int, cmp func(a, b F) int) *Engine[F] {
	return &Engine[F]{rng: rng, divisor: divisor, cmp: cmp}
}

// SampleSize is the number of redundant facts added to a batch for a store
// of n facts.
func (e *Engine[F]) SampleSize(n int) int {
	if e.divisor <= 0 {
		return 0
	}
	return n / e.divisor
}

// Plan computes one round. Peers whose view already equals the store are
// skipped. Views are left untouched: they advance only when the peer gossips
// the facts back.
func (e *Engine[F]) Plan(store *facts.Set[F], peers *discovery.PeerSet[F]) []Batch[F] {
	var out []Batch[F]
	for _, id := range peers.List() {
		if id == peers.Self() {
			continue
		}
		seen, ok := peers.View(id)
		if !ok {
			continue
		}
		missing := store.Missing(seen)
		if len(missing) == 0 && seen.Equal(store) {
			continue
		}

		batch := facts.New(missing...)
		batch.Merge(store.Sample(e.rng, e.SampleSize(store.Len()), e.cmp))
		if batch.Len() == 0 {
			continue
		}
		out = append(out, Batch[F]{Peer: id, Facts: batch.Sorted(e.cmp), Missing: len(missing)})
	}
	return out
}
