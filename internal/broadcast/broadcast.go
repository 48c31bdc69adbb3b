// Package broadcast implements the replicated broadcast set: every value a
// client broadcasts to any node eventually shows up in every node's read.
package broadcast

import (
	"cmp"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

// Replica serves the broadcast workload: broadcast and read from clients,
// ids lists in gossip.
type Replica struct {
	values *facts.Set[int64]
}

func NewReplica() *Replica {
	return &Replica{values: facts.New[int64]()}
}

func (r *Replica) Facts() *facts.Set[int64] { return r.values }

func (r *Replica) Compare(a, b int64) int { return cmp.Compare(a, b) }

// Messages returns every known value in ascending order.
func (r *Replica) Messages() []int64 {
	return r.values.Sorted(r.Compare)
}

// Serve answers broadcast and read. ok is false for every other request kind.
func (r *Replica) Serve(req types.Envelope) (reply types.Payload, ok bool, err error) {
	switch p := req.Body.Payload.(type) {
	case types.Broadcast:
		r.values.Insert(p.Message)
		return types.BroadcastOk{}, true, nil
	case types.Read:
		return types.ReadOk{Messages: r.Messages()}, true, nil
	}
	return nil, false, nil
}

func (r *Replica) GossipPayload(ids []int64) types.Payload {
	return types.Gossip{IDs: ids}
}

func (r *Replica) GossipFacts(g types.Gossip) []int64 {
	return g.IDs
}
