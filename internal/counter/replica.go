package counter

import (
	"github.com/pkg/errors"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

// ErrMissingMsgID is returned for an add without msg_id: the operation would
// have no identity to deduplicate on.
var ErrMissingMsgID = errors.New("add without msg_id")

// Replica serves the counter workload: add and read from clients, adds
// lists in gossip.
type Replica struct {
	c *Counter
}

func NewReplica() *Replica {
	return &Replica{c: New()}
}

func (r *Replica) Counter() *Counter { return r.c }

func (r *Replica) Facts() *facts.Set[types.AddOp] { return r.c.Ops() }

func (r *Replica) Compare(a, b types.AddOp) int { return CompareOps(a, b) }

// Serve answers add and read. ok is false for every other request kind.
func (r *Replica) Serve(req types.Envelope) (reply types.Payload, ok bool, err error) {
	switch p := req.Body.Payload.(type) {
	case types.Add:
		if req.Body.MsgID == nil {
			return nil, true, errors.Wrapf(ErrMissingMsgID, "from %s", req.Src)
		}
		if _, err := r.c.Add(req.Src, *req.Body.MsgID, p.Delta); err != nil {
			return nil, true, err
		}
		return types.AddOk{}, true, nil
	case types.Read:
		v := r.c.Value()
		return types.ReadOk{Value: &v}, true, nil
	}
	return nil, false, nil
}

func (r *Replica) GossipPayload(ops []types.AddOp) types.Payload {
	return types.Gossip{Adds: ops}
}

func (r *Replica) GossipFacts(g types.Gossip) []types.AddOp {
	return g.Adds
}
