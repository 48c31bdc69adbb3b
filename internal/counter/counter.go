package counter

import (
	"cmp"

	"github.com/pkg/errors"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

// ErrDuplicateOp is returned by Add when the exact operation was already
// accepted. Origins never reuse a sequence number, so this means the harness
// or the node is broken.
var ErrDuplicateOp = errors.New("duplicate add operation")

// Counter is a grow-only counter represented by the set of every increment
// it has heard of. Its value is the sum of their deltas.
type Counter struct {
	ops *facts.Set[types.AddOp]
}

func New() *Counter {
	return &Counter{ops: facts.New[types.AddOp]()}
}

// Add records an increment accepted locally from a client.
func (c *Counter) Add(origin string, seq uint64, delta int64) (types.AddOp, error) {
	op := types.AddOp{Origin: origin, Seq: seq, Delta: delta}
	if !c.ops.Insert(op) {
		return op, errors.Wrapf(ErrDuplicateOp, "%s", op)
	}
	return op, nil
}

// Apply merges an increment learned through gossip; repeats are no-ops.
func (c *Counter) Apply(op types.AddOp) bool {
	return c.ops.Insert(op)
}

func (c *Counter) Value() int64 {
	var sum int64
	for _, op := range c.ops.All() {
		sum += op.Delta
	}
	return sum
}

func (c *Counter) Ops() *facts.Set[types.AddOp] { return c.ops }

// CompareOps orders operations by origin, then sequence, then delta.
func CompareOps(a, b types.AddOp) int {
	if c := cmp.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	return cmp.Compare(a.Delta, b.Delta)
}
