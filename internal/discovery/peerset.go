package discovery

import (
	"sort"
	"strings"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
)

// PeerSet tracks, for every peer this node gossips with, the facts that
// peer is known to hold. A view only ever grows from facts received from
// that peer.
type PeerSet[F comparable] struct {
	self  string
	views map[string]*facts.Set[F]
}

func NewPeerSet[F comparable](self string) *PeerSet[F] {
	return &PeerSet[F]{self: self, views: make(map[string]*facts.Set[F])}
}

func (ps *PeerSet[F]) Self() string { return ps.self }

// Reset forgets every view and tracks each id in peers (except self) with
// an empty view.
func (ps *PeerSet[F]) Reset(peers []string) {
	ps.views = make(map[string]*facts.Set[F], len(peers))
	for _, id := range peers {
		ps.Upsert(id)
	}
}

// ApplyStar collapses the cluster into a star around Root(roster): the root
// tracks everybody else, every other node tracks only the root.
func (ps *PeerSet[F]) ApplyStar(roster []string) {
	root := Root(roster)
	if root == "" || root == ps.self {
		ps.Reset(roster)
		return
	}
	ps.Reset([]string{root})
}

// Upsert starts tracking id with an empty view. Known peers keep their view.
func (ps *PeerSet[F]) Upsert(id string) {
	if id == ps.self || id == "" {
		return
	}
	if _, ok := ps.views[id]; !ok {
		ps.views[id] = facts.New[F]()
	}
}

// List returns the tracked peer ids in ascending order.
func (ps *PeerSet[F]) List() []string {
	res := make([]string, 0, len(ps.views))
	for id := range ps.views {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

func (ps *PeerSet[F]) Len() int { return len(ps.views) }

// View returns what id is known to hold.
func (ps *PeerSet[F]) View(id string) (*facts.Set[F], bool) {
	v, ok := ps.views[id]
	return v, ok
}

// Observe records that id sent us fs, so it already holds them. It returns
// false, changing nothing, when id is not tracked.
func (ps *PeerSet[F]) Observe(id string, fs []F) bool {
	v, ok := ps.views[id]
	if !ok {
		return false
	}
	v.Merge(fs)
	return true
}

// Root is the hub of the star: the roster id with the lowest index, so n2
// comes before n10. Ids that do not share a prefix compare lexically.
func Root(roster []string) string {
	root := ""
	for _, id := range roster {
		if id == "" {
			continue
		}
		if root == "" || lessID(id, root) {
			root = id
		}
	}
	return root
}

func lessID(a, b string) bool {
	pa, na := splitIndex(a)
	pb, nb := splitIndex(b)
	if pa != pb || na == "" || nb == "" {
		return a < b
	}
	na, nb = strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
	if len(na) != len(nb) {
		return len(na) < len(nb)
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

// splitIndex splits "n12" into "n" and "12".
func splitIndex(id string) (prefix, digits string) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	return id[:i], id[i:]
}
