package gossip_test

import (
	"cmp"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/discovery"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/gossip"
)

func newEngine(divisor int) *gossip.Engine[int64] {
	return gossip.NewEngine[int64](rand.New(rand.NewSource(7)), divisor, cmp.Compare[int64])
}

func storeOf(n int) *facts.Set[int64] {
	s := facts.New[int64]()
	for i := 0; i < n; i++ {
		s.Insert(int64(i))
	}
	return s
}

func TestPlan_SendsOnlyMissingWithoutPadding(t *testing.T) {
	store := facts.New[int64](5, 1, 3)
	peers := discovery.NewPeerSet[int64]("n0")
	peers.Reset([]string{"n0", "n1", "n2"})
	peers.Observe("n2", []int64{1})

	batches := newEngine(0).Plan(store, peers)

	require.Len(t, batches, 2)
	require.Equal(t, "n1", batches[0].Peer)
	require.Equal(t, []int64{1, 3, 5}, batches[0].Facts)
	require.Equal(t, 3, batches[0].Missing)
	require.Equal(t, "n2", batches[1].Peer)
	require.Equal(t, []int64{3, 5}, batches[1].Facts)
	require.Equal(t, 2, batches[1].Missing)
}

func TestPlan_SkipsPeersThatCaughtUp(t *testing.T) {
	store := storeOf(40)
	peers := discovery.NewPeerSet[int64]("n0")
	peers.Reset([]string{"n1"})
	peers.Observe("n1", store.All())

	require.Empty(t, newEngine(10).Plan(store, peers), "no padding for a peer that holds everything")
}

func TestPlan_EmptyStoreSendsNothing(t *testing.T) {
	peers := discovery.NewPeerSet[int64]("n0")
	peers.Reset([]string{"n1", "n2"})

	require.Empty(t, newEngine(10).Plan(facts.New[int64](), peers))
}

func TestPlan_PadsWithRandomSample(t *testing.T) {
	store := storeOf(100)
	peers := discovery.NewPeerSet[int64]("n0")
	peers.Reset([]string{"n1"})
	// n1 holds everything but fact 99
	peers.Observe("n1", store.Missing(facts.New[int64](99)))

	e := newEngine(10)
	require.Equal(t, 10, e.SampleSize(store.Len()))

	batches := e.Plan(store, peers)
	require.Len(t, batches, 1)
	b := batches[0]
	require.Equal(t, 1, b.Missing)
	require.Contains(t, b.Facts, int64(99))
	require.GreaterOrEqual(t, len(b.Facts), 10)
	require.LessOrEqual(t, len(b.Facts), 11)
	require.IsIncreasing(t, b.Facts, "batches are sorted and duplicate free")
}

func TestPlan_SameSeedSamePlan(t *testing.T) {
	plan := func() []gossip.Batch[int64] {
		store := storeOf(200)
		peers := discovery.NewPeerSet[int64]("n0")
		peers.Reset([]string{"n1", "n2"})
		peers.Observe("n1", store.Missing(facts.New[int64](199)))
		return newEngine(10).Plan(store, peers)
	}

	want := plan()
	require.Len(t, want, 2)
	for i := 0; i < 20; i++ {
		require.Equal(t, want, plan(), "run %d", i)
	}
}

func TestPlan_DoesNotAdvanceViews(t *testing.T) {
	store := storeOf(3)
	peers := discovery.NewPeerSet[int64]("n0")
	peers.Reset([]string{"n1"})

	e := newEngine(10)
	first := e.Plan(store, peers)
	second := e.Plan(store, peers)

	require.Equal(t, first, second, "an unacknowledged batch is sent again next round")
	v, _ := peers.View("n1")
	require.Zero(t, v.Len())
}

func TestSampleSize(t *testing.T) {
	e := newEngine(10)
	require.Equal(t, 0, e.SampleSize(9))
	require.Equal(t, 1, e.SampleSize(10))
	require.Equal(t, 12, e.SampleSize(129))
	require.Equal(t, 0, newEngine(0).SampleSize(1000))
}
