package node

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/config"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/discovery"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/facts"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/gossip"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/telemetry"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/transport"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

var (
	ErrNotInitialised     = errors.New("message before init")
	ErrAlreadyInitialised = errors.New("init received twice")
)

// Replica is the workload a node serves: the fact store plus the request
// kinds and gossip encoding specific to it.
type Replica[F comparable] interface {
	Facts() *facts.Set[F]
	Compare(a, b F) int
	// Serve answers a workload request. ok is false when the kind is not
	// served; a non-nil err is fatal.
	Serve(req types.Envelope) (reply types.Payload, ok bool, err error)
	GossipPayload(fs []F) types.Payload
	GossipFacts(g types.Gossip) []F
}

// Node owns all mutable state of one cluster member. It is driven by a
// single goroutine, either Run or a test calling Step and Gossip directly.
type Node[F comparable] struct {
	cfg     config.Config
	log     *zap.Logger
	out     *transport.Sender
	replica Replica[F]

	// set at init
	id      string
	nodeIDs []string
	peers   *discovery.PeerSet[F]
	engine  *gossip.Engine[F]

	ticker *transport.Ticker
	events chan transport.Event

	nextID uint64
}

func New[F comparable](cfg config.Config, replica Replica[F], out io.Writer, log *zap.Logger) *Node[F] {
	return &Node[F]{
		cfg:     cfg,
		log:     log,
		out:     transport.NewSender(out),
		replica: replica,
		nextID:  1,
	}
}

// ID is empty until init.
func (n *Node[F]) ID() string { return n.id }

// Peers lists the peers gossiped with, in ascending order.
func (n *Node[F]) Peers() []string {
	if n.peers == nil {
		return nil
	}
	return n.peers.List()
}

// Step handles one inbound envelope. A returned error is fatal: the node
// cannot continue safely.
func (n *Node[F]) Step(env types.Envelope) error {
	telemetry.EnvelopesReceived.WithLabelValues(env.Kind()).Inc()
	err := n.step(env)
	if n.peers != nil {
		telemetry.FactsKnown.Set(float64(n.replica.Facts().Len()))
		telemetry.PeersTracked.Set(float64(n.peers.Len()))
	}
	return err
}

func (n *Node[F]) step(env types.Envelope) error {
	if p, ok := env.Body.Payload.(types.Init); ok {
		return n.handleInit(env, p)
	}
	if n.id == "" {
		return errors.Wrapf(ErrNotInitialised, "%s from %s", env.Kind(), env.Src)
	}

	switch p := env.Body.Payload.(type) {
	case types.Echo:
		return n.reply(env, types.EchoOk{Echo: p.Echo})
	case types.Generate:
		return n.handleGenerate(env)
	case types.Topology:
		return n.handleTopology(env, p)
	case types.Gossip:
		n.handleGossip(env, p)
		return nil
	case types.EchoOk, types.BroadcastOk, types.TopologyOk:
		return nil
	case types.InitOk, types.GenerateOk, types.ReadOk, types.AddOk:
		n.log.Error("unexpected reply", zap.String("type", env.Kind()), zap.String("src", env.Src))
		return nil
	case types.Error:
		n.log.Error("error reply", zap.String("src", env.Src), zap.Error(p.RPCError()))
		return nil
	}

	reply, ok, err := n.replica.Serve(env)
	if err != nil {
		return errors.Wrapf(err, "%s from %s", env.Kind(), env.Src)
	}
	if !ok {
		n.log.Warn("unsupported request", zap.String("type", env.Kind()), zap.String("src", env.Src))
		rpcErr := maelstrom.NewRPCError(maelstrom.NotSupported, fmt.Sprintf("%s is not supported", env.Kind()))
		return n.reply(env, types.NewError(rpcErr))
	}
	return n.reply(env, reply)
}

func (n *Node[F]) handleInit(env types.Envelope, p types.Init) error {
	if n.id != "" {
		return errors.Wrapf(ErrAlreadyInitialised, "from %s as %q", env.Src, p.NodeID)
	}
	if p.NodeID == "" {
		return errors.Errorf("init from %s without node_id", env.Src)
	}

	n.id = p.NodeID
	n.nodeIDs = append([]string(nil), p.NodeIDs...)
	n.log = n.log.With(zap.String("node", n.id))

	seed := n.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	n.engine = gossip.NewEngine(rand.New(rand.NewSource(seed)), n.cfg.Redundancy, n.replica.Compare)
	n.peers = discovery.NewPeerSet[F](n.id)
	n.peers.Reset(n.nodeIDs)

	// The init reply is the only envelope numbered 0.
	if err := n.send(env.Reply(0, types.InitOk{})); err != nil {
		return err
	}
	if n.ticker != nil {
		n.ticker.Start(n.events)
	}
	n.log.Info("initialised", zap.Strings("node_ids", n.nodeIDs), zap.Strings("peers", n.peers.List()))
	return nil
}

func (n *Node[F]) handleGenerate(env types.Envelope) error {
	id, err := uuid.NewV4()
	if err != nil {
		n.log.Error("generate id", zap.Error(err))
		return n.reply(env, types.NewError(maelstrom.NewRPCError(maelstrom.Crash, err.Error())))
	}
	return n.reply(env, types.GenerateOk{ID: id.String()})
}

func (n *Node[F]) handleTopology(env types.Envelope, p types.Topology) error {
	roster := append([]string(nil), n.nodeIDs...)
	for id := range p.Topology {
		roster = append(roster, id)
	}
	n.peers.ApplyStar(roster)
	n.log.Info("topology applied",
		zap.String("root", discovery.Root(roster)),
		zap.Strings("peers", n.peers.List()))
	return n.reply(env, types.TopologyOk{})
}

// handleGossip merges the sender's facts. The sender holds every fact it
// sent, so its view grows by the same facts.
func (n *Node[F]) handleGossip(env types.Envelope, g types.Gossip) {
	fs := n.replica.GossipFacts(g)
	if len(fs) == 0 && len(g.IDs)+len(g.Adds) > 0 {
		n.log.Error("gossip for another workload",
			zap.String("src", env.Src),
			zap.Int("ids", len(g.IDs)),
			zap.Int("adds", len(g.Adds)))
		return
	}
	added := n.replica.Facts().Merge(fs)
	if !n.peers.Observe(env.Src, fs) {
		n.log.Warn("gossip from untracked peer", zap.String("src", env.Src), zap.Int("facts", len(fs)))
	}
	if added > 0 {
		n.log.Debug("merged gossip", zap.String("src", env.Src), zap.Int("received", len(fs)), zap.Int("new", added))
	}
}

// Gossip runs one anti-entropy round. Failed sends are skipped; the next
// round recomputes what each peer misses.
func (n *Node[F]) Gossip() {
	if n.id == "" {
		return
	}
	telemetry.GossipRounds.Inc()

	for _, b := range n.engine.Plan(n.replica.Facts(), n.peers) {
		env := types.Envelope{
			Src:  n.id,
			Dest: b.Peer,
			Body: types.Body{Payload: n.replica.GossipPayload(b.Facts)},
		}
		if err := n.out.Send(env); err != nil {
			telemetry.GossipSendFailures.Inc()
			n.log.Warn("gossip send failed", zap.String("peer", b.Peer), zap.Error(err))
			continue
		}
		telemetry.GossipFactsSent.Add(float64(len(b.Facts)))
		n.log.Debug("gossip sent",
			zap.String("peer", b.Peer),
			zap.Int("facts", len(b.Facts)),
			zap.Int("missing", b.Missing))
	}
}

func (n *Node[F]) reply(req types.Envelope, p types.Payload) error {
	id := n.nextID
	n.nextID++
	return n.send(req.Reply(id, p))
}

// send fails only when the output stream is gone, which ends the node.
func (n *Node[F]) send(env types.Envelope) error {
	return errors.Wrapf(n.out.Send(env), "reply %s to %s", env.Kind(), env.Dest)
}
