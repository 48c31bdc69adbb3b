package node

import (
	"io"

	"go.uber.org/zap"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/transport"
)

// Run drives the node from in until end of input or a fatal error. Inbound
// envelopes and gossip ticks share one channel, so state is only ever
// touched from this goroutine. The gossip ticker starts at init.
func (n *Node[F]) Run(in io.Reader) error {
	stop := make(chan struct{})
	defer close(stop)

	n.events = make(chan transport.Event)
	n.ticker = transport.NewTicker(n.cfg.GossipInterval, stop)
	go transport.ReadEnvelopes(in, n.events, stop)

	for ev := range n.events {
		switch ev.Kind {
		case transport.EventEnvelope:
			if err := n.Step(ev.Envelope); err != nil {
				return err
			}
		case transport.EventTick:
			n.Gossip()
		case transport.EventEOF:
			if ev.Err != nil {
				return ev.Err
			}
			n.log.Info("input closed")
			return nil
		}
	}
	return nil
}

// Logger returns the node's logger, tagged with its id once initialised.
func (n *Node[F]) Logger() *zap.Logger { return n.log }
