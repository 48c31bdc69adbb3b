package transport

import (
	"io"

	"github.com/pkg/errors"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/telemetry"
	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

// Sender writes envelopes to the output stream, one JSON object per line.
// It is owned by the node loop and not safe for concurrent use.
type Sender struct {
	w io.Writer
}

func NewSender(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Send encodes env and writes it with a single Write call.
func (s *Sender) Send(env types.Envelope) error {
	line, err := types.Encode(env)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		return errors.Wrapf(err, "send %s to %s", env.Kind(), env.Dest)
	}
	telemetry.EnvelopesSent.WithLabelValues(env.Kind()).Inc()
	return nil
}
