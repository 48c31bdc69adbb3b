package transport

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/truls-p/fly-io-dist-sys-challenges/internal/types"
)

type EventKind int

const (
	// EventEnvelope carries one decoded inbound envelope.
	EventEnvelope EventKind = iota
	// EventTick asks the node to run a gossip round.
	EventTick
	// EventEOF ends the stream. Err is set when input stopped because of a
	// read or decode failure rather than a clean end of input.
	EventEOF
)

func (k EventKind) String() string {
	switch k {
	case EventEnvelope:
		return "envelope"
	case EventTick:
		return "tick"
	case EventEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Event is one item of the node loop's single ordered input.
type Event struct {
	Kind     EventKind
	Envelope types.Envelope
	Err      error
}

const readBufferSize = 64 << 10

// ReadEnvelopes decodes r line by line into events, finishing with exactly
// one EventEOF. Blank lines are skipped. It returns early, without the EOF
// event, once stop is closed.
func ReadEnvelopes(r io.Reader, events chan<- Event, stop <-chan struct{}) {
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-stop:
			return false
		}
	}

	br := bufio.NewReaderSize(r, readBufferSize)
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			env, decErr := types.Decode(trimmed)
			if decErr != nil {
				emit(Event{Kind: EventEOF, Err: errors.Wrap(decErr, "read input")})
				return
			}
			if !emit(Event{Kind: EventEnvelope, Envelope: env}) {
				return
			}
		}
		if err == io.EOF {
			emit(Event{Kind: EventEOF})
			return
		}
		if err != nil {
			emit(Event{Kind: EventEOF, Err: errors.Wrap(err, "read input")})
			return
		}
	}
}
