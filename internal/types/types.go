package types

import (
	"encoding/json"
	"fmt"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

// Envelope is one protocol message travelling between two nodes (or a node
// and a client).
type Envelope struct {
	Src  string
	Dest string
	Body Body
}

// Body carries the correlation ids alongside the typed payload.
type Body struct {
	MsgID     *uint64
	InReplyTo *uint64
	Payload   Payload
}

// Payload is implemented by every message kind the nodes understand.
type Payload interface {
	Type() string
}

// Kind returns the payload type of the envelope, or "" when it has none.
func (e Envelope) Kind() string {
	if e.Body.Payload == nil {
		return ""
	}
	return e.Body.Payload.Type()
}

// Reply builds the envelope answering e: source and destination swap and
// in_reply_to carries e's msg_id.
func (e Envelope) Reply(msgID uint64, p Payload) Envelope {
	return Envelope{
		Src:  e.Dest,
		Dest: e.Src,
		Body: Body{MsgID: ID(msgID), InReplyTo: e.Body.MsgID, Payload: p},
	}
}

// ID returns a pointer to v, for filling optional body ids.
func ID(v uint64) *uint64 { return &v }

type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

type InitOk struct{}

type Echo struct {
	Echo string `json:"echo"`
}

type EchoOk struct {
	Echo string `json:"echo"`
}

type Generate struct{}

type GenerateOk struct {
	ID string `json:"id"`
}

type Broadcast struct {
	Message int64 `json:"message"`
}

type BroadcastOk struct{}

type Add struct {
	Delta int64 `json:"delta"`
}

type AddOk struct{}

type Read struct{}

// ReadOk answers a read. Broadcast nodes fill Messages, counter nodes fill
// Value; exactly one of the two is written on the wire.
type ReadOk struct {
	Messages []int64 `json:"messages,omitempty"`
	Value    *int64  `json:"value,omitempty"`
}

func (r ReadOk) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(struct {
			Value int64 `json:"value"`
		}{*r.Value})
	}
	msgs := r.Messages
	if msgs == nil {
		msgs = []int64{}
	}
	return json.Marshal(struct {
		Messages []int64 `json:"messages"`
	}{msgs})
}

type Topology struct {
	Topology map[string][]string `json:"topology"`
}

type TopologyOk struct{}

// Gossip is the peer-to-peer anti-entropy message. Broadcast nodes exchange
// IDs, counter nodes exchange Adds.
type Gossip struct {
	IDs  []int64 `json:"ids,omitempty"`
	Adds []AddOp `json:"adds,omitempty"`
}

// AddOp is one increment accepted somewhere in the cluster. Origin and Seq
// identify it; on the wire it is the array [origin, seq, delta].
type AddOp struct {
	Origin string
	Seq    uint64
	Delta  int64
}

func (op AddOp) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{op.Origin, op.Seq, op.Delta})
}

func (op *AddOp) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("add op: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &op.Origin); err != nil {
		return fmt.Errorf("add op origin: %w", err)
	}
	if err := json.Unmarshal(raw[1], &op.Seq); err != nil {
		return fmt.Errorf("add op seq: %w", err)
	}
	if err := json.Unmarshal(raw[2], &op.Delta); err != nil {
		return fmt.Errorf("add op delta: %w", err)
	}
	return nil
}

func (op AddOp) String() string {
	return fmt.Sprintf("(%s,%d,%d)", op.Origin, op.Seq, op.Delta)
}

// Error is the harness' error reply body.
type Error struct {
	Code int    `json:"code"`
	Text string `json:"text,omitempty"`
}

// NewError converts an RPC error into an error payload.
func NewError(err *maelstrom.RPCError) Error {
	return Error{Code: err.Code, Text: err.Text}
}

// RPCError converts the payload back into the harness' error value.
func (e Error) RPCError() *maelstrom.RPCError {
	return maelstrom.NewRPCError(e.Code, e.Text)
}

// Unknown stands in for any payload type this package does not model.
type Unknown struct {
	Kind string `json:"-"`
}

func (Init) Type() string        { return "init" }
func (InitOk) Type() string      { return "init_ok" }
func (Echo) Type() string        { return "echo" }
func (EchoOk) Type() string      { return "echo_ok" }
func (Generate) Type() string    { return "generate" }
func (GenerateOk) Type() string  { return "generate_ok" }
func (Broadcast) Type() string   { return "broadcast" }
func (BroadcastOk) Type() string { return "broadcast_ok" }
func (Add) Type() string         { return "add" }
func (AddOk) Type() string       { return "add_ok" }
func (Read) Type() string        { return "read" }
func (ReadOk) Type() string      { return "read_ok" }
func (Topology) Type() string    { return "topology" }
func (TopologyOk) Type() string  { return "topology_ok" }
func (Gossip) Type() string      { return "gossip" }
func (Error) Type() string       { return "error" }
func (u Unknown) Type() string   { return u.Kind }
