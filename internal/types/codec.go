package types

import (
	"encoding/json"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/pkg/errors"
)

// ErrMalformed is the cause of every Decode failure.
var ErrMalformed = errors.New("malformed envelope")

type header struct {
	MsgID     *uint64 `json:"msg_id,omitempty"`
	InReplyTo *uint64 `json:"in_reply_to,omitempty"`
}

type decodeFunc func(json.RawMessage) (Payload, error)

func decodeAs[P Payload](raw json.RawMessage) (Payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

var decoders = map[string]decodeFunc{
	"init":         decodeAs[Init],
	"init_ok":      decodeAs[InitOk],
	"echo":         decodeAs[Echo],
	"echo_ok":      decodeAs[EchoOk],
	"generate":     decodeAs[Generate],
	"generate_ok":  decodeAs[GenerateOk],
	"broadcast":    decodeAs[Broadcast],
	"broadcast_ok": decodeAs[BroadcastOk],
	"add":          decodeAs[Add],
	"add_ok":       decodeAs[AddOk],
	"read":         decodeAs[Read],
	"read_ok":      decodeAs[ReadOk],
	"topology":     decodeAs[Topology],
	"topology_ok":  decodeAs[TopologyOk],
	"gossip":       decodeAs[Gossip],
	"error":        decodeAs[Error],
}

// Decode parses one line of input. Payload types without a decoder come back
// as Unknown so the caller can answer them; anything that is not a
// well-formed envelope is an error wrapping ErrMalformed.
func Decode(line []byte) (Envelope, error) {
	var msg maelstrom.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Envelope{}, errors.Wrapf(ErrMalformed, "%v", err)
	}
	if len(msg.Body) == 0 {
		return Envelope{}, errors.Wrap(ErrMalformed, "missing body")
	}
	kind := msg.Type()
	if kind == "" {
		return Envelope{}, errors.Wrap(ErrMalformed, "missing body type")
	}

	var h header
	if err := json.Unmarshal(msg.Body, &h); err != nil {
		return Envelope{}, errors.Wrapf(ErrMalformed, "%s header: %v", kind, err)
	}

	env := Envelope{Src: msg.Src, Dest: msg.Dest, Body: Body{MsgID: h.MsgID, InReplyTo: h.InReplyTo}}
	dec, ok := decoders[kind]
	if !ok {
		env.Body.Payload = Unknown{Kind: kind}
		return env, nil
	}
	p, err := dec(msg.Body)
	if err != nil {
		return Envelope{}, errors.Wrapf(ErrMalformed, "%s body: %v", kind, err)
	}
	env.Body.Payload = p
	return env, nil
}

// Encode renders env as a single JSON object without a trailing newline. The
// payload fields are flattened into the body next to type, msg_id and
// in_reply_to.
func Encode(env Envelope) ([]byte, error) {
	if env.Body.Payload == nil {
		return nil, errors.New("encode: envelope has no payload")
	}
	raw, err := json.Marshal(env.Body.Payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s payload", env.Kind())
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(err, "encode %s payload: not an object", env.Kind())
	}
	if fields["type"], err = json.Marshal(env.Kind()); err != nil {
		return nil, err
	}
	if env.Body.MsgID != nil {
		fields["msg_id"], _ = json.Marshal(*env.Body.MsgID)
	}
	if env.Body.InReplyTo != nil {
		fields["in_reply_to"], _ = json.Marshal(*env.Body.InReplyTo)
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "encode body")
	}
	return json.Marshal(maelstrom.Message{Src: env.Src, Dest: env.Dest, Body: body})
}
