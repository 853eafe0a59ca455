package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/net/packet"
)

// Side says which peer a codec speaks for.
type Side uint8

const (
	SideServer Side = iota
	SideClient
)

var (
	// ErrStageTransition is returned when a codec already in gameplay is asked
	// to enter it again.
	ErrStageTransition = errors.New("codec already in gameplay stage")
	// ErrFrameTooLarge is returned when a payload does not fit its length prefix.
	ErrFrameTooLarge = errors.New("payload exceeds frame limit")
)

// Codec turns a connection's byte stream into packets and back. Decode and
// Encode keep separate state and may run on different goroutines, but each
// must only be called from one goroutine at a time, and EnterGameplay must
// happen before either side runs concurrently.
type Codec struct {
	registry *packet.Registry
	side     Side
	inbound  packet.Direction
	outbound packet.Direction
	stage    packet.Stage

	encode *Isaac
	decode *Isaac

	scratch *buf.Writer
}

// NewCodec builds a codec in the handshake stage.
func NewCodec(registry *packet.Registry, side Side) *Codec {
	c := &Codec{
		registry: registry,
		side:     side,
		inbound:  packet.Serverbound,
		outbound: packet.Clientbound,
		stage:    packet.StageHandshake,
		scratch:  buf.NewWriter(256),
	}
	if side == SideClient {
		c.inbound, c.outbound = packet.Clientbound, packet.Serverbound
	}
	return c
}

// Stage returns the current connection stage.
func (c *Codec) Stage() packet.Stage {
	return c.stage
}

// EnterGameplay seeds both keystreams from the session keys and switches to
// the gameplay packet set. The transition happens once per connection.
func (c *Codec) EnterGameplay(clientKey, serverKey uint64) error {
	if c.stage == packet.StageGameplay {
		return ErrStageTransition
	}
	c.encode, c.decode = newCiphers(c.side, clientKey, serverKey)
	c.stage = packet.StageGameplay
	return nil
}

// Decode reads exactly one packet. Payloads framed as None take whatever is
// left in r's buffer after the opcode. A clean end of stream before the
// opcode is returned as io.EOF.
func (c *Codec) Decode(r *bufio.Reader) (packet.Packet, error) {
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if c.stage == packet.StageGameplay {
		op -= byte(c.decode.Next())
	}
	entry, err := c.registry.Lookup(packet.ID{Opcode: op, Stage: c.stage, Direction: c.inbound})
	if err != nil {
		return nil, err
	}

	payload, err := readPayload(r, entry.Framing)
	if err != nil {
		return nil, fmt.Errorf("read %s payload: %w", entry.Type, unexpectedEOF(err))
	}

	p, err := packet.New(entry.Type)
	if err != nil {
		return nil, err
	}
	if err := p.Decode(buf.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Type, err)
	}
	return p, nil
}

func readPayload(r *bufio.Reader, f packet.Framing) ([]byte, error) {
	var n int
	switch f.Kind {
	case packet.FrameFixed:
		n = f.Size
	case packet.FrameVarByte:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n = int(b)
	case packet.FrameVarShort:
		var hdr [2]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, err
		}
		n = int(hdr[0])<<8 | int(hdr[1])
	case packet.FrameNone:
		n = r.Buffered()
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// unexpectedEOF reports a stream that ends inside a frame as truncated.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Encode serializes p into one frame: opcode, length prefix and payload. A
// fixed-size packet whose payload has the wrong size is refused with a
// *packet.FixedLengthError and nothing is produced.
func (c *Codec) Encode(p packet.Packet) ([]byte, error) {
	entry, err := c.registry.EntryFor(p.Type())
	if err != nil {
		return nil, err
	}
	if entry.ID.Stage != c.stage || entry.ID.Direction != c.outbound {
		return nil, fmt.Errorf("%w: %s is %s/%s, codec sends %s/%s", packet.ErrUnknownType,
			entry.Type, entry.ID.Stage, entry.ID.Direction, c.stage, c.outbound)
	}

	c.scratch.Reset()
	p.Encode(c.scratch)
	payload := c.scratch.Bytes()

	f := entry.Framing
	if f.Kind == packet.FrameFixed && len(payload) != f.Size {
		return nil, &packet.FixedLengthError{Type: entry.Type, Expected: f.Size, Actual: len(payload)}
	}
	if limit := f.MaxSize(); limit >= 0 && len(payload) > limit {
		return nil, fmt.Errorf("%w: %s payload of %d bytes, limit %d", ErrFrameTooLarge, entry.Type, len(payload), limit)
	}

	op := entry.ID.Opcode
	if c.stage == packet.StageGameplay {
		op += byte(c.encode.Next())
	}
	out := make([]byte, 0, 3+len(payload))
	out = append(out, op)
	switch f.Kind {
	case packet.FrameVarByte:
		out = append(out, byte(len(payload)))
	case packet.FrameVarShort:
		out = append(out, byte(len(payload)>>8), byte(len(payload)))
	}
	return append(out, payload...), nil
}
