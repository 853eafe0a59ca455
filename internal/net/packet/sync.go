package packet

import "github.com/oldscape/server/internal/buf"

// MovementKind is the 2-bit movement type of a synchronization entry.
type MovementKind uint8

const (
	// MoveNone with Update set means the entity only has a pending block.
	MoveNone MovementKind = iota
	MoveWalk
	MoveRun
	// MoveTeleport is only valid for the local player, MoveRemove only for
	// the others; both share wire value 3.
	MoveTeleport
	MoveRemove
)

// Movement is one entity's entry in a synchronization frame. Directions are
// the client's 3-bit compass values, 0 being north-west.
type Movement struct {
	Kind      MovementKind
	Update    bool
	Direction uint8
	// Run is the second step of a MoveRun.
	Run       uint8

	// Teleport destination, local player only.
	Plane   uint8
	Discard bool
	LocalX  uint8
	LocalY  uint8
}

// Idle reports whether the entry is the single zero bit of an entity that
// neither moved nor needs a block.
func (m Movement) Idle() bool {
	return m.Kind == MoveNone && !m.Update
}

func writeMovement(b *buf.BitWriter, m Movement) {
	if m.Idle() {
		b.WriteBit(false)
		return
	}
	b.WriteBit(true)
	switch m.Kind {
	case MoveNone:
		b.WriteBits(2, 0)
	case MoveWalk:
		b.WriteBits(2, 1)
		b.WriteBits(3, uint32(m.Direction))
		b.WriteBit(m.Update)
	case MoveRun:
		b.WriteBits(2, 2)
		b.WriteBits(3, uint32(m.Direction))
		b.WriteBits(3, uint32(m.Run))
		b.WriteBit(m.Update)
	case MoveTeleport:
		b.WriteBits(2, 3)
		b.WriteBits(2, uint32(m.Plane))
		b.WriteBit(m.Discard)
		b.WriteBit(m.Update)
		b.WriteBits(7, uint32(m.LocalY))
		b.WriteBits(7, uint32(m.LocalX))
	case MoveRemove:
		b.WriteBits(2, 3)
	}
}

// readMovement reads one entry; local selects teleport over removal for
// movement type 3.
func readMovement(b *buf.BitReader, local bool) Movement {
	if !b.ReadBit() {
		return Movement{}
	}
	var m Movement
	switch b.ReadBits(2) {
	case 0:
		m.Update = true
	case 1:
		m.Kind = MoveWalk
		m.Direction = uint8(b.ReadBits(3))
		m.Update = b.ReadBit()
	case 2:
		m.Kind = MoveRun
		m.Direction = uint8(b.ReadBits(3))
		m.Run = uint8(b.ReadBits(3))
		m.Update = b.ReadBit()
	case 3:
		if !local {
			m.Kind = MoveRemove
			break
		}
		m.Kind = MoveTeleport
		m.Plane = uint8(b.ReadBits(2))
		m.Discard = b.ReadBit()
		m.Update = b.ReadBit()
		m.LocalY = uint8(b.ReadBits(7))
		m.LocalX = uint8(b.ReadBits(7))
	}
	return m
}

// signed5 sign-extends a 5-bit delta.
func signed5(v uint32) int8 {
	if v > 15 {
		return int8(v) - 32
	}
	return int8(v)
}

const (
	// MaxTracked is the most entities a frame can carry in its update list.
	MaxTracked = 255

	playerIndexBits = 11
	playerEnd       = 1<<playerIndexBits - 1
	npcIndexBits    = 14
	npcEnd          = 1<<npcIndexBits - 1
)

// PlayerAdd introduces a player into the viewer's local list. DX and DY are
// offsets from the viewer in [-16, 15].
type PlayerAdd struct {
	Index   uint16
	Update  bool
	Discard bool
	DX, DY  int8
}

// PlayerSynchronization is the per-tick player frame: the viewer's own
// movement, the movement of every player it already tracks, new players, and
// the raw update blocks that follow the bit section.
type PlayerSynchronization struct {
	gamePacket
	Local  Movement
	Others []Movement
	Adds   []PlayerAdd
	Blocks []byte
}

func (*PlayerSynchronization) Type() Type { return TypePlayerSynchronization }

func (p *PlayerSynchronization) Encode(w *buf.Writer) {
	bits := w.Bits()
	writeMovement(bits, p.Local)
	bits.WriteBits(8, uint32(len(p.Others)))
	for _, m := range p.Others {
		writeMovement(bits, m)
	}
	for _, a := range p.Adds {
		bits.WriteBits(playerIndexBits, uint32(a.Index))
		bits.WriteBit(a.Update)
		bits.WriteBit(a.Discard)
		bits.WriteBits(5, uint32(a.DY))
		bits.WriteBits(5, uint32(a.DX))
	}
	if len(p.Blocks) > 0 {
		bits.WriteBits(playerIndexBits, playerEnd)
	}
	w.WriteBytes(p.Blocks)
}

func (p *PlayerSynchronization) Decode(r *buf.Reader) error {
	bits := r.Bits()
	p.Local = readMovement(bits, true)
	p.Others = make([]Movement, bits.ReadBits(8))
	for i := range p.Others {
		p.Others[i] = readMovement(bits, false)
	}
	p.Adds = nil
	for r.Err() == nil && bits.Remaining() >= playerIndexBits {
		index := bits.ReadBits(playerIndexBits)
		if index == playerEnd {
			break
		}
		a := PlayerAdd{Index: uint16(index)}
		a.Update = bits.ReadBit()
		a.Discard = bits.ReadBit()
		a.DY = signed5(bits.ReadBits(5))
		a.DX = signed5(bits.ReadBits(5))
		p.Adds = append(p.Adds, a)
	}
	bits.Finish()
	if err := r.Err(); err != nil {
		return err
	}
	p.Blocks = nil
	if r.Remaining() > 0 {
		p.Blocks = append([]byte(nil), r.ReadRest()...)
	}
	return r.Err()
}

// NpcAdd introduces an NPC into the viewer's local list.
type NpcAdd struct {
	Index   uint16
	DX, DY  int8
	Discard bool
	NpcType uint16
	Update  bool
}

// NpcSynchronization is PlayerSynchronization for NPCs, without a local entry.
type NpcSynchronization struct {
	gamePacket
	Others []Movement
	Adds   []NpcAdd
	Blocks []byte
}

func (*NpcSynchronization) Type() Type { return TypeNpcSynchronization }

func (p *NpcSynchronization) Encode(w *buf.Writer) {
	bits := w.Bits()
	bits.WriteBits(8, uint32(len(p.Others)))
	for _, m := range p.Others {
		writeMovement(bits, m)
	}
	for _, a := range p.Adds {
		bits.WriteBits(npcIndexBits, uint32(a.Index))
		bits.WriteBits(5, uint32(a.DY))
		bits.WriteBits(5, uint32(a.DX))
		bits.WriteBit(a.Discard)
		bits.WriteBits(12, uint32(a.NpcType))
		bits.WriteBit(a.Update)
	}
	if len(p.Blocks) > 0 {
		bits.WriteBits(npcIndexBits, npcEnd)
	}
	w.WriteBytes(p.Blocks)
}

func (p *NpcSynchronization) Decode(r *buf.Reader) error {
	bits := r.Bits()
	p.Others = make([]Movement, bits.ReadBits(8))
	for i := range p.Others {
		p.Others[i] = readMovement(bits, false)
	}
	p.Adds = nil
	for r.Err() == nil && bits.Remaining() >= npcIndexBits {
		index := bits.ReadBits(npcIndexBits)
		if index == npcEnd {
			break
		}
		a := NpcAdd{Index: uint16(index)}
		a.DY = signed5(bits.ReadBits(5))
		a.DX = signed5(bits.ReadBits(5))
		a.Discard = bits.ReadBit()
		a.NpcType = uint16(bits.ReadBits(12))
		a.Update = bits.ReadBit()
		p.Adds = append(p.Adds, a)
	}
	bits.Finish()
	if err := r.Err(); err != nil {
		return err
	}
	p.Blocks = nil
	if r.Remaining() > 0 {
		p.Blocks = append([]byte(nil), r.ReadRest()...)
	}
	return r.Err()
}
