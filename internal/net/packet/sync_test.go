package packet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/net/packet"
)

func TestPlayerSynchronizationBits(t *testing.T) {
	p := &packet.PlayerSynchronization{
		Local:  packet.Movement{Kind: packet.MoveWalk, Direction: 1},
		Others: []packet.Movement{{}, {Kind: packet.MoveRemove}},
		Adds:   []packet.PlayerAdd{{Index: 5, Update: true, Discard: true, DX: -1, DY: 2}},
		Blocks: []byte{0xAA},
	}
	want := []byte{0xA4, 0x04, 0xE0, 0x17, 0x17, 0xFF, 0xF8, 0xAA}

	assert.Equal(t, want, encode(p))
	assert.Equal(t, p, decode(t, packet.TypePlayerSynchronization, want))
}

func TestPlayerSynchronizationTeleport(t *testing.T) {
	p := &packet.PlayerSynchronization{
		Local: packet.Movement{
			Kind:    packet.MoveTeleport,
			Plane:   2,
			Discard: true,
			LocalX:  70,
			LocalY:  50,
		},
		Others: []packet.Movement{},
	}
	want := []byte{0xF4, 0xCA, 0x30, 0x00}

	assert.Equal(t, want, encode(p))
	assert.Equal(t, p, decode(t, packet.TypePlayerSynchronization, want))
}

func TestPlayerSynchronizationIdle(t *testing.T) {
	p := &packet.PlayerSynchronization{Others: []packet.Movement{}}
	data := encode(p)
	assert.Equal(t, []byte{0x00, 0x00}, data)
	assert.Equal(t, p, decode(t, packet.TypePlayerSynchronization, data))
}

func TestNpcSynchronizationBits(t *testing.T) {
	p := &packet.NpcSynchronization{
		Others: []packet.Movement{{Kind: packet.MoveWalk, Direction: 6, Update: true}},
		Adds:   []packet.NpcAdd{{Index: 300, DY: -3, DX: 4, NpcType: 1234, Update: true}},
	}
	want := []byte{0x01, 0xBA, 0x09, 0x67, 0x48, 0x4D, 0x28}

	assert.Equal(t, want, encode(p))
	assert.Equal(t, p, decode(t, packet.TypeNpcSynchronization, want))
}

func TestNpcSynchronizationWithBlocks(t *testing.T) {
	p := &packet.NpcSynchronization{
		Others: []packet.Movement{{Update: true}, {Kind: packet.MoveRun, Direction: 3, Run: 4}},
		Blocks: []byte{0x10, 0x20},
	}
	assert.Equal(t, p, decode(t, packet.TypeNpcSynchronization, encode(p)))
}

func TestSynchronizationHighestIndexBeforeTerminator(t *testing.T) {
	players := &packet.PlayerSynchronization{
		Others: []packet.Movement{},
		Adds:   []packet.PlayerAdd{{Index: 2046, Update: true, Discard: true, DX: 3, DY: -2}},
		Blocks: []byte{0x10},
	}
	assert.Equal(t, players, decode(t, packet.TypePlayerSynchronization, encode(players)))

	npcs := &packet.NpcSynchronization{
		Others: []packet.Movement{},
		Adds:   []packet.NpcAdd{{Index: 16382, DX: 1, DY: 1, Discard: true, NpcType: 50}},
		Blocks: []byte{0x10},
	}
	assert.Equal(t, npcs, decode(t, packet.TypeNpcSynchronization, encode(npcs)))
}

func TestSynchronizationTruncated(t *testing.T) {
	var p packet.PlayerSynchronization
	err := p.Decode(buf.NewReader([]byte{0xA4}))
	require.Error(t, err)
	assert.ErrorIs(t, err, buf.ErrUnderflow)
}
