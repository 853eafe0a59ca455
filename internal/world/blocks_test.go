package world

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/text"
)

func TestChatBlockLayout(t *testing.T) {
	w := buf.NewWriter(16)
	u := &component.Update{Chat: &component.ChatMessage{Effects: 1, Color: 2, Text: []byte{0xAB, 0xCD}}}
	require.True(t, WriteUpdateBlock(w, u, nil, 0, false))
	assert.Equal(t, []byte{0x80, 0x01, 0x02, 0x00, 0xFE, 0xCD, 0xAB}, w.Bytes())
}

func TestAppearanceBlockLayout(t *testing.T) {
	app := DefaultAppearance()
	hash := text.EncodeBase37("zezima")
	w := buf.NewWriter(64)
	require.True(t, WriteUpdateBlock(w, &component.Update{}, &app, hash, true))

	b := w.Bytes()
	require.Len(t, b, 2+51)
	assert.Equal(t, byte(BlockAppearance), b[0])
	assert.Equal(t, byte(256-51), b[1])

	body := b[2:]
	assert.Equal(t, []byte{0, 0}, body[0:2], "gender and head icon")
	assert.Equal(t, []byte{0, 0, 0, 0}, body[2:6], "hat, cape, amulet, weapon")
	assert.Equal(t, []byte{0x01, 18}, body[6:8], "torso")
	assert.Equal(t, byte(0), body[8], "shield")
	assert.Equal(t, []byte{0x01, 26}, body[9:11], "arms")
	assert.Equal(t, []byte{0x01, 42}, body[17:19], "feet")
	assert.Equal(t, []byte{0x01, 10}, body[19:21], "beard")
	assert.Equal(t, []byte{7, 8, 9, 5, 0}, body[21:26])
	assert.Equal(t, []byte{0x03, 0x28}, body[26:28], "stand animation")

	tail := body[len(body)-11:]
	assert.Equal(t, hash, binary.BigEndian.Uint64(tail[:8]))
	assert.Equal(t, byte(3), tail[8])
	assert.Equal(t, uint16(30), binary.BigEndian.Uint16(tail[9:]))
}

func TestFemaleAppearanceHasNoBeard(t *testing.T) {
	app := DefaultAppearance()
	app.Gender = 1
	w := buf.NewWriter(64)
	WriteUpdateBlock(w, &component.Update{Appearance: true}, &app, 1, false)
	assert.Equal(t, 2+50, w.Len())
}

func TestChatPrecedesAppearance(t *testing.T) {
	app := DefaultAppearance()
	u := &component.Update{Appearance: true, Chat: &component.ChatMessage{Text: []byte{1}}}
	w := buf.NewWriter(64)
	WriteUpdateBlock(w, u, &app, 1, false)

	b := w.Bytes()
	assert.Equal(t, byte(BlockChat|BlockAppearance), b[0])
	assert.Equal(t, []byte{0, 0, 0, 0xFF, 1}, b[1:6])
	assert.Equal(t, byte(256-51), b[6])
}

func TestNoBlocksWritesNothing(t *testing.T) {
	w := buf.NewWriter(4)
	assert.False(t, WriteUpdateBlock(w, &component.Update{}, nil, 0, false))
	assert.Zero(t, w.Len())
}

func TestDefaultSkills(t *testing.T) {
	s := DefaultSkills()
	assert.Equal(t, byte(10), s.Levels[SkillHitpoints])
	assert.Equal(t, uint32(1154), s.Experience[SkillHitpoints])
	assert.Equal(t, uint16(30), SkillTotal(&s))
}
