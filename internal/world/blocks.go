package world

import (
	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/component"
)

// Player update block mask bits, in the order the client reads them.
const (
	BlockChat       = 0x80
	BlockAppearance = 0x10
	blockWideMask   = 0x40
)

// Skill indices used outside the skill table.
const (
	SkillHitpoints = 3
	SkillCount     = component.SkillCount
)

// Equipment slot styles: the body part each appearance slot shows when no
// item covers it, indexed by equipment slot. -1 slots show nothing.
var slotStyle = [12]int{-1, -1, -1, -1, 2, -1, 3, 5, 0, 4, 6, 1}

// Stand, turn and walk animations sent in every appearance block.
var defaultAnimations = [7]uint16{0x328, 0x337, 0x333, 0x334, 0x335, 0x336, 0x338}

// DefaultAppearance is the look of a fresh male character.
func DefaultAppearance() component.Appearance {
	return component.Appearance{
		Styles:      [7]byte{0, 10, 18, 26, 33, 36, 42},
		Colors:      [5]byte{7, 8, 9, 5, 0},
		CombatLevel: 3,
		SkillTotal:  30,
	}
}

// DefaultSkills gives every skill level 1 except hitpoints at 10.
func DefaultSkills() component.Skills {
	var s component.Skills
	for i := range s.Levels {
		s.Levels[i] = 1
	}
	s.Levels[SkillHitpoints] = 10
	s.Experience[SkillHitpoints] = 1154
	return s
}

// SkillTotal sums the skill levels.
func SkillTotal(s *component.Skills) uint16 {
	var total uint16
	for _, l := range s.Levels {
		total += uint16(l)
	}
	return total
}

// WriteUpdateBlock appends one player's update block. Blocks not raised in
// u are skipped unless forceAppearance is set, which new viewers need.
// Nothing is written when no block applies.
func WriteUpdateBlock(w *buf.Writer, u *component.Update, app *component.Appearance, nameHash uint64, forceAppearance bool) bool {
	mask := 0
	if u.Chat != nil {
		mask |= BlockChat
	}
	if u.Appearance || forceAppearance {
		mask |= BlockAppearance
	}
	if mask == 0 {
		return false
	}
	if mask > 0xFF {
		mask |= blockWideMask
		w.WriteU16T(uint16(mask), buf.LittleEndian, buf.Plain)
	} else {
		w.WriteU8(byte(mask))
	}

	if mask&BlockChat != 0 {
		writeChat(w, u.Chat)
	}
	if mask&BlockAppearance != 0 {
		writeAppearance(w, app, nameHash)
	}
	return true
}

func writeChat(w *buf.Writer, c *component.ChatMessage) {
	w.WriteU16T(uint16(c.Color)<<8|uint16(c.Effects), buf.LittleEndian, buf.Plain)
	w.WriteU8(c.Rights)
	w.WriteU8T(byte(len(c.Text)), buf.Negate)
	w.WriteBytesReverse(c.Text, buf.Plain)
}

func writeAppearance(w *buf.Writer, a *component.Appearance, nameHash uint64) {
	block := buf.NewWriter(64)
	block.WriteU8(a.Gender)
	block.WriteU8(a.HeadIcon)
	for slot, style := range slotStyle {
		// Females have no beard.
		if style < 0 || (slot == 11 && a.Gender != 0) {
			block.WriteU8(0)
			continue
		}
		block.WriteU16(0x100 + uint16(a.Styles[style]))
	}
	for _, c := range a.Colors {
		block.WriteU8(c)
	}
	for _, anim := range defaultAnimations {
		block.WriteU16(anim)
	}
	block.WriteU64(nameHash)
	block.WriteU8(a.CombatLevel)
	block.WriteU16(a.SkillTotal)

	w.WriteU8T(byte(block.Len()), buf.Negate)
	w.WriteBytes(block.Bytes())
}
