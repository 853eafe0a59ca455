package data

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
)

// NpcTable holds every NPC definition, indexed by NPC id.
type NpcTable = Table[NpcDefinition]

// NpcDefinition is one decoded npc record.
type NpcDefinition struct {
	ID          int       `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	CombatLevel int       `yaml:"combat_level"`
	Size        int       `yaml:"size"`
	Actions     [5]string `yaml:"actions,flow"`

	Models     []int       `yaml:"models,flow"`
	HeadModels []int       `yaml:"head_models,flow,omitempty"`
	Colors     []ColorSwap `yaml:"colors,omitempty"`
	Scale      [2]int      `yaml:"scale,flow"`

	StandAnimation      int `yaml:"stand_animation"`
	WalkAnimation       int `yaml:"walk_animation"`
	TurnAroundAnimation int `yaml:"turn_around_animation"`
	TurnRightAnimation  int `yaml:"turn_right_animation"`
	TurnLeftAnimation   int `yaml:"turn_left_animation"`
	TurnDegrees         int `yaml:"turn_degrees"`

	MinimapVisible bool `yaml:"minimap_visible"`
	Priority       bool `yaml:"priority,omitempty"`
	Clickable      bool `yaml:"clickable"`
	HeadIcon       int  `yaml:"head_icon"`
	Ambient        int8 `yaml:"ambient,omitempty"`
	Contrast       int  `yaml:"contrast,omitempty"`

	Varbit int   `yaml:"varbit"`
	Varp   int   `yaml:"varp"`
	Morphs []int `yaml:"morphs,flow,omitempty"`
}

func newNpcDefinition(id int) *NpcDefinition {
	return &NpcDefinition{
		ID:                  id,
		CombatLevel:         -1,
		Size:                1,
		Scale:               [2]int{128, 128},
		StandAnimation:      -1,
		WalkAnimation:       -1,
		TurnAroundAnimation: -1,
		TurnRightAnimation:  -1,
		TurnLeftAnimation:   -1,
		TurnDegrees:         32,
		MinimapVisible:      true,
		Clickable:           true,
		HeadIcon:            -1,
		Varbit:              -1,
		Varp:                -1,
	}
}

// DecodeNpcs decodes the npc.dat records located by npc.idx. Unknown opcodes
// abort the load.
func DecodeNpcs(dat, idx []byte) (*NpcTable, error) {
	t, err := decodeTable(dat, idx, decodeNpc)
	if err != nil {
		return nil, fmt.Errorf("decode npcs: %w", err)
	}
	return t, nil
}

func decodeNpc(r *buf.Reader, id int, _ []*NpcDefinition) (*NpcDefinition, error) {
	d := newNpcDefinition(id)
	for {
		op := r.ReadU8()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("npc %d: %w", id, err)
		}
		switch {
		case op == 0:
			return d, nil
		case op == 1:
			d.Models = readModels(r)
		case op == 2:
			d.Name = r.ReadString()
		case op == 3:
			d.Description = r.ReadString()
		case op == 12:
			d.Size = int(r.ReadI8())
		case op == 13:
			d.StandAnimation = int(r.ReadU16())
		case op == 14:
			d.WalkAnimation = int(r.ReadU16())
		case op == 17:
			d.WalkAnimation = int(r.ReadU16())
			d.TurnAroundAnimation = int(r.ReadU16())
			d.TurnRightAnimation = int(r.ReadU16())
			d.TurnLeftAnimation = int(r.ReadU16())
		case op >= 30 && op < 35:
			d.Actions[op-30] = readAction(r)
		case op == 40:
			d.Colors = readColors(r)
		case op == 60:
			d.HeadModels = readModels(r)
		case op >= 90 && op <= 92:
			r.ReadU16()
		case op == 93:
			d.MinimapVisible = false
		case op == 95:
			d.CombatLevel = int(r.ReadU16())
		case op == 97:
			d.Scale[0] = int(r.ReadU16())
		case op == 98:
			d.Scale[1] = int(r.ReadU16())
		case op == 99:
			d.Priority = true
		case op == 100:
			d.Ambient = r.ReadI8()
		case op == 101:
			d.Contrast = int(r.ReadI8()) * 5
		case op == 102:
			d.HeadIcon = int(r.ReadU16())
		case op == 103:
			d.TurnDegrees = int(r.ReadU16())
		case op == 106:
			d.Varbit, d.Varp, d.Morphs = readMorphs(r)
		case op == 107:
			d.Clickable = false
		default:
			return nil, &UnknownOpcodeError{Kind: "npc", ID: id, Opcode: op}
		}
	}
}
