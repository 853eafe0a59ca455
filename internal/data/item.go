package data

import (
	"fmt"
	"strings"

	"github.com/oldscape/server/internal/buf"
)

// ItemTable holds every item definition, indexed by item id.
type ItemTable = Table[ItemDefinition]

// StackVariant swaps the item's appearance once a stack reaches Amount.
type StackVariant struct {
	Item   int `yaml:"item"`
	Amount int `yaml:"amount"`
}

// ItemDefinition is one decoded obj record.
type ItemDefinition struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Value       int32  `yaml:"value"`
	Stackable   bool   `yaml:"stackable"`
	Members     bool   `yaml:"members"`
	Team        int    `yaml:"team,omitempty"`

	// Noted items point at the item they stand for and at the note model.
	NoteOf       int `yaml:"note_of"`
	NoteTemplate int `yaml:"note_template"`

	GroundActions    [5]string `yaml:"ground_actions,flow"`
	InventoryActions [5]string `yaml:"inventory_actions,flow"`

	Model       int         `yaml:"model"`
	ModelZoom   int         `yaml:"model_zoom"`
	ModelPitch  int         `yaml:"model_pitch"`
	ModelYaw    int         `yaml:"model_yaw"`
	ModelRoll   int         `yaml:"model_roll"`
	ModelOffset [2]int      `yaml:"model_offset,flow"`
	Colors      []ColorSwap `yaml:"colors,omitempty"`

	MaleModels       [3]int `yaml:"male_models,flow"`
	FemaleModels     [3]int `yaml:"female_models,flow"`
	MaleOffset       int8   `yaml:"male_offset,omitempty"`
	FemaleOffset     int8   `yaml:"female_offset,omitempty"`
	MaleHeadModels   [2]int `yaml:"male_head_models,flow"`
	FemaleHeadModels [2]int `yaml:"female_head_models,flow"`

	StackVariants []StackVariant `yaml:"stack_variants,omitempty"`
	Scale         [3]int         `yaml:"scale,flow"`
	Ambient       int8           `yaml:"ambient,omitempty"`
	Contrast      int            `yaml:"contrast,omitempty"`
}

// Noted reports whether the item is a bank note.
func (d *ItemDefinition) Noted() bool {
	return d.NoteTemplate != -1
}

func newItemDefinition(id int) *ItemDefinition {
	return &ItemDefinition{
		ID:               id,
		Value:            1,
		NoteOf:           -1,
		NoteTemplate:     -1,
		ModelZoom:        2000,
		MaleModels:       [3]int{-1, -1, -1},
		FemaleModels:     [3]int{-1, -1, -1},
		MaleHeadModels:   [2]int{-1, -1},
		FemaleHeadModels: [2]int{-1, -1},
		Scale:            [3]int{128, 128, 128},
	}
}

// DecodeItems decodes the obj.dat records located by obj.idx. Unknown opcodes
// abort the load.
func DecodeItems(dat, idx []byte) (*ItemTable, error) {
	t, err := decodeTable(dat, idx, decodeItem)
	if err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return t, nil
}

func decodeItem(r *buf.Reader, id int, decoded []*ItemDefinition) (*ItemDefinition, error) {
	d := newItemDefinition(id)
	for {
		op := r.ReadU8()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		switch {
		case op == 0:
			if d.Noted() {
				d.applyNote(decoded)
			}
			return d, nil
		case op == 1:
			d.Model = int(r.ReadU16())
		case op == 2:
			d.Name = r.ReadString()
		case op == 3:
			d.Description = r.ReadString()
		case op == 4:
			d.ModelZoom = int(r.ReadU16())
		case op == 5:
			d.ModelPitch = int(r.ReadU16())
		case op == 6:
			d.ModelYaw = int(r.ReadU16())
		case op == 7:
			d.ModelOffset[0] = int(r.ReadI16())
		case op == 8:
			d.ModelOffset[1] = int(r.ReadI16())
		case op == 10:
			r.ReadU16()
		case op == 11:
			d.Stackable = true
		case op == 12:
			d.Value = r.ReadI32()
		case op == 16:
			d.Members = true
		case op == 23:
			d.MaleModels[0] = int(r.ReadU16())
			d.MaleOffset = r.ReadI8()
		case op == 24:
			d.MaleModels[1] = int(r.ReadU16())
		case op == 25:
			d.FemaleModels[0] = int(r.ReadU16())
			d.FemaleOffset = r.ReadI8()
		case op == 26:
			d.FemaleModels[1] = int(r.ReadU16())
		case op >= 30 && op < 35:
			d.GroundActions[op-30] = readAction(r)
		case op >= 35 && op < 40:
			d.InventoryActions[op-35] = r.ReadString()
		case op == 40:
			d.Colors = readColors(r)
		case op == 78:
			d.MaleModels[2] = int(r.ReadU16())
		case op == 79:
			d.FemaleModels[2] = int(r.ReadU16())
		case op == 90:
			d.MaleHeadModels[0] = int(r.ReadU16())
		case op == 91:
			d.FemaleHeadModels[0] = int(r.ReadU16())
		case op == 92:
			d.MaleHeadModels[1] = int(r.ReadU16())
		case op == 93:
			d.FemaleHeadModels[1] = int(r.ReadU16())
		case op == 95:
			d.ModelRoll = int(r.ReadU16())
		case op == 97:
			d.NoteOf = int(r.ReadU16())
		case op == 98:
			d.NoteTemplate = int(r.ReadU16())
		case op >= 100 && op < 110:
			d.StackVariants = append(d.StackVariants, StackVariant{
				Item:   int(r.ReadU16()),
				Amount: int(r.ReadU16()),
			})
		case op >= 110 && op <= 112:
			d.Scale[op-110] = int(r.ReadU16())
		case op == 113:
			d.Ambient = r.ReadI8()
		case op == 114:
			d.Contrast = int(r.ReadI8()) * 5
		case op == 115:
			d.Team = int(r.ReadU8())
		default:
			return nil, &UnknownOpcodeError{Kind: "item", ID: id, Opcode: op}
		}
	}
}

// applyNote copies the note model from the template and the name and value
// from the item the note stands for. Both must have been decoded already;
// references to later ids are left unresolved.
func (d *ItemDefinition) applyNote(decoded []*ItemDefinition) {
	d.Stackable = true
	if d.NoteTemplate < len(decoded) {
		tmpl := decoded[d.NoteTemplate]
		d.Model = tmpl.Model
		d.ModelZoom = tmpl.ModelZoom
		d.ModelPitch = tmpl.ModelPitch
		d.ModelYaw = tmpl.ModelYaw
		d.ModelRoll = tmpl.ModelRoll
		d.ModelOffset = tmpl.ModelOffset
		d.Colors = tmpl.Colors
	}
	if d.NoteOf < 0 || d.NoteOf >= len(decoded) {
		return
	}
	item := decoded[d.NoteOf]
	d.Name = item.Name
	d.Value = item.Value
	d.Members = item.Members
	article := "a"
	if item.Name != "" && strings.ContainsRune("AEIOU", rune(item.Name[0])) {
		article = "an"
	}
	d.Description = fmt.Sprintf("Swap this note at any bank for %s %s.", article, item.Name)
}
