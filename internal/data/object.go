package data

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
)

// ObjectTable holds every scenery object definition, indexed by object id.
type ObjectTable = Table[ObjectDefinition]

// ObjectDefinition is one decoded loc record.
type ObjectDefinition struct {
	ID          int       `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Actions     [5]string `yaml:"actions,flow"`
	Interactive bool      `yaml:"interactive"`

	Width        int  `yaml:"width"`
	Length       int  `yaml:"length"`
	Solid        bool `yaml:"solid"`
	Impenetrable bool `yaml:"impenetrable"`
	Hollow       bool `yaml:"hollow"`
	Surroundings int  `yaml:"surroundings,omitempty"`

	// SupportsItems is 1 when items can be placed on the object.
	SupportsItems int `yaml:"supports_items"`

	Models     []int       `yaml:"models,flow"`
	ModelTypes []int       `yaml:"model_types,flow,omitempty"`
	Colors     []ColorSwap `yaml:"colors,omitempty"`
	Animation  int         `yaml:"animation"`
	Scale      [3]int      `yaml:"scale,flow"`
	Translate  [3]int      `yaml:"translate,flow"`

	ContouredGround   bool `yaml:"contoured_ground,omitempty"`
	DelayShading      bool `yaml:"delay_shading,omitempty"`
	Occludes          bool `yaml:"occludes,omitempty"`
	Inverted          bool `yaml:"inverted,omitempty"`
	CastsShadow       bool `yaml:"casts_shadow"`
	ObstructsGround   bool `yaml:"obstructs_ground,omitempty"`
	DecorDisplacement int  `yaml:"decor_displacement"`
	Ambient           int8 `yaml:"ambient,omitempty"`
	Contrast          int  `yaml:"contrast,omitempty"`

	MapFunction int `yaml:"map_function"`
	MapScene    int `yaml:"map_scene"`

	Varbit int   `yaml:"varbit"`
	Varp   int   `yaml:"varp"`
	Morphs []int `yaml:"morphs,flow,omitempty"`
}

func newObjectDefinition(id int) *ObjectDefinition {
	return &ObjectDefinition{
		ID:                id,
		Width:             1,
		Length:            1,
		Solid:             true,
		Impenetrable:      true,
		SupportsItems:     -1,
		Animation:         -1,
		Scale:             [3]int{128, 128, 128},
		CastsShadow:       true,
		DecorDisplacement: 16,
		MapFunction:       -1,
		MapScene:          -1,
		Varbit:            -1,
		Varp:              -1,
	}
}

// DecodeObjects decodes the loc.dat records located by loc.idx. Opcodes
// outside the known set are skipped.
func DecodeObjects(dat, idx []byte) (*ObjectTable, error) {
	t, err := decodeTable(dat, idx, decodeObject)
	if err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}
	return t, nil
}

func decodeObject(r *buf.Reader, id int, _ []*ObjectDefinition) (*ObjectDefinition, error) {
	d := newObjectDefinition(id)
	interactive := -1
	for {
		op := r.ReadU8()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("object %d: %w", id, err)
		}
		switch {
		case op == 0:
			d.finish(interactive)
			return d, nil
		case op == 1:
			n := int(r.ReadU8())
			d.Models = make([]int, n)
			d.ModelTypes = make([]int, n)
			for i := 0; i < n; i++ {
				d.Models[i] = int(r.ReadU16())
				d.ModelTypes[i] = int(r.ReadU8())
			}
		case op == 2:
			d.Name = r.ReadString()
		case op == 3:
			d.Description = r.ReadString()
		case op == 5:
			d.Models = readModels(r)
			d.ModelTypes = nil
		case op == 14:
			d.Width = int(r.ReadU8())
		case op == 15:
			d.Length = int(r.ReadU8())
		case op == 17:
			d.Solid = false
		case op == 18:
			d.Impenetrable = false
		case op == 19:
			interactive = int(r.ReadU8())
		case op == 21:
			d.ContouredGround = true
		case op == 22:
			d.DelayShading = true
		case op == 23:
			d.Occludes = true
		case op == 24:
			d.Animation = optionalU16(r)
		case op == 28:
			d.DecorDisplacement = int(r.ReadU8())
		case op == 29:
			d.Ambient = r.ReadI8()
		case op == 39:
			d.Contrast = int(r.ReadI8()) * 25
		case op >= 30 && op < 39:
			a := readAction(r)
			if op < 35 {
				d.Actions[op-30] = a
			}
		case op == 40:
			d.Colors = readColors(r)
		case op == 60:
			d.MapFunction = int(r.ReadU16())
		case op == 62:
			d.Inverted = true
		case op == 64:
			d.CastsShadow = false
		case op >= 65 && op <= 67:
			d.Scale[op-65] = int(r.ReadU16())
		case op == 68:
			d.MapScene = int(r.ReadU16())
		case op == 69:
			d.Surroundings = int(r.ReadU8())
		case op >= 70 && op <= 72:
			d.Translate[op-70] = int(r.ReadI16())
		case op == 73:
			d.ObstructsGround = true
		case op == 74:
			d.Hollow = true
		case op == 75:
			d.SupportsItems = int(r.ReadU8())
		case op == 77:
			d.Varbit, d.Varp, d.Morphs = readMorphs(r)
		}
	}
}

// finish resolves the derived flags once the record is complete. An explicit
// opcode 19 wins; otherwise objects with a centrepiece model or any action are
// interactive. Hollow objects never block movement or projectiles.
func (d *ObjectDefinition) finish(interactive int) {
	if interactive == -1 {
		d.Interactive = len(d.Models) > 0 && (d.ModelTypes == nil || d.ModelTypes[0] == 10)
		for _, a := range d.Actions {
			if a != "" {
				d.Interactive = true
				break
			}
		}
	} else {
		d.Interactive = interactive == 1
	}
	if d.Hollow {
		d.Solid = false
		d.Impenetrable = false
	}
	if d.SupportsItems == -1 {
		d.SupportsItems = 0
		if d.Solid {
			d.SupportsItems = 1
		}
	}
}
