// Package data decodes the content definitions stored in the cache: items,
// objects, NPCs and the map index, terrain and object placements of each
// region. Every table is built once at startup and is read-only afterwards.
package data

import (
	"fmt"
	"strings"

	"github.com/oldscape/server/internal/buf"
)

// UnknownOpcodeError reports an opcode outside a closed definition format.
type UnknownOpcodeError struct {
	Kind   string
	ID     int
	Opcode byte
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("%s %d: unknown opcode %d", e.Kind, e.ID, e.Opcode)
}

// ColorSwap replaces one model colour with another.
type ColorSwap struct {
	From uint16 `yaml:"from"`
	To   uint16 `yaml:"to"`
}

// Table is a dense, id-indexed definition table.
type Table[T any] struct {
	defs []*T
}

// Get returns the definition with the given id, or nil if out of range.
func (t *Table[T]) Get(id int) *T {
	if id < 0 || id >= len(t.defs) {
		return nil
	}
	return t.defs[id]
}

// Count returns the number of definitions.
func (t *Table[T]) Count() int {
	return len(t.defs)
}

// All returns the definitions in id order. The slice must not be modified.
func (t *Table[T]) All() []*T {
	return t.defs
}

// recordOffsets reads an idx entry: a u16 record count then one u16 length per
// record. Records in the dat entry start at offset 2, back to back.
func recordOffsets(idx []byte) ([]int, error) {
	r := buf.NewReader(idx)
	count := int(r.ReadU16())
	offsets := make([]int, count)
	offset := 2
	for i := range offsets {
		offsets[i] = offset
		offset += int(r.ReadU16())
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("offset table: %w", err)
	}
	return offsets, nil
}

// decodeFunc decodes the record with the given id. decoded holds every
// record before it.
type decodeFunc[T any] func(r *buf.Reader, id int, decoded []*T) (*T, error)

func decodeTable[T any](dat, idx []byte, decode decodeFunc[T]) (*Table[T], error) {
	offsets, err := recordOffsets(idx)
	if err != nil {
		return nil, err
	}
	t := &Table[T]{defs: make([]*T, 0, len(offsets))}
	r := buf.NewReader(dat)
	for id, offset := range offsets {
		r.SetOffset(offset)
		def, err := decode(r, id, t.defs)
		if err != nil {
			return nil, err
		}
		t.defs = append(t.defs, def)
	}
	return t, nil
}

// readAction reads a menu option; "hidden" means no option.
func readAction(r *buf.Reader) string {
	s := r.ReadString()
	if strings.EqualFold(s, "hidden") {
		return ""
	}
	return s
}

func readColors(r *buf.Reader) []ColorSwap {
	n := int(r.ReadU8())
	colors := make([]ColorSwap, n)
	for i := range colors {
		colors[i] = ColorSwap{From: r.ReadU16(), To: r.ReadU16()}
	}
	return colors
}

// readMorphs reads a varbit/varp controlled transformation list. 65535 is -1.
func readMorphs(r *buf.Reader) (varbit, varp int, morphs []int) {
	varbit = optionalU16(r)
	varp = optionalU16(r)
	n := int(r.ReadU8())
	morphs = make([]int, n+1)
	for i := range morphs {
		morphs[i] = optionalU16(r)
	}
	return varbit, varp, morphs
}

func optionalU16(r *buf.Reader) int {
	v := r.ReadU16()
	if v == 0xFFFF {
		return -1
	}
	return int(v)
}

func readModels(r *buf.Reader) []int {
	n := int(r.ReadU8())
	models := make([]int, n)
	for i := range models {
		models[i] = int(r.ReadU16())
	}
	return models
}
