package packet

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrUnknownType   = errors.New("unknown packet type")
	ErrDuplicateID   = errors.New("duplicate packet id")
	ErrDuplicateType = errors.New("duplicate packet type")
	ErrMalformed     = errors.New("malformed packet")
	ErrFixedLength   = errors.New("fixed length mismatch")
)

// FixedLengthError reports a fixed-size packet whose payload has the wrong size.
type FixedLengthError struct {
	Type     Type
	Expected int
	Actual   int
}

func (e *FixedLengthError) Error() string {
	return fmt.Sprintf("%s: fixed length %d, payload is %d bytes", e.Type, e.Expected, e.Actual)
}

func (e *FixedLengthError) Unwrap() error { return ErrFixedLength }

// Entry binds a packet type to its wire id and framing.
type Entry struct {
	ID      ID
	Type    Type
	Framing Framing
}

// Registry maps wire ids to packet types and back. It is immutable once built
// and safe for concurrent use.
type Registry struct {
	byID   map[ID]Entry
	byType map[Type]Entry
}

// NewRegistry builds a registry, rejecting any id or type that appears twice.
func NewRegistry(entries []Entry) (*Registry, error) {
	reg := &Registry{
		byID:   make(map[ID]Entry, len(entries)),
		byType: make(map[Type]Entry, len(entries)),
	}
	for _, e := range entries {
		if e.Type == TypeInvalid || e.Type >= typeCount {
			return nil, fmt.Errorf("%w: %d at %s", ErrUnknownType, e.Type, e.ID)
		}
		if prev, ok := reg.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateID, e.ID, prev.Type, e.Type)
		}
		if prev, ok := reg.byType[e.Type]; ok {
			return nil, fmt.Errorf("%w: %s at %s and %s", ErrDuplicateType, e.Type, prev.ID, e.ID)
		}
		reg.byID[e.ID] = e
		reg.byType[e.Type] = e
	}
	return reg, nil
}

// DefaultRegistry builds the registry for client build 317.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Catalogue())
}

// MustDefaultRegistry is DefaultRegistry for process start, where a broken
// catalogue is a programming error.
func MustDefaultRegistry() *Registry {
	reg, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup resolves a wire id.
func (reg *Registry) Lookup(id ID) (Entry, error) {
	e, ok := reg.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownOpcode, id)
	}
	return e, nil
}

// EntryFor resolves a packet type to its wire id and framing.
func (reg *Registry) EntryFor(t Type) (Entry, error) {
	e, ok := reg.byType[t]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return e, nil
}

// Entries returns every registered entry in no particular order.
func (reg *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(reg.byID))
	for _, e := range reg.byID {
		out = append(out, e)
	}
	return out
}
