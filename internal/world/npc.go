package world

import (
	"errors"
	"math/rand/v2"

	"github.com/oldscape/server/internal/component"
)

// MaxNpcs is the largest assignable NPC index. The 14-bit NPC list reserves
// 16383 as its add-list terminator.
const MaxNpcs = 1<<14 - 2

var ErrNpcLimit = errors.New("npc limit reached")

// Npc holds runtime data for an NPC in the world.
// Game loop only.
type Npc struct {
	Index  int
	Type   int // definition id
	Name   string
	Pos    component.Position
	Home   component.Position
	Radius int // wander distance from Home, 0 = stationary

	WalkDir int
}

// AddNpc places an NPC of the given type at pos.
func (s *State) AddNpc(typ int, name string, pos component.Position, radius int) (*Npc, error) {
	if len(s.npcs) >= MaxNpcs {
		return nil, ErrNpcLimit
	}
	n := &Npc{
		Index:   len(s.npcs) + 1,
		Type:    typ,
		Name:    name,
		Pos:     pos,
		Home:    pos,
		Radius:  radius,
		WalkDir: DirNone,
	}
	s.npcs = append(s.npcs, n)
	s.npcByIndex[n.Index] = n
	return n, nil
}

func (s *State) NpcByIndex(index int) (*Npc, bool) {
	n, ok := s.npcByIndex[index]
	return n, ok
}

func (s *State) NpcCount() int { return len(s.npcs) }

// EachNpc visits NPCs in index order.
func (s *State) EachNpc(fn func(*Npc)) {
	for _, n := range s.npcs {
		fn(n)
	}
}

// NearbyNpcs returns the NPCs within view of pos, in index order.
func (s *State) NearbyNpcs(pos component.Position) []*Npc {
	var out []*Npc
	for _, n := range s.npcs {
		if WithinDistance(pos, n.Pos, ViewDistance) {
			out = append(out, n)
		}
	}
	return out
}

// Wander picks the NPC's step for this tick. Roughly one tick in eight a
// wandering NPC tries a random direction that keeps it inside its radius
// and on a walkable tile.
func (n *Npc) Wander(rng *rand.Rand, walkable func(component.Position) bool) {
	n.WalkDir = DirNone
	if n.Radius == 0 || rng.IntN(8) != 0 {
		return
	}
	dir := rng.IntN(8)
	next := Step(n.Pos, dir)
	if !WithinDistance(n.Home, next, n.Radius) || !walkable(next) {
		return
	}
	n.Pos = next
	n.WalkDir = dir
}
