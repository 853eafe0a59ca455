package world

import (
	"errors"
	"sort"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/text"
)

// MaxPlayers is the largest assignable player index. The 11-bit player list
// reserves 2047 as its add-list terminator.
const MaxPlayers = 1<<11 - 2

var (
	ErrWorldFull      = errors.New("world is full")
	ErrAlreadyOnline  = errors.New("player already online")
	ErrUnknownSession = errors.New("no player for session")
)

// Spawn is where new players appear.
var Spawn = component.Position{X: 3222, Y: 3218}

// State tracks every player in the world: the ECS stores holding their
// components plus lookups by index, name and session.
// Single-goroutine access only (game loop).
type State struct {
	ECS *ecs.World

	Sessions    *ecs.Store[component.SessionRef]
	Players     *ecs.Store[component.Player]
	Accounts    *ecs.Store[component.Account]
	Socials     *ecs.Store[component.Social]
	Positions   *ecs.Store[component.Position]
	Movements   *ecs.Store[component.Movement]
	Appearances *ecs.Store[component.Appearance]
	Updates     *ecs.Store[component.Update]
	Viewports   *ecs.Store[component.Viewport]
	Skills      *ecs.Store[component.Skills]

	grid      *AOIGrid
	capacity  int
	occupied  int
	indices   [MaxPlayers + 1]ecs.EntityID // index 0 is never used
	byName    map[uint64]ecs.EntityID
	bySession map[uint64]ecs.EntityID
	leaving   map[ecs.EntityID]struct{}

	npcs       []*Npc
	npcByIndex map[int]*Npc
}

// NewState creates an empty world admitting at most capacity players.
func NewState(capacity int) *State {
	if capacity <= 0 || capacity > MaxPlayers {
		capacity = MaxPlayers
	}
	w := ecs.NewWorld()
	reg := w.Registry()
	s := &State{
		ECS:         w,
		Sessions:    ecs.Register[component.SessionRef](reg),
		Players:     ecs.Register[component.Player](reg),
		Accounts:    ecs.Register[component.Account](reg),
		Socials:     ecs.Register[component.Social](reg),
		Positions:   ecs.Register[component.Position](reg),
		Movements:   ecs.Register[component.Movement](reg),
		Appearances: ecs.Register[component.Appearance](reg),
		Updates:     ecs.Register[component.Update](reg),
		Viewports:   ecs.Register[component.Viewport](reg),
		Skills:      ecs.Register[component.Skills](reg),
		grid:        NewAOIGrid(),
		capacity:    capacity,
		byName:      make(map[uint64]ecs.EntityID, 256),
		bySession:   make(map[uint64]ecs.EntityID, 256),
		leaving:     make(map[ecs.EntityID]struct{}),
		npcByIndex:  make(map[int]*Npc),
	}
	w.OnDestroy(s.release)
	return s
}

// NewPlayer is everything needed to bring a player into the world.
type NewPlayer struct {
	SessionID  uint64
	Account    component.Account
	Social     component.Social
	Position   component.Position
	Appearance component.Appearance
	Skills     component.Skills
}

// AddPlayer creates a player entity and gives it the lowest free index.
func (s *State) AddPlayer(np NewPlayer) (ecs.EntityID, error) {
	hash := text.EncodeBase37(np.Account.Name)
	if _, ok := s.byName[hash]; ok {
		return 0, ErrAlreadyOnline
	}
	index := s.freeIndex()
	if index == 0 {
		return 0, ErrWorldFull
	}

	id := s.ECS.CreateEntity()
	s.indices[index] = id
	s.occupied++
	s.byName[hash] = id
	s.bySession[np.SessionID] = id

	pos := np.Position
	acct := np.Account
	social := np.Social
	app := np.Appearance
	skills := np.Skills
	s.Sessions.Set(id, &component.SessionRef{SessionID: np.SessionID})
	s.Players.Set(id, &component.Player{Index: index, Name: text.FormatName(np.Account.Name), NameHash: hash})
	s.Accounts.Set(id, &acct)
	s.Socials.Set(id, &social)
	s.Positions.Set(id, &pos)
	s.Movements.Set(id, &component.Movement{WalkDir: DirNone, RunDir: DirNone, Teleported: true, RegionChanged: true})
	s.Appearances.Set(id, &app)
	s.Updates.Set(id, &component.Update{Appearance: true})
	s.Viewports.Set(id, &component.Viewport{})
	s.Skills.Set(id, &skills)
	s.grid.Add(id, pos.X, pos.Y, pos.Plane)
	return id, nil
}

func (s *State) freeIndex() int {
	if s.occupied >= s.capacity {
		return 0
	}
	for i := 1; i <= MaxPlayers; i++ {
		if s.indices[i].IsZero() {
			return i
		}
	}
	return 0
}

// RemovePlayer takes a player out of the lookups at once and queues the
// entity for destruction at the end of the tick. Until then other players'
// viewports see it as leaving.
func (s *State) RemovePlayer(id ecs.EntityID) {
	if !s.ECS.Alive(id) {
		return
	}
	if _, ok := s.leaving[id]; ok {
		return
	}
	s.leaving[id] = struct{}{}
	if p, ok := s.Players.Get(id); ok {
		delete(s.byName, p.NameHash)
	}
	if ref, ok := s.Sessions.Get(id); ok {
		delete(s.bySession, ref.SessionID)
	}
	if pos, ok := s.Positions.Get(id); ok {
		s.grid.Remove(id, pos.X, pos.Y, pos.Plane)
	}
	s.ECS.MarkForDestruction(id)
}

// release frees the player's index once the entity is destroyed.
func (s *State) release(id ecs.EntityID) {
	if p, ok := s.Players.Get(id); ok && s.indices[p.Index] == id {
		s.indices[p.Index] = 0
		s.occupied--
	}
	delete(s.leaving, id)
}

// Leaving reports whether a player has been removed this tick.
func (s *State) Leaving(id ecs.EntityID) bool {
	_, ok := s.leaving[id]
	return ok
}

// Active reports whether id is a player still in the world.
func (s *State) Active(id ecs.EntityID) bool {
	return s.ECS.Alive(id) && !s.Leaving(id)
}

func (s *State) BySession(sessionID uint64) (ecs.EntityID, bool) {
	id, ok := s.bySession[sessionID]
	return id, ok
}

// ByName looks a player up by any spelling of their name.
func (s *State) ByName(name string) (ecs.EntityID, bool) {
	return s.ByNameHash(text.EncodeBase37(name))
}

func (s *State) ByNameHash(hash uint64) (ecs.EntityID, bool) {
	id, ok := s.byName[hash]
	return id, ok
}

func (s *State) ByIndex(index int) (ecs.EntityID, bool) {
	if index <= 0 || index > MaxPlayers || s.indices[index].IsZero() {
		return 0, false
	}
	return s.indices[index], true
}

// Full reports whether every player slot is taken. Slots of leaving players
// stay taken until the end of the tick.
func (s *State) Full() bool {
	return s.occupied >= s.capacity
}

// PlayerCount returns the number of players not yet leaving.
func (s *State) PlayerCount() int {
	return len(s.bySession)
}

// EachPlayer visits active players in index order.
func (s *State) EachPlayer(fn func(ecs.EntityID)) {
	for i := 1; i <= MaxPlayers; i++ {
		id := s.indices[i]
		if !id.IsZero() && !s.Leaving(id) {
			fn(id)
		}
	}
}

// Move places a player on a new tile and keeps the grid in step.
func (s *State) Move(id ecs.EntityID, to component.Position) {
	pos, ok := s.Positions.Get(id)
	if !ok {
		return
	}
	s.grid.Move(id, pos.X, pos.Y, pos.Plane, to.X, to.Y, to.Plane)
	*pos = to
}

// Nearby returns the active players within view of id, excluding id, ordered
// by player index.
func (s *State) Nearby(id ecs.EntityID) []ecs.EntityID {
	pos, ok := s.Positions.Get(id)
	if !ok {
		return nil
	}
	var out []ecs.EntityID
	for _, other := range s.grid.Nearby(pos.X, pos.Y, pos.Plane) {
		if other == id || !s.Active(other) {
			continue
		}
		if op, ok := s.Positions.Get(other); ok && WithinDistance(*pos, *op, ViewDistance) {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.Players.MustGet(out[i]).Index < s.Players.MustGet(out[j]).Index
	})
	return out
}
