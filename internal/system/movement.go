package system

import (
	"math/rand/v2"
	"time"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/world"
)

// MovementSystem advances every player one tick along their path, two tiles
// when running, and lets NPCs wander. Phase 2 (Update).
type MovementSystem struct {
	world     *world.State
	collision handler.Walker
	rng       *rand.Rand
}

// NewMovementSystem builds the system. A nil collision map lets everything
// walk everywhere.
func NewMovementSystem(ws *world.State, collision handler.Walker, rng *rand.Rand) *MovementSystem {
	return &MovementSystem{world: ws, collision: collision, rng: rng}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	s.world.EachPlayer(s.move)
	s.world.EachNpc(func(n *world.Npc) {
		n.Wander(s.rng, s.walkable)
	})
}

func (s *MovementSystem) walkable(p component.Position) bool {
	return s.collision == nil || s.collision.Walkable(p)
}

func (s *MovementSystem) move(id ecs.EntityID) {
	mv := s.world.Movements.MustGet(id)

	if mv.Teleport != nil {
		dest := *mv.Teleport
		mv.Teleport = nil
		mv.Path = nil
		s.world.Move(id, dest)
		mv.Teleported = true
		s.checkRegion(id, mv)
		return
	}

	if len(mv.Path) == 0 {
		mv.RunPath = false
		return
	}
	mv.WalkDir = s.step(id, mv)
	if mv.WalkDir != world.DirNone && (mv.Running || mv.RunPath) {
		mv.RunDir = s.step(id, mv)
	}
	if len(mv.Path) == 0 {
		mv.RunPath = false
	}
	s.checkRegion(id, mv)
}

// step takes the next tile of the path. A tile that is not adjacent or not
// walkable ends the path.
func (s *MovementSystem) step(id ecs.EntityID, mv *component.Movement) int {
	if len(mv.Path) == 0 {
		return world.DirNone
	}
	pos := s.world.Positions.MustGet(id)
	next := mv.Path[0]
	dir := world.Direction(next.X-pos.X, next.Y-pos.Y)
	if dir == world.DirNone || next.Plane != pos.Plane || !s.walkable(next) {
		mv.Path = nil
		return world.DirNone
	}
	mv.Path = mv.Path[1:]
	s.world.Move(id, next)
	return dir
}

func (s *MovementSystem) checkRegion(id ecs.EntityID, mv *component.Movement) {
	if mv.RegionChanged {
		return
	}
	pos := s.world.Positions.MustGet(id)
	if world.NeedsRegion(*pos, mv.RegionX, mv.RegionY) {
		mv.RegionChanged = true
	}
}
