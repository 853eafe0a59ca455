package system

import (
	"time"

	"github.com/oldscape/server/internal/core/ecs"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/world"
)

// PlayerGauge receives the player count once per tick.
type PlayerGauge interface {
	SetPlayers(n int)
}

// CleanupSystem clears the per-tick flags the sync frames were built from and
// flushes the deferred entity destruction queue. Phase 4 (Cleanup).
type CleanupSystem struct {
	world *world.State
	gauge PlayerGauge // nil = no metrics
}

func NewCleanupSystem(ws *world.State, gauge PlayerGauge) *CleanupSystem {
	return &CleanupSystem{world: ws, gauge: gauge}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.EachPlayer(func(id ecs.EntityID) {
		u := s.world.Updates.MustGet(id)
		u.Appearance = false
		u.Chat = nil

		mv := s.world.Movements.MustGet(id)
		mv.WalkDir = world.DirNone
		mv.RunDir = world.DirNone
		mv.Teleported = false
		mv.RegionChanged = false
	})
	s.world.EachNpc(func(n *world.Npc) {
		n.WalkDir = world.DirNone
	})
	s.world.ECS.FlushDestroyQueue()
	if s.gauge != nil {
		s.gauge.SetPlayers(s.world.PlayerCount())
	}
}
