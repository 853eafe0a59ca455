package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/core/ecs"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/world"
)

const saveTimeout = 5 * time.Second

// Saver writes player profiles to a ProfileSaver. With no backend (open
// auth) nothing is kept between logins.
type Saver struct {
	world   *world.State
	backend world.ProfileSaver
	log     *zap.Logger
}

func NewSaver(ws *world.State, backend world.ProfileSaver, log *zap.Logger) *Saver {
	return &Saver{world: ws, backend: backend, log: log}
}

// Save persists one player. It reports whether the profile was written.
func (s *Saver) Save(id ecs.EntityID) bool {
	if s == nil || s.backend == nil {
		return false
	}
	player := s.world.Players.MustGet(id)
	acct := s.world.Accounts.MustGet(id)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.backend.SaveProfile(ctx, acct.Name, snapshot(s.world, id)); err != nil {
		s.log.Error("save player failed", zap.String("player", player.Name), zap.Error(err))
		return false
	}
	return true
}

// SaveAll persists every player still in the world. Called by the
// autosave and at shutdown.
func (s *Saver) SaveAll() int {
	if s == nil || s.backend == nil {
		return 0
	}
	count := 0
	s.world.EachPlayer(func(id ecs.EntityID) {
		if s.Save(id) {
			count++
		}
	})
	return count
}

// snapshot copies what a player's profile should save.
func snapshot(st *world.State, id ecs.EntityID) *world.Profile {
	pos := *st.Positions.MustGet(id)
	app := *st.Appearances.MustGet(id)
	skills := *st.Skills.MustGet(id)
	social := *st.Socials.MustGet(id)
	social.Friends = append([]uint64(nil), social.Friends...)
	social.Ignores = append([]uint64(nil), social.Ignores...)
	return &world.Profile{
		Account:    *st.Accounts.MustGet(id),
		Social:     social,
		Position:   &pos,
		Appearance: &app,
		Skills:     &skills,
	}
}

// PersistenceSystem periodically auto-saves all online players. Phase 4
// (Cleanup).
type PersistenceSystem struct {
	saver     *Saver
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(saver *Saver, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{saver: saver, interval: intervalTicks, log: log}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if n := s.saver.SaveAll(); n > 0 {
		s.log.Info("autosave complete", zap.Int("players", n))
	}
}
