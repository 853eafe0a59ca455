package system

import (
	"time"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/world"
)

// maxAddsPerTick bounds how many entities one frame introduces, so a crowded
// area fills a client's list over a few ticks instead of in one huge frame.
const maxAddsPerTick = 25

// SyncSystem sends every player their map region when it changed, then the
// player and NPC synchronization frames for the tick. Phase 3 (Output).
type SyncSystem struct {
	world   *world.State
	clients handler.Clients
}

func NewSyncSystem(ws *world.State, clients handler.Clients) *SyncSystem {
	return &SyncSystem{world: ws, clients: clients}
}

func (s *SyncSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *SyncSystem) Update(_ time.Duration) {
	s.world.EachPlayer(func(id ecs.EntityID) {
		ref := s.world.Sessions.MustGet(id)
		client, ok := s.clients.Client(ref.SessionID)
		if !ok {
			return
		}
		mv := s.world.Movements.MustGet(id)
		if mv.RegionChanged {
			pos := s.world.Positions.MustGet(id)
			mv.RegionX, mv.RegionY = world.Chunk(*pos)
			client.Send(&packet.LoadMapRegion{ChunkX: uint16(mv.RegionX), ChunkY: uint16(mv.RegionY)})
		}
		client.Send(s.PlayerFrame(id))
		client.Send(s.NpcFrame(id))
	})
}

// PlayerFrame builds id's player synchronization and advances its viewport.
// Blocks follow the order of the bit section: the local player, the tracked
// players, then the additions.
func (s *SyncSystem) PlayerFrame(id ecs.EntityID) *packet.PlayerSynchronization {
	st := s.world
	pos := st.Positions.MustGet(id)
	mv := st.Movements.MustGet(id)
	view := st.Viewports.MustGet(id)
	social := st.Socials.MustGet(id)
	blocks := buf.NewWriter(256)
	frame := &packet.PlayerSynchronization{}

	// The client prints its own chat as it is typed.
	own := component.Update{Appearance: st.Updates.MustGet(id).Appearance}
	frame.Local = localMovement(*pos, mv)
	frame.Local.Update = s.writeBlock(blocks, id, &own, false)

	tracked := make(map[ecs.EntityID]bool, len(view.Players))
	kept := make([]ecs.EntityID, 0, len(view.Players))
	for _, other := range view.Players {
		tracked[other] = true
		if !st.Active(other) {
			frame.Others = append(frame.Others, packet.Movement{Kind: packet.MoveRemove})
			continue
		}
		omv := st.Movements.MustGet(other)
		if omv.Teleported || !world.WithinDistance(*pos, *st.Positions.MustGet(other), world.ViewDistance) {
			frame.Others = append(frame.Others, packet.Movement{Kind: packet.MoveRemove})
			continue
		}
		m := stepMovement(omv.WalkDir, omv.RunDir)
		m.Update = s.writeBlock(blocks, other, s.seenBy(social, other), false)
		frame.Others = append(frame.Others, m)
		kept = append(kept, other)
	}

	added := 0
	for _, other := range st.Nearby(id) {
		if len(kept) >= packet.MaxTracked || added >= maxAddsPerTick {
			break
		}
		if tracked[other] {
			continue
		}
		op := st.Positions.MustGet(other)
		frame.Adds = append(frame.Adds, packet.PlayerAdd{
			Index:   uint16(st.Players.MustGet(other).Index),
			Update:  s.writeBlock(blocks, other, s.seenBy(social, other), true),
			Discard: true,
			DX:      int8(op.X - pos.X),
			DY:      int8(op.Y - pos.Y),
		})
		kept = append(kept, other)
		added++
	}

	if blocks.Len() > 0 {
		frame.Blocks = append([]byte(nil), blocks.Bytes()...)
	}
	view.Players = kept
	return frame
}

// NpcFrame builds id's NPC synchronization and advances its viewport.
func (s *SyncSystem) NpcFrame(id ecs.EntityID) *packet.NpcSynchronization {
	st := s.world
	pos := st.Positions.MustGet(id)
	teleported := st.Movements.MustGet(id).Teleported
	view := st.Viewports.MustGet(id)
	frame := &packet.NpcSynchronization{}

	tracked := make(map[int]bool, len(view.Npcs))
	kept := make([]int, 0, len(view.Npcs))
	for _, index := range view.Npcs {
		tracked[index] = true
		n, ok := st.NpcByIndex(index)
		if !ok || teleported || !world.WithinDistance(*pos, n.Pos, world.ViewDistance) {
			frame.Others = append(frame.Others, packet.Movement{Kind: packet.MoveRemove})
			continue
		}
		frame.Others = append(frame.Others, stepMovement(n.WalkDir, world.DirNone))
		kept = append(kept, index)
	}

	added := 0
	for _, n := range st.NearbyNpcs(*pos) {
		if len(kept) >= packet.MaxTracked || added >= maxAddsPerTick {
			break
		}
		// NPCs dropped above because the viewer jumped come back next tick.
		if tracked[n.Index] {
			continue
		}
		frame.Adds = append(frame.Adds, packet.NpcAdd{
			Index:   uint16(n.Index),
			DX:      int8(n.Pos.X - pos.X),
			DY:      int8(n.Pos.Y - pos.Y),
			Discard: true,
			NpcType: uint16(n.Type),
		})
		kept = append(kept, n.Index)
		added++
	}
	view.Npcs = kept
	return frame
}

func (s *SyncSystem) writeBlock(w *buf.Writer, id ecs.EntityID, u *component.Update, force bool) bool {
	p := s.world.Players.MustGet(id)
	return world.WriteUpdateBlock(w, u, s.world.Appearances.MustGet(id), p.NameHash, force)
}

// seenBy returns other's pending blocks with chat dropped when the viewer
// ignores them.
func (s *SyncSystem) seenBy(viewer *component.Social, other ecs.EntityID) *component.Update {
	u := s.world.Updates.MustGet(other)
	if u.Chat == nil {
		return u
	}
	hash := s.world.Players.MustGet(other).NameHash
	for _, h := range viewer.Ignores {
		if h == hash {
			return &component.Update{Appearance: u.Appearance}
		}
	}
	return u
}

// localMovement is the viewer's own entry. A jump or a new map region is sent
// as a teleport to the tile inside the loaded region.
func localMovement(pos component.Position, mv *component.Movement) packet.Movement {
	if mv.Teleported || mv.RegionChanged {
		x, y := world.Local(pos, mv.RegionX, mv.RegionY)
		return packet.Movement{
			Kind:    packet.MoveTeleport,
			Plane:   uint8(pos.Plane),
			Discard: !mv.RegionChanged,
			LocalX:  uint8(x),
			LocalY:  uint8(y),
		}
	}
	return stepMovement(mv.WalkDir, mv.RunDir)
}

func stepMovement(walk, run int) packet.Movement {
	switch {
	case walk == world.DirNone:
		return packet.Movement{}
	case run == world.DirNone:
		return packet.Movement{Kind: packet.MoveWalk, Direction: uint8(walk)}
	}
	return packet.Movement{Kind: packet.MoveRun, Direction: uint8(walk), Run: uint8(run)}
}
