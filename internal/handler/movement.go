package handler

import (
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/world"
)

// maxPathLength caps the tiles a single walk request can queue.
const maxPathLength = 100

// HandleWalk replaces the player's path with the tiles leading through the
// requested waypoints. Collision is checked as the steps are taken.
func HandleWalk(ctx *Context, w *packet.Walk) {
	st := ctx.Deps.World
	pos, ok := st.Positions.Get(ctx.Player)
	if !ok {
		return
	}
	mv := st.Movements.MustGet(ctx.Player)
	if w.X > 0x3FFF || w.Y > 0x3FFF {
		return
	}
	mv.Path = world.Interpolate(*pos, w.Waypoints(), maxPathLength)
	mv.RunPath = w.Run
}
