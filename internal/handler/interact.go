package handler

import (
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/world"
)

const nothingInteresting = "Nothing interesting happens."

// Items are not modelled, so every item action gets the stock reply.

func HandleEquipItem(ctx *Context, _ *packet.EquipItem)        { ctx.Message(nothingInteresting) }
func HandleItemOption(ctx *Context, _ *packet.ItemOption1)     { ctx.Message(nothingInteresting) }
func HandleDropItem(ctx *Context, _ *packet.DropItem)          { ctx.Message(nothingInteresting) }
func HandleMoveItem(ctx *Context, _ *packet.MoveItem)          {}
func HandlePickupItem(ctx *Context, _ *packet.PickupItem)      { ctx.Message(nothingInteresting) }
func HandleObjectOption(ctx *Context, _ *packet.ObjectOption1) { ctx.Message(nothingInteresting) }

// HandleNpcOption answers a talk-to on an NPC in view.
func HandleNpcOption(ctx *Context, p *packet.NpcOption1) {
	npc, ok := ctx.Deps.World.NpcByIndex(int(p.Index))
	if !ok {
		return
	}
	pos := ctx.Deps.World.Positions.MustGet(ctx.Player)
	if !world.WithinDistance(*pos, npc.Pos, world.ViewDistance) {
		return
	}
	name := npc.Name
	if name == "" {
		name = "NPC"
	}
	ctx.Message("The %s doesn't seem interested in talking.", name)
}
