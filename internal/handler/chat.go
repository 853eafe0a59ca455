package handler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/scripting"
	"github.com/oldscape/server/internal/text"
)

// Chat colour and effect ranges the client can render.
const (
	maxChatColor   = 11
	maxChatEffects = 5
)

// HandlePublicChat raises the chat block so nearby players see the line
// over the speaker's head.
func HandlePublicChat(ctx *Context, p *packet.PublicChat) {
	if p.Message == "" || p.Color > maxChatColor || p.Effects > maxChatEffects {
		return
	}
	st := ctx.Deps.World
	acct := st.Accounts.MustGet(ctx.Player)
	st.Updates.MustGet(ctx.Player).Chat = &component.ChatMessage{
		Effects: p.Effects,
		Color:   p.Color,
		Rights:  acct.Rights,
		Text:    text.Compress(p.Message),
	}
}

// HandleCommand runs a "::" command. A few commands are built in; the rest
// go to the scripts.
func HandleCommand(ctx *Context, p *packet.Command) {
	fields := strings.Fields(p.Text)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	st := ctx.Deps.World
	player := st.Players.MustGet(ctx.Player)
	pos := st.Positions.MustGet(ctx.Player)
	acct := st.Accounts.MustGet(ctx.Player)

	ctx.Deps.Log.Debug("command",
		zap.String("player", player.Name),
		zap.String("command", name),
		zap.Strings("args", args),
	)

	switch name {
	case "pos", "mypos":
		ctx.Message("You are at %d, %d on plane %d.", pos.X, pos.Y, pos.Plane)
		return
	case "players":
		if n := st.PlayerCount(); n == 1 {
			ctx.Message("There is 1 player online.")
		} else {
			ctx.Message("There are %d players online.", n)
		}
		return
	}

	if ctx.Deps.Scripting != nil {
		res := ctx.Deps.Scripting.OnCommand(scripting.CommandContext{
			Name:    player.Name,
			Rights:  int(acct.Rights),
			Command: name,
			Args:    args,
			X:       pos.X,
			Y:       pos.Y,
			Plane:   pos.Plane,
		})
		if res.Handled {
			for _, line := range res.Messages {
				ctx.Client.Send(&packet.GameMessage{Message: line})
			}
			if res.Teleport != nil {
				teleport(ctx, component.Position{X: res.Teleport.X, Y: res.Teleport.Y, Plane: res.Teleport.Plane})
			}
			return
		}
	}
	ctx.Message("Unknown command: ::%s", name)
}

// teleport queues a move to dest for the next movement pass.
func teleport(ctx *Context, dest component.Position) {
	if dest.X < 0 || dest.X > 0x3FFF || dest.Y < 0 || dest.Y > 0x3FFF || dest.Plane < 0 || dest.Plane > 3 {
		ctx.Message("You can't teleport there.")
		return
	}
	mv := ctx.Deps.World.Movements.MustGet(ctx.Player)
	mv.Teleport = &dest
	mv.Path = nil
}
