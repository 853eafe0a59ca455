package handler

import (
	"github.com/oldscape/server/internal/net/packet"
)

// Button ids on the standard sidebar interfaces.
const (
	ButtonLogout = 2458
	ButtonWalk   = 152
	ButtonRun    = 153
)

// ConfigRunning is the client variable behind the run toggle.
const ConfigRunning = 173

// Character design colour counts: hair, torso, legs, feet, skin.
var designColors = [5]byte{12, 16, 16, 6, 8}

func HandleButtonClick(ctx *Context, p *packet.ButtonClick) {
	switch p.Button {
	case ButtonLogout:
		Logout(ctx)
	case ButtonWalk, ButtonRun:
		running := p.Button == ButtonRun
		ctx.Deps.World.Movements.MustGet(ctx.Player).Running = running
		ctx.Client.Send(&packet.ConfigSmall{ID: ConfigRunning, Value: boolByte(running)})
	}
}

// Logout tells the client to leave. The session ends once the packet is
// written and the disconnect is cleaned up by the input system.
func Logout(ctx *Context) {
	mv := ctx.Deps.World.Movements.MustGet(ctx.Player)
	mv.Path = nil
	ctx.Client.Send(&packet.Logout{})
}

// HandleCharacterDesign applies the look chosen on the design screen.
func HandleCharacterDesign(ctx *Context, p *packet.CharacterDesign) {
	if p.Gender > 1 {
		return
	}
	for i, c := range p.Colors {
		if c >= designColors[i] {
			return
		}
	}
	st := ctx.Deps.World
	app := st.Appearances.MustGet(ctx.Player)
	app.Gender = p.Gender
	app.Styles = p.Styles
	app.Colors = p.Colors
	st.Updates.MustGet(ctx.Player).Appearance = true
	ctx.Client.Send(&packet.CloseInterfaces{})
}

func HandleDialogueContinue(ctx *Context, _ *packet.DialogueContinue) {
	ctx.Client.Send(&packet.CloseInterfaces{})
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
