package handler

import (
	"github.com/oldscape/server/internal/net/packet"
)

// Sidebar tab interfaces, by tab. 0 leaves a tab empty.
var sidebars = [14]uint16{2423, 3917, 638, 3213, 1644, 5608, 1151, 0, 5065, 5715, 2449, 904, 147, 962}

const defaultGreeting = "Welcome to RuneScape."

// EnterWorld sends the packets a client needs after login, in the order the
// client expects them: index, sidebars, skills, settings, friends, then the
// greeting. The map region and first synchronization frame follow in the
// output phase.
func EnterWorld(ctx *Context, greeting []string) {
	st := ctx.Deps.World
	c := ctx.Client
	player := st.Players.MustGet(ctx.Player)
	acct := st.Accounts.MustGet(ctx.Player)

	c.Send(&packet.InitializePlayer{Member: acct.Member, Index: uint16(player.Index)})

	for tab, id := range sidebars {
		if id != 0 {
			c.Send(&packet.SidebarInterface{Interface: id, Tab: byte(tab)})
		}
	}

	skills := st.Skills.MustGet(ctx.Player)
	for i := range skills.Levels {
		c.Send(&packet.UpdateSkill{Skill: byte(i), Experience: skills.Experience[i], Level: skills.Levels[i]})
	}

	c.Send(&packet.RunEnergy{Energy: 100})
	c.Send(&packet.ConfigSmall{ID: ConfigRunning, Value: boolByte(st.Movements.MustGet(ctx.Player).Running)})

	social := st.Socials.MustGet(ctx.Player)
	c.Send(&packet.ChatSettings{Public: social.Public, Private: social.Private, Trade: social.Trade})
	c.Send(&packet.FriendServerStatus{Status: packet.FriendServerOnline})
	for _, hash := range social.Friends {
		c.Send(&packet.FriendStatus{Name: displayName(hash), World: worldOf(ctx.Deps, hash, ctx.Player)})
	}

	if len(greeting) == 0 {
		greeting = []string{defaultGreeting}
	}
	for _, line := range greeting {
		c.Send(&packet.GameMessage{Message: line})
	}
}
