package handler

import (
	"slices"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/core/event"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/text"
)

const (
	maxFriends = 200
	maxIgnores = 100
)

// Private chat settings.
const (
	PrivacyOn      = 0
	PrivacyFriends = 1
	PrivacyOff     = 2
)

func HandleAddFriend(ctx *Context, p *packet.AddFriend) {
	hash := text.EncodeBase37(p.Name)
	st := ctx.Deps.World
	social := st.Socials.MustGet(ctx.Player)
	switch {
	case hash == 0 || hash == st.Players.MustGet(ctx.Player).NameHash:
		return
	case slices.Contains(social.Friends, hash):
		ctx.Message("%s is already on your friend list.", displayName(hash))
		return
	case len(social.Friends) >= maxFriends:
		ctx.Message("Your friend list is full.")
		return
	}
	social.Friends = append(social.Friends, hash)
	ctx.Client.Send(&packet.FriendStatus{Name: p.Name, World: worldOf(ctx.Deps, hash, ctx.Player)})

	// Adding someone may reveal us to them when our chat is friends only.
	if social.Private == PrivacyFriends {
		refreshFor(ctx.Deps, ctx.Player, hash)
	}
}

func HandleRemoveFriend(ctx *Context, p *packet.RemoveFriend) {
	hash := text.EncodeBase37(p.Name)
	social := ctx.Deps.World.Socials.MustGet(ctx.Player)
	i := slices.Index(social.Friends, hash)
	if i < 0 {
		return
	}
	social.Friends = slices.Delete(social.Friends, i, i+1)
	if social.Private == PrivacyFriends {
		refreshFor(ctx.Deps, ctx.Player, hash)
	}
}

func HandleAddIgnore(ctx *Context, p *packet.AddIgnore) {
	hash := text.EncodeBase37(p.Name)
	social := ctx.Deps.World.Socials.MustGet(ctx.Player)
	switch {
	case hash == 0 || slices.Contains(social.Ignores, hash):
		return
	case len(social.Ignores) >= maxIgnores:
		ctx.Message("Your ignore list is full.")
		return
	}
	social.Ignores = append(social.Ignores, hash)
	refreshFor(ctx.Deps, ctx.Player, hash)
}

func HandleRemoveIgnore(ctx *Context, p *packet.RemoveIgnore) {
	hash := text.EncodeBase37(p.Name)
	social := ctx.Deps.World.Socials.MustGet(ctx.Player)
	i := slices.Index(social.Ignores, hash)
	if i < 0 {
		return
	}
	social.Ignores = slices.Delete(social.Ignores, i, i+1)
	refreshFor(ctx.Deps, ctx.Player, hash)
}

// HandlePrivateMessage delivers a message to a player who can see the
// sender online. Sending with private chat off turns it to friends only.
func HandlePrivateMessage(ctx *Context, p *packet.PrivateMessage) {
	if p.Message == "" {
		return
	}
	st := ctx.Deps.World
	sender := st.Players.MustGet(ctx.Player)
	social := st.Socials.MustGet(ctx.Player)
	if social.Private == PrivacyOff {
		social.Private = PrivacyFriends
		ctx.Client.Send(&packet.ChatSettings{Public: social.Public, Private: social.Private, Trade: social.Trade})
		event.Emit(ctx.Deps.Bus, event.PrivacyChanged{Entity: ctx.Player, Name: sender.Name})
	}

	target, ok := st.ByName(p.Recipient)
	if !ok || !VisibleTo(ctx.Deps, target, sender.NameHash) {
		ctx.Message("That player is currently offline.")
		return
	}
	client, ok := ctx.Deps.Clients.Client(st.Sessions.MustGet(target).SessionID)
	if !ok {
		return
	}
	ctx.Deps.messageID++
	client.Send(&packet.PrivateMessageReceived{
		Sender:    displayName(sender.NameHash),
		MessageID: ctx.Deps.messageID,
		Rights:    st.Accounts.MustGet(ctx.Player).Rights,
		Message:   p.Message,
	})
}

func HandlePrivacyOptions(ctx *Context, p *packet.PrivacyOptions) {
	st := ctx.Deps.World
	social := st.Socials.MustGet(ctx.Player)
	changed := social.Private != p.Private
	social.Public, social.Private, social.Trade = p.Public, p.Private, p.Trade
	if changed {
		event.Emit(ctx.Deps.Bus, event.PrivacyChanged{Entity: ctx.Player, Name: st.Players.MustGet(ctx.Player).Name})
	}
}

func HandleReportAbuse(ctx *Context, p *packet.ReportAbuse) {
	ctx.Deps.Log.Info("abuse report",
		zap.String("reporter", ctx.Deps.World.Players.MustGet(ctx.Player).Name),
		zap.String("offender", p.Name),
		zap.Uint8("rule", p.Rule),
		zap.Bool("mute", p.Mute),
	)
	ctx.Message("Thank-you, your abuse report has been received.")
}

// VisibleTo reports whether owner shows as online to the player named by
// viewer, given owner's private chat setting and ignore list.
func VisibleTo(deps *Deps, owner ecs.EntityID, viewer uint64) bool {
	if !deps.World.Active(owner) {
		return false
	}
	social := deps.World.Socials.MustGet(owner)
	if slices.Contains(social.Ignores, viewer) {
		return false
	}
	switch social.Private {
	case PrivacyOn:
		return true
	case PrivacyFriends:
		return slices.Contains(social.Friends, viewer)
	}
	return false
}

// worldOf returns the friend list world value of the player named by hash
// as seen by viewer: 0 when offline or hidden.
func worldOf(deps *Deps, hash uint64, viewer ecs.EntityID) byte {
	target, ok := deps.World.ByNameHash(hash)
	if !ok || !VisibleTo(deps, target, deps.World.Players.MustGet(viewer).NameHash) {
		return 0
	}
	return encodedWorld(deps.WorldID)
}

// encodedWorld is the value the client shows as "World n"; it subtracts 9.
func encodedWorld(id int) byte {
	return byte(id + 9)
}

// refreshFor resends owner's status to the player named by viewer if that
// player is online and has owner as a friend.
func refreshFor(deps *Deps, owner ecs.EntityID, viewer uint64) {
	target, ok := deps.World.ByNameHash(viewer)
	if !ok {
		return
	}
	sendStatus(deps, owner, target)
}

// sendStatus tells viewer where owner is, if owner is on viewer's friends.
func sendStatus(deps *Deps, owner, viewer ecs.EntityID) {
	st := deps.World
	ownerHash := st.Players.MustGet(owner).NameHash
	if !slices.Contains(st.Socials.MustGet(viewer).Friends, ownerHash) {
		return
	}
	client, ok := deps.Clients.Client(st.Sessions.MustGet(viewer).SessionID)
	if !ok {
		return
	}
	var w byte
	if VisibleTo(deps, owner, st.Players.MustGet(viewer).NameHash) {
		w = encodedWorld(deps.WorldID)
	}
	client.Send(&packet.FriendStatus{Name: displayName(ownerHash), World: w})
}

// broadcastStatus sends owner's status to every player who lists them.
func broadcastStatus(deps *Deps, owner ecs.EntityID) {
	deps.World.EachPlayer(func(viewer ecs.EntityID) {
		if viewer != owner {
			sendStatus(deps, owner, viewer)
		}
	})
}

// broadcastOffline tells everyone listing hash that the player left.
func broadcastOffline(deps *Deps, hash uint64) {
	st := deps.World
	st.EachPlayer(func(viewer ecs.EntityID) {
		if !slices.Contains(st.Socials.MustGet(viewer).Friends, hash) {
			return
		}
		if client, ok := deps.Clients.Client(st.Sessions.MustGet(viewer).SessionID); ok {
			client.Send(&packet.FriendStatus{Name: displayName(hash)})
		}
	})
}

// SubscribeSocial keeps friend lists current as players come, go and change
// their privacy.
func SubscribeSocial(deps *Deps) {
	event.Subscribe(deps.Bus, func(ev event.PlayerLoggedIn) {
		if deps.World.Active(ev.Entity) {
			broadcastStatus(deps, ev.Entity)
		}
	})
	event.Subscribe(deps.Bus, func(ev event.PlayerLoggedOut) {
		broadcastOffline(deps, text.EncodeBase37(ev.Name))
	})
	event.Subscribe(deps.Bus, func(ev event.PrivacyChanged) {
		if deps.World.Active(ev.Entity) {
			broadcastStatus(deps, ev.Entity)
		}
	})
}

func displayName(hash uint64) string {
	name, err := text.DecodeBase37(hash)
	if err != nil {
		return ""
	}
	return name
}
