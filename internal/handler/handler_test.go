package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/core/event"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/scripting"
	"github.com/oldscape/server/internal/text"
	"github.com/oldscape/server/internal/world"
)

type fakeClient struct {
	sent   []packet.Packet
	closed bool
}

func (c *fakeClient) Send(p packet.Packet) { c.sent = append(c.sent, p) }
func (c *fakeClient) Close()               { c.closed = true }

// take returns and clears what was sent so far.
func (c *fakeClient) take() []packet.Packet {
	sent := c.sent
	c.sent = nil
	return sent
}

type fakeClients map[uint64]*fakeClient

func (f fakeClients) Client(id uint64) (Client, bool) {
	c, ok := f[id]
	if !ok {
		return nil, false
	}
	return c, true
}

type harness struct {
	t       *testing.T
	deps    *Deps
	clients fakeClients
	d       *Dispatcher
	next    uint64
}

func addFriend(name string) *packet.AddFriend {
	p := &packet.AddFriend{}
	p.Name = name
	return p
}

func removeFriend(name string) *packet.RemoveFriend {
	p := &packet.RemoveFriend{}
	p.Name = name
	return p
}

func addIgnore(name string) *packet.AddIgnore {
	p := &packet.AddIgnore{}
	p.Name = name
	return p
}

func removeIgnore(name string) *packet.RemoveIgnore {
	p := &packet.RemoveIgnore{}
	p.Name = name
	return p
}

func newHarness(t *testing.T) *harness {
	clients := fakeClients{}
	deps := &Deps{
		World:   world.NewState(0),
		Clients: clients,
		Bus:     event.NewBus(),
		WorldID: 1,
		Log:     zap.NewNop(),
	}
	d := NewDispatcher(zap.NewNop())
	RegisterAll(d)
	return &harness{t: t, deps: deps, clients: clients, d: d}
}

func (h *harness) join(name string) (ecs.EntityID, *fakeClient) {
	h.t.Helper()
	h.next++
	id, err := h.deps.World.AddPlayer(world.NewPlayer{
		SessionID:  h.next,
		Account:    component.Account{Name: name, Member: true},
		Position:   world.Spawn,
		Appearance: world.DefaultAppearance(),
		Skills:     world.DefaultSkills(),
	})
	require.NoError(h.t, err)
	c := &fakeClient{}
	h.clients[h.next] = c
	return id, c
}

func (h *harness) handle(id ecs.EntityID, p packet.GamePacket) {
	h.t.Helper()
	ref := h.deps.World.Sessions.MustGet(id)
	ctx := &Context{Client: h.clients[ref.SessionID], Player: id, Deps: h.deps}
	require.NoError(h.t, h.d.Dispatch(ctx, p))
}

// deliver runs the events emitted so far.
func (h *harness) deliver() {
	h.deps.Bus.SwapBuffers()
	h.deps.Bus.DispatchAll()
}

func TestDispatcherCoversGameplayPackets(t *testing.T) {
	h := newHarness(t)
	for _, e := range packet.Catalogue() {
		if e.ID.Stage != packet.StageGameplay || e.ID.Direction != packet.Serverbound {
			continue
		}
		assert.True(t, h.d.Handles(e.Type), e.Type.String())
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Register(packet.TypeKeepAlive, func(*Context, packet.GamePacket) { panic("boom") })
	err := d.Dispatch(&Context{}, &packet.KeepAlive{})
	assert.ErrorContains(t, err, "boom")

	assert.NoError(t, d.Dispatch(&Context{}, &packet.FocusChange{}))
}

func TestWalkQueuesInterpolatedPath(t *testing.T) {
	h := newHarness(t)
	id, _ := h.join("alice")

	h.handle(id, &packet.WalkHere{Walk: packet.Walk{
		X: 3225, Y: 3218,
		Steps: []packet.Step{{DX: 0, DY: 2}},
		Run:   true,
	}})

	mv := h.deps.World.Movements.MustGet(id)
	assert.Equal(t, []component.Position{
		{X: 3223, Y: 3218}, {X: 3224, Y: 3218}, {X: 3225, Y: 3218},
		{X: 3225, Y: 3219}, {X: 3225, Y: 3220},
	}, mv.Path)
	assert.True(t, mv.RunPath)
}

func TestPublicChatRaisesChatBlock(t *testing.T) {
	h := newHarness(t)
	id, _ := h.join("alice")
	h.deps.World.Accounts.MustGet(id).Rights = 1

	h.handle(id, &packet.PublicChat{Effects: 12, Color: 2, Message: "hello"})
	assert.Nil(t, h.deps.World.Updates.MustGet(id).Chat)

	h.handle(id, &packet.PublicChat{Effects: 1, Color: 2, Message: "hello"})
	assert.Equal(t, &component.ChatMessage{
		Effects: 1,
		Color:   2,
		Rights:  1,
		Text:    text.Compress("hello"),
	}, h.deps.World.Updates.MustGet(id).Chat)
}

func TestBuiltinCommands(t *testing.T) {
	h := newHarness(t)
	id, c := h.join("alice")

	h.handle(id, &packet.Command{Text: "pos"})
	h.handle(id, &packet.Command{Text: "players"})
	h.handle(id, &packet.Command{Text: "Dance now"})
	h.handle(id, &packet.Command{Text: "   "})
	assert.Equal(t, []packet.Packet{
		&packet.GameMessage{Message: "You are at 3222, 3218 on plane 0."},
		&packet.GameMessage{Message: "There is 1 player online."},
		&packet.GameMessage{Message: "Unknown command: ::dance"},
	}, c.take())
}

func TestScriptedCommandTeleports(t *testing.T) {
	h := newHarness(t)
	engine, err := scripting.NewEngine(t.TempDir(), "Test", zap.NewNop())
	require.NoError(t, err)
	defer engine.Close()
	require.NoError(t, engine.LoadString(`
function on_command(p)
  if p.command == "up" then
    return { messages = { "Up you go." }, teleport = { x = p.x, y = p.y, plane = p.plane + 1 } }
  end
  if p.command == "void" then
    return { teleport = { x = -5, y = 0, plane = 0 } }
  end
end`))
	h.deps.Scripting = engine
	id, c := h.join("alice")

	h.handle(id, &packet.Command{Text: "up"})
	assert.Equal(t, []packet.Packet{&packet.GameMessage{Message: "Up you go."}}, c.take())
	assert.Equal(t, &component.Position{X: 3222, Y: 3218, Plane: 1}, h.deps.World.Movements.MustGet(id).Teleport)

	h.deps.World.Movements.MustGet(id).Teleport = nil
	h.handle(id, &packet.Command{Text: "void"})
	assert.Equal(t, []packet.Packet{&packet.GameMessage{Message: "You can't teleport there."}}, c.take())
	assert.Nil(t, h.deps.World.Movements.MustGet(id).Teleport)
}

func TestRunToggleAndLogout(t *testing.T) {
	h := newHarness(t)
	id, c := h.join("alice")

	h.handle(id, &packet.ButtonClick{Button: ButtonRun})
	assert.True(t, h.deps.World.Movements.MustGet(id).Running)
	h.handle(id, &packet.ButtonClick{Button: ButtonWalk})
	assert.False(t, h.deps.World.Movements.MustGet(id).Running)

	h.deps.World.Movements.MustGet(id).Path = []component.Position{{X: 1, Y: 1}}
	h.handle(id, &packet.ButtonClick{Button: ButtonLogout})
	assert.Empty(t, h.deps.World.Movements.MustGet(id).Path)
	assert.Equal(t, []packet.Packet{
		&packet.ConfigSmall{ID: ConfigRunning, Value: 1},
		&packet.ConfigSmall{ID: ConfigRunning, Value: 0},
		&packet.Logout{},
	}, c.take())
}

func TestCharacterDesign(t *testing.T) {
	h := newHarness(t)
	id, c := h.join("alice")
	h.deps.World.Updates.MustGet(id).Appearance = false

	h.handle(id, &packet.CharacterDesign{Gender: 1, Colors: [5]byte{0, 0, 0, 6, 0}})
	assert.Equal(t, byte(0), h.deps.World.Appearances.MustGet(id).Gender)
	assert.Empty(t, c.take())

	design := &packet.CharacterDesign{
		Gender: 1,
		Styles: [7]byte{45, 255, 56, 61, 67, 70, 79},
		Colors: [5]byte{11, 15, 15, 5, 7},
	}
	h.handle(id, design)
	app := h.deps.World.Appearances.MustGet(id)
	assert.Equal(t, byte(1), app.Gender)
	assert.Equal(t, design.Styles, app.Styles)
	assert.Equal(t, design.Colors, app.Colors)
	assert.True(t, h.deps.World.Updates.MustGet(id).Appearance)
	assert.Equal(t, []packet.Packet{&packet.CloseInterfaces{}}, c.take())
}

func TestInteractionsGetStockReply(t *testing.T) {
	h := newHarness(t)
	id, c := h.join("alice")
	_, err := h.deps.World.AddNpc(1, "Man", component.Position{X: 3224, Y: 3218}, 0)
	require.NoError(t, err)

	h.handle(id, &packet.ItemOption1{Item: 995})
	h.handle(id, &packet.ObjectOption1{})
	h.handle(id, &packet.NpcOption1{Index: 1})
	h.handle(id, &packet.NpcOption1{Index: 9})
	assert.Equal(t, []packet.Packet{
		&packet.GameMessage{Message: nothingInteresting},
		&packet.GameMessage{Message: nothingInteresting},
		&packet.GameMessage{Message: "The Man doesn't seem interested in talking."},
	}, c.take())
}

func TestFriendsAndPrivateMessages(t *testing.T) {
	h := newHarness(t)
	alice, ac := h.join("alice")
	bob, bc := h.join("bob")

	h.handle(alice, addFriend("bob"))
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob", World: 10}}, ac.take())

	h.handle(alice, addFriend("bob"))
	assert.Equal(t, []packet.Packet{&packet.GameMessage{Message: "bob is already on your friend list."}}, ac.take())

	h.handle(alice, &packet.PrivateMessage{Recipient: "bob", Message: "hi"})
	assert.Empty(t, ac.take())
	assert.Equal(t, []packet.Packet{&packet.PrivateMessageReceived{
		Sender:    "alice",
		MessageID: 1,
		Message:   "hi",
	}}, bc.take())

	// Ignoring alice hides bob from her.
	h.handle(bob, addIgnore("alice"))
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob"}}, ac.take())

	h.handle(alice, &packet.PrivateMessage{Recipient: "bob", Message: "hello?"})
	assert.Equal(t, []packet.Packet{&packet.GameMessage{Message: "That player is currently offline."}}, ac.take())
	assert.Empty(t, bc.take())

	h.handle(bob, removeIgnore("alice"))
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob", World: 10}}, ac.take())

	h.handle(alice, removeFriend("bob"))
	assert.Empty(t, h.deps.World.Socials.MustGet(alice).Friends)
}

func TestFriendsOnlyPrivacy(t *testing.T) {
	h := newHarness(t)
	SubscribeSocial(h.deps)
	alice, ac := h.join("alice")
	bob, bc := h.join("bob")
	h.handle(alice, addFriend("bob"))
	ac.take()

	h.handle(bob, &packet.PrivacyOptions{Private: PrivacyFriends})
	h.deliver()
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob"}}, ac.take())

	h.handle(bob, addFriend("alice"))
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "alice", World: 10}}, bc.take())
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob", World: 10}}, ac.take())
}

func TestPrivateMessageWithChatOffTurnsFriendsOnly(t *testing.T) {
	h := newHarness(t)
	alice, ac := h.join("alice")
	_, bc := h.join("bob")
	h.deps.World.Socials.MustGet(alice).Private = PrivacyOff

	h.handle(alice, &packet.PrivateMessage{Recipient: "bob", Message: "psst"})
	assert.Equal(t, byte(PrivacyFriends), h.deps.World.Socials.MustGet(alice).Private)
	assert.Equal(t, []packet.Packet{&packet.ChatSettings{Private: PrivacyFriends}}, ac.take())
	require.Len(t, bc.take(), 1)
}

func TestLogoutNotifiesFriends(t *testing.T) {
	h := newHarness(t)
	SubscribeSocial(h.deps)
	alice, ac := h.join("alice")
	h.handle(alice, addFriend("bob"))
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob"}}, ac.take())

	bob, _ := h.join("bob")
	event.Emit(h.deps.Bus, event.PlayerLoggedIn{Entity: bob, Name: "Bob"})
	h.deliver()
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob", World: 10}}, ac.take())

	h.deps.World.RemovePlayer(bob)
	event.Emit(h.deps.Bus, event.PlayerLoggedOut{Entity: bob, Name: "Bob"})
	h.deliver()
	assert.Equal(t, []packet.Packet{&packet.FriendStatus{Name: "bob"}}, ac.take())
}

func TestEnterWorldBurst(t *testing.T) {
	h := newHarness(t)
	id, c := h.join("alice")
	h.deps.World.Socials.MustGet(id).Friends = []uint64{text.EncodeBase37("bob")}

	EnterWorld(&Context{Client: c, Player: id, Deps: h.deps}, []string{"Hello."})
	sent := c.take()

	assert.Equal(t, &packet.InitializePlayer{Member: true, Index: 1}, sent[0])
	sidebarCount := 0
	skillCount := 0
	for _, p := range sent {
		switch p.(type) {
		case *packet.SidebarInterface:
			sidebarCount++
		case *packet.UpdateSkill:
			skillCount++
		}
	}
	assert.Equal(t, 13, sidebarCount)
	assert.Equal(t, component.SkillCount, skillCount)
	assert.Contains(t, sent, &packet.UpdateSkill{Skill: world.SkillHitpoints, Experience: 1154, Level: 10})
	assert.Contains(t, sent, &packet.FriendServerStatus{Status: packet.FriendServerOnline})
	assert.Equal(t, []packet.Packet{
		&packet.FriendStatus{Name: "bob"},
		&packet.GameMessage{Message: "Hello."},
	}, sent[len(sent)-2:])

	EnterWorld(&Context{Client: c, Player: id, Deps: h.deps}, nil)
	sent = c.take()
	assert.Equal(t, &packet.GameMessage{Message: defaultGreeting}, sent[len(sent)-1])
}
