package system

import (
	"bufio"
	"context"
	"math/rand/v2"
	gonet "net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/core/event"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/net"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/world"
)

type recordingClient struct {
	sent []packet.Packet
}

func (c *recordingClient) Send(p packet.Packet) { c.sent = append(c.sent, p) }
func (c *recordingClient) Close()               {}

type recordingClients map[uint64]*recordingClient

func (r recordingClients) Client(id uint64) (handler.Client, bool) {
	c, ok := r[id]
	if !ok {
		return nil, false
	}
	return c, true
}

type blockedTiles map[component.Position]bool

func (b blockedTiles) Walkable(p component.Position) bool { return !b[p] }

type memorySaver struct {
	mu    sync.Mutex
	saved map[string]*world.Profile
}

func (m *memorySaver) SaveProfile(_ context.Context, name string, p *world.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]*world.Profile)
	}
	m.saved[name] = p
	return nil
}

func (m *memorySaver) get(name string) *world.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[name]
}

var testTick = 600 * time.Millisecond

func join(t *testing.T, st *world.State, session uint64, name string, pos component.Position) ecs.EntityID {
	t.Helper()
	id, err := st.AddPlayer(world.NewPlayer{
		SessionID:  session,
		Account:    component.Account{Name: name},
		Position:   pos,
		Appearance: world.DefaultAppearance(),
		Skills:     world.DefaultSkills(),
	})
	require.NoError(t, err)
	return id
}

func at(x, y int) component.Position { return component.Position{X: x, Y: y} }

func TestMovementWalksAndRuns(t *testing.T) {
	st := world.NewState(0)
	id := join(t, st, 1, "zezima", at(3222, 3218))
	mv := st.Movements.MustGet(id)
	mv.Path = world.Interpolate(at(3222, 3218), [][2]int{{3226, 3218}}, 100)

	sys := NewMovementSystem(st, nil, rand.New(rand.NewPCG(1, 2)))
	sys.Update(testTick)
	assert.Equal(t, at(3223, 3218), *st.Positions.MustGet(id))
	assert.Equal(t, world.DirE, mv.WalkDir)
	assert.Equal(t, world.DirNone, mv.RunDir)

	mv.Running = true
	sys.Update(testTick)
	assert.Equal(t, at(3225, 3218), *st.Positions.MustGet(id))
	assert.Equal(t, world.DirE, mv.RunDir)
	assert.Len(t, mv.Path, 1)
}

func TestMovementStopsAtBlockedTile(t *testing.T) {
	st := world.NewState(0)
	id := join(t, st, 1, "zezima", at(3222, 3218))
	mv := st.Movements.MustGet(id)
	mv.Path = world.Interpolate(at(3222, 3218), [][2]int{{3222, 3222}}, 100)

	sys := NewMovementSystem(st, blockedTiles{at(3222, 3220): true}, rand.New(rand.NewPCG(1, 2)))
	sys.Update(testTick)
	sys.Update(testTick)
	assert.Equal(t, at(3222, 3219), *st.Positions.MustGet(id))
	assert.Equal(t, world.DirNone, mv.WalkDir)
	assert.Empty(t, mv.Path)
}

func TestMovementTeleportLoadsRegion(t *testing.T) {
	st := world.NewState(0)
	id := join(t, st, 1, "zezima", at(3222, 3218))
	mv := st.Movements.MustGet(id)
	mv.RegionX, mv.RegionY = world.Chunk(at(3222, 3218))
	mv.Teleported, mv.RegionChanged = false, false

	mv.Teleport = &component.Position{X: 3224, Y: 3220}
	sys := NewMovementSystem(st, nil, rand.New(rand.NewPCG(1, 2)))
	sys.Update(testTick)
	assert.True(t, mv.Teleported)
	assert.False(t, mv.RegionChanged)
	assert.Nil(t, mv.Teleport)

	mv.Teleported = false
	mv.Teleport = &component.Position{X: 3093, Y: 3244}
	sys.Update(testTick)
	assert.True(t, mv.Teleported)
	assert.True(t, mv.RegionChanged)
	assert.Equal(t, at(3093, 3244), *st.Positions.MustGet(id))
}

func TestSyncIntroducesAndRemovesPlayers(t *testing.T) {
	st := world.NewState(0)
	clients := recordingClients{1: {}, 2: {}}
	alice := join(t, st, 1, "alice", at(3222, 3218))
	bob := join(t, st, 2, "bob", at(3225, 3216))

	syncer := NewSyncSystem(st, clients)
	cleanup := NewCleanupSystem(st, nil)
	syncer.Update(testTick)

	sent := clients[1].sent
	require.Len(t, sent, 3)
	assert.Equal(t, &packet.LoadMapRegion{ChunkX: 402, ChunkY: 402}, sent[0])
	frame := sent[1].(*packet.PlayerSynchronization)
	assert.Equal(t, packet.Movement{
		Kind: packet.MoveTeleport, Update: true, LocalX: 54, LocalY: 50,
	}, frame.Local)
	assert.Empty(t, frame.Others)
	require.Len(t, frame.Adds, 1)
	assert.Equal(t, packet.PlayerAdd{
		Index: uint16(st.Players.MustGet(bob).Index), Update: true, Discard: true, DX: 3, DY: -2,
	}, frame.Adds[0])
	assert.NotEmpty(t, frame.Blocks)
	assert.Equal(t, []ecs.EntityID{bob}, st.Viewports.MustGet(alice).Players)
	cleanup.Update(testTick)

	// Nothing happened: one idle bit for alice, one for bob.
	frame = syncer.PlayerFrame(alice)
	assert.True(t, frame.Local.Idle())
	assert.Equal(t, []packet.Movement{{}}, frame.Others)
	assert.Empty(t, frame.Blocks)

	st.Movements.MustGet(bob).WalkDir = world.DirN
	frame = syncer.PlayerFrame(alice)
	assert.Equal(t, []packet.Movement{{Kind: packet.MoveWalk, Direction: world.DirN}}, frame.Others)

	st.Move(bob, at(3260, 3216))
	frame = syncer.PlayerFrame(alice)
	assert.Equal(t, []packet.Movement{{Kind: packet.MoveRemove}}, frame.Others)
	assert.Empty(t, frame.Adds)
	assert.Empty(t, st.Viewports.MustGet(alice).Players)
}

func TestSyncRemovesPlayerWhoLeft(t *testing.T) {
	st := world.NewState(0)
	alice := join(t, st, 1, "alice", at(3222, 3218))
	bob := join(t, st, 2, "bob", at(3223, 3218))
	syncer := NewSyncSystem(st, recordingClients{})
	syncer.PlayerFrame(alice)
	NewCleanupSystem(st, nil).Update(testTick)

	st.RemovePlayer(bob)
	frame := syncer.PlayerFrame(alice)
	assert.Equal(t, []packet.Movement{{Kind: packet.MoveRemove}}, frame.Others)
	assert.Empty(t, st.Viewports.MustGet(alice).Players)
}

func TestSyncHidesChatFromIgnoringViewer(t *testing.T) {
	st := world.NewState(0)
	alice := join(t, st, 1, "alice", at(3222, 3218))
	carol := join(t, st, 3, "carol", at(3222, 3219))
	bob := join(t, st, 2, "bob", at(3223, 3218))
	st.Socials.MustGet(alice).Ignores = []uint64{st.Players.MustGet(bob).NameHash}

	syncer := NewSyncSystem(st, recordingClients{})
	syncer.PlayerFrame(alice)
	syncer.PlayerFrame(carol)
	NewCleanupSystem(st, nil).Update(testTick)

	st.Updates.MustGet(bob).Chat = &component.ChatMessage{Text: []byte{0x12}}
	frame := syncer.PlayerFrame(alice)
	require.Len(t, frame.Others, 2)
	for _, m := range frame.Others {
		assert.False(t, m.Update)
	}
	assert.Empty(t, frame.Blocks)

	frame = syncer.PlayerFrame(carol)
	require.Len(t, frame.Others, 2)
	assert.True(t, frame.Others[1].Update) // bob, after alice by index
	assert.NotEmpty(t, frame.Blocks)

	// Speakers never get their own chat back.
	frame = syncer.PlayerFrame(bob)
	assert.False(t, frame.Local.Update)
}

func TestSyncNpcs(t *testing.T) {
	st := world.NewState(0)
	alice := join(t, st, 1, "alice", at(3222, 3218))
	man, err := st.AddNpc(1, "Man", at(3220, 3220), 0)
	require.NoError(t, err)
	_, err = st.AddNpc(2, "Guard", at(3300, 3300), 0)
	require.NoError(t, err)

	syncer := NewSyncSystem(st, recordingClients{})
	frame := syncer.NpcFrame(alice)
	assert.Empty(t, frame.Others)
	assert.Equal(t, []packet.NpcAdd{{Index: 1, DX: -2, DY: 2, Discard: true, NpcType: 1}}, frame.Adds)
	NewCleanupSystem(st, nil).Update(testTick)

	man.WalkDir = world.DirS
	man.Pos = at(3220, 3219)
	frame = syncer.NpcFrame(alice)
	assert.Equal(t, []packet.Movement{{Kind: packet.MoveWalk, Direction: world.DirS}}, frame.Others)
	assert.Empty(t, frame.Adds)

	man.Pos = at(3240, 3219)
	frame = syncer.NpcFrame(alice)
	assert.Equal(t, []packet.Movement{{Kind: packet.MoveRemove}}, frame.Others)
	assert.Empty(t, st.Viewports.MustGet(alice).Npcs)
}

type gauge struct{ players int }

func (g *gauge) SetPlayers(n int) { g.players = n }

func TestCleanupResetsTickState(t *testing.T) {
	st := world.NewState(0)
	alice := join(t, st, 1, "alice", at(3222, 3218))
	bob := join(t, st, 2, "bob", at(3223, 3218))
	st.Updates.MustGet(alice).Chat = &component.ChatMessage{}
	st.Movements.MustGet(alice).WalkDir = world.DirN
	st.RemovePlayer(bob)

	g := &gauge{}
	NewCleanupSystem(st, g).Update(testTick)
	assert.Equal(t, component.Update{}, *st.Updates.MustGet(alice))
	mv := st.Movements.MustGet(alice)
	assert.Equal(t, world.DirNone, mv.WalkDir)
	assert.False(t, mv.Teleported)
	assert.False(t, mv.RegionChanged)
	assert.False(t, st.ECS.Alive(bob))
	assert.Equal(t, 1, g.players)
}

func TestPersistenceAutosaves(t *testing.T) {
	st := world.NewState(0)
	join(t, st, 1, "alice", at(3222, 3218))
	backend := &memorySaver{}
	sys := NewPersistenceSystem(NewSaver(st, backend, zap.NewNop()), 2, zap.NewNop())

	sys.Update(testTick)
	assert.Nil(t, backend.get("alice"))
	sys.Update(testTick)
	saved := backend.get("alice")
	require.NotNil(t, saved)
	assert.Equal(t, at(3222, 3218), *saved.Position)
}

func TestSaverWithoutBackend(t *testing.T) {
	st := world.NewState(0)
	id := join(t, st, 1, "alice", at(3222, 3218))
	saver := NewSaver(st, nil, zap.NewNop())
	assert.False(t, saver.Save(id))
	assert.Zero(t, saver.SaveAll())
}

const clientKey = 0x0FEDCBA987654321

type wireClient struct {
	t     *testing.T
	conn  gonet.Conn
	r     *bufio.Reader
	codec *net.Codec
}

func (c *wireClient) send(p packet.Packet) {
	c.t.Helper()
	frame, err := c.codec.Encode(p)
	require.NoError(c.t, err)
	_, err = c.conn.Write(frame)
	require.NoError(c.t, err)
}

func (c *wireClient) recv() packet.Packet {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	p, err := c.codec.Decode(c.r)
	require.NoError(c.t, err)
	return p
}

func TestLoginEntersWorldAndLogoutSaves(t *testing.T) {
	reg := packet.MustDefaultRegistry()
	srv, err := net.NewServer(net.Config{
		BindAddress:  "127.0.0.1:0",
		Revision:     317,
		InQueueSize:  16,
		OutQueueSize: 128,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		AuthTimeout:  2 * time.Second,
	}, reg, nil, zap.NewNop())
	require.NoError(t, err)
	go srv.AcceptLoop()
	t.Cleanup(srv.Shutdown)

	st := world.NewState(0)
	store := net.NewSessionStore()
	deps := &handler.Deps{
		World:   st,
		Clients: Clients(store),
		Bus:     event.NewBus(),
		WorldID: 1,
		Log:     zap.NewNop(),
	}
	backend := &memorySaver{}
	logins := NewLoginService(srv, world.OpenAuthenticator{}, store, deps, time.Second, true, zap.NewNop())
	dispatcher := handler.NewDispatcher(zap.NewNop())
	handler.RegisterAll(dispatcher)
	input := NewInputSystem(logins, store, dispatcher, deps, NewSaver(st, backend, zap.NewNop()), 10, zap.NewNop())
	output := NewOutputSystem(store)

	conn, err := gonet.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	client := &wireClient{t: t, conn: conn, r: bufio.NewReader(conn), codec: net.NewCodec(reg, net.SideClient)}

	client.send(&packet.HandshakeHello{NameHash: packet.NameHash("zezima")})
	hello, ok := client.recv().(*packet.HandshakeResponse)
	require.True(t, ok)
	client.send(&packet.LoginRequest{LoginBlock: packet.LoginBlock{
		Revision:  317,
		ClientKey: clientKey,
		ServerKey: hello.ServerKey,
		Username:  "zezima",
		Password:  "hunter2",
	}})

	require.Eventually(t, func() bool {
		input.Update(testTick)
		return store.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, &packet.LoginAccepted{}, client.recv())
	require.NoError(t, client.codec.EnterGameplay(clientKey, hello.ServerKey))

	output.Update(testTick)
	ip, ok := client.recv().(*packet.InitializePlayer)
	require.True(t, ok)
	assert.Equal(t, uint16(1), ip.Index)
	assert.True(t, ip.Member)

	var greeting *packet.GameMessage
	for greeting == nil {
		greeting, _ = client.recv().(*packet.GameMessage)
	}
	assert.Equal(t, "Welcome to RuneScape.", greeting.Message)

	id, ok := st.ByName("zezima")
	require.True(t, ok)
	st.Positions.MustGet(id).X = 3230

	conn.Close()
	require.Eventually(t, func() bool {
		input.Update(testTick)
		return store.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, st.Active(id))
	saved := backend.get("zezima")
	require.NotNil(t, saved)
	assert.Equal(t, 3230, saved.Position.X)
}
