package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/core/event"
	coresys "github.com/oldscape/server/internal/core/system"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/net"
	"github.com/oldscape/server/internal/net/packet"
)

// InputSystem admits logins and drains packet queues from all sessions,
// dispatching them to the packet handlers. Phase 0 (Input).
type InputSystem struct {
	logins     *LoginService
	store      *net.SessionStore
	dispatcher *handler.Dispatcher
	deps       *handler.Deps
	saver      *Saver
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	logins *LoginService,
	store *net.SessionStore,
	dispatcher *handler.Dispatcher,
	deps *handler.Deps,
	saver *Saver,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		logins:     logins,
		store:      store,
		dispatcher: dispatcher,
		deps:       deps,
		saver:      saver,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.logins.Admit()

	for id, sess := range s.store.Raw() {
		player, ok := s.deps.World.BySession(id)
		if sess.IsClosed() {
			// Packets that arrived before the close still count.
			if ok {
				s.drain(sess, player)
			}
			s.handleDisconnect(sess)
			continue
		}
		if ok {
			s.drain(sess, player)
		}
	}
}

// drain dispatches up to maxPerTick queued packets.
func (s *InputSystem) drain(sess *net.Session, player ecs.EntityID) {
	ctx := &handler.Context{Client: sess, Player: player, Deps: s.deps}
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case p := <-sess.InQueue:
			if !s.deps.World.Active(player) {
				return
			}
			gp, ok := p.(packet.GamePacket)
			if !ok {
				s.log.Warn("handshake packet after login",
					zap.Uint64("session", sess.ID),
					zap.Stringer("type", p.Type()),
				)
				continue
			}
			if err := s.dispatcher.Dispatch(ctx, gp); err != nil {
				s.log.Debug("packet dispatch failed",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect saves and removes the player behind a closed session.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	s.store.Remove(sess.ID)
	st := s.deps.World
	id, ok := st.BySession(sess.ID)
	if !ok {
		return
	}
	player := st.Players.MustGet(id)
	s.saver.Save(id)
	st.RemovePlayer(id)
	event.Emit(s.deps.Bus, event.PlayerLoggedOut{Entity: id, Name: player.Name})
	s.log.Info("player logged out",
		zap.String("player", player.Name),
		zap.Int("index", player.Index),
		zap.Int("online", st.PlayerCount()),
	)
}

// sessionClients lets handlers reach other players' sessions.
type sessionClients struct {
	store *net.SessionStore
}

// Clients adapts a session store for the packet handlers.
func Clients(store *net.SessionStore) handler.Clients {
	return sessionClients{store: store}
}

func (c sessionClients) Client(id uint64) (handler.Client, bool) {
	sess := c.store.Get(id)
	if sess == nil || sess.IsClosed() {
		return nil, false
	}
	return sess, true
}
