package system

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/core/event"
	"github.com/oldscape/server/internal/handler"
	"github.com/oldscape/server/internal/net"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/scripting"
	"github.com/oldscape/server/internal/world"
)

// maxLoginsPerTick bounds the logins admitted in one tick; the rest wait in
// the channel for the next.
const maxLoginsPerTick = 50

// AuthSource hands out logins awaiting a verdict.
type AuthSource interface {
	AuthRequests() <-chan *net.AuthRequest
}

// LoginService turns accepted logins into players.
type LoginService struct {
	source  AuthSource
	auth    world.Authenticator
	store   *net.SessionStore
	deps    *handler.Deps
	timeout time.Duration
	members bool
	log     *zap.Logger
}

// NewLoginService builds the login path. members false runs a free world:
// every player logs in without membership.
func NewLoginService(source AuthSource, auth world.Authenticator, store *net.SessionStore, deps *handler.Deps,
	timeout time.Duration, members bool, log *zap.Logger) *LoginService {
	return &LoginService{
		source:  source,
		auth:    auth,
		store:   store,
		deps:    deps,
		timeout: timeout,
		members: members,
		log:     log,
	}
}

// Admit answers the logins waiting since the last tick.
func (l *LoginService) Admit() {
	for i := 0; i < maxLoginsPerTick; i++ {
		select {
		case req := <-l.source.AuthRequests():
			l.handle(req)
		default:
			return
		}
	}
}

func (l *LoginService) handle(req *net.AuthRequest) {
	sess := req.Session
	if sess.IsClosed() {
		return
	}
	st := l.deps.World
	if _, online := st.ByName(req.Username); online {
		req.Reject(packet.RejectAlreadyOnline)
		return
	}
	if st.Full() {
		req.Reject(packet.RejectServerFull)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	profile, err := l.auth.Authenticate(ctx, req.Username, req.Password)
	cancel()
	if err != nil {
		reason := rejectReason(err)
		if reason == packet.RejectServerOffline {
			l.log.Error("authentication failed", zap.String("user", req.Username), zap.Error(err))
		}
		req.Reject(reason)
		return
	}

	id, err := st.AddPlayer(l.newPlayer(sess.ID, profile))
	if err != nil {
		req.Reject(rejectReason(err))
		return
	}
	l.store.Add(sess)
	acct := st.Accounts.MustGet(id)
	req.Accept(acct.Rights, acct.Flagged)

	player := st.Players.MustGet(id)
	var greeting []string
	if l.deps.Scripting != nil {
		greeting = l.deps.Scripting.OnLogin(scripting.LoginContext{
			Name:    player.Name,
			Rights:  int(acct.Rights),
			Member:  acct.Member,
			Online:  st.PlayerCount(),
			NewUser: profile.Position == nil,
		})
	}
	handler.EnterWorld(&handler.Context{Client: sess, Player: id, Deps: l.deps}, greeting)
	event.Emit(l.deps.Bus, event.PlayerLoggedIn{Entity: id, Name: player.Name})

	l.log.Info("player logged in",
		zap.String("player", player.Name),
		zap.Int("index", player.Index),
		zap.Uint8("rights", acct.Rights),
		zap.Bool("low_memory", req.LowMemory),
		zap.Int("online", st.PlayerCount()),
	)
}

// newPlayer fills in defaults for whatever the profile does not carry.
func (l *LoginService) newPlayer(sessionID uint64, p *world.Profile) world.NewPlayer {
	np := world.NewPlayer{
		SessionID:  sessionID,
		Account:    p.Account,
		Social:     p.Social,
		Position:   world.Spawn,
		Appearance: world.DefaultAppearance(),
		Skills:     world.DefaultSkills(),
	}
	np.Account.Member = np.Account.Member && l.members
	if p.Position != nil {
		np.Position = *p.Position
	}
	if p.Appearance != nil {
		np.Appearance = *p.Appearance
	}
	if p.Skills != nil {
		np.Skills = *p.Skills
	}
	np.Appearance.SkillTotal = world.SkillTotal(&np.Skills)
	return np
}

func rejectReason(err error) packet.RejectReason {
	switch {
	case errors.Is(err, world.ErrInvalidCredentials):
		return packet.RejectInvalidCredentials
	case errors.Is(err, world.ErrAccountDisabled):
		return packet.RejectAccountDisabled
	case errors.Is(err, world.ErrAlreadyOnline):
		return packet.RejectAlreadyOnline
	case errors.Is(err, world.ErrWorldFull):
		return packet.RejectServerFull
	}
	return packet.RejectServerOffline
}
