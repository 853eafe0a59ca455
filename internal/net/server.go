package net

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/net/packet"
)

// Config holds the listener and per-connection settings.
type Config struct {
	BindAddress      string
	Revision         uint16
	InQueueSize      int
	OutQueueSize     int
	PacketsPerSecond int // 0 = unlimited
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	AuthTimeout      time.Duration
}

// Observer is told about traffic and session lifecycle. Implementations must
// be safe for concurrent use.
type Observer interface {
	SessionOpened()
	SessionClosed()
	PacketDecoded(packet.Type)
	PacketEncoded(packet.Type)
	LoginResult(result string)
}

type nopObserver struct{}

func (nopObserver) SessionOpened()            {}
func (nopObserver) SessionClosed()            {}
func (nopObserver) PacketDecoded(packet.Type) {}
func (nopObserver) PacketEncoded(packet.Type) {}
func (nopObserver) LoginResult(string)        {}

// AuthResult is the game loop's verdict on a login.
type AuthResult struct {
	Accepted bool
	Reason   packet.RejectReason
	Rights   byte
	Flagged  bool
}

// AuthRequest carries a decoded login to the game loop. The game loop must
// answer with Accept or Reject; answers after the session gave up are dropped.
type AuthRequest struct {
	Session   *Session
	Username  string
	Password  string
	Reconnect bool
	LowMemory bool

	reply chan AuthResult
}

func (r *AuthRequest) Accept(rights byte, flagged bool) {
	r.answer(AuthResult{Accepted: true, Rights: rights, Flagged: flagged})
}

func (r *AuthRequest) Reject(reason packet.RejectReason) {
	r.answer(AuthResult{Reason: reason})
}

func (r *AuthRequest) answer(res AuthResult) {
	select {
	case r.reply <- res:
	default:
	}
}

// Server accepts TCP connections and runs each one's login exchange.
// Logins are handed to the game loop through AuthRequests.
type Server struct {
	listener net.Listener
	registry *packet.Registry
	cfg      Config
	nextID   atomic.Uint64
	authCh   chan *AuthRequest
	observer Observer
	log      *zap.Logger
	closeCh  chan struct{}
}

// NewServer listens on cfg.BindAddress. A nil observer discards events.
func NewServer(cfg Config, registry *packet.Registry, observer Observer, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, err
	}
	if observer == nil {
		observer = nopObserver{}
	}
	s := &Server{
		listener: ln,
		registry: registry,
		cfg:      cfg,
		authCh:   make(chan *AuthRequest, 64),
		observer: observer,
		log:      log,
		closeCh:  make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop accepts connections until Shutdown. It returns nil on shutdown
// and the listener error otherwise.
func (s *Server) AcceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn("accept failed", zap.Error(err))
				continue
			}
			return err
		}
		go s.ServeConn(conn)
	}
}

// ServeConn runs the login exchange on an established connection. On
// success the session keeps running on its own goroutines.
func (s *Server) ServeConn(conn net.Conn) {
	id := s.nextID.Add(1)
	sess := newSession(conn, id, s.registry, s.cfg, s.observer, s.log)
	s.observer.SessionOpened()
	sess.log.Debug("connection opened", zap.String("ip", sess.IP))

	if err := sess.login(s.authCh); err != nil {
		switch {
		case errors.Is(err, errUpdateRequest):
			sess.log.Debug("update server requests are not served")
		case errors.Is(err, errRejected):
			sess.log.Info("login refused", zap.Error(err))
		default:
			sess.log.Debug("login failed", zap.Error(err))
		}
		sess.Close()
	}
}

// AuthRequests returns the channel of logins awaiting a verdict.
func (s *Server) AuthRequests() <-chan *AuthRequest {
	return s.authCh
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
