package net

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/net/packet"
)

var (
	errUpdateRequest = errors.New("update server request")
	errRejected      = errors.New("login rejected")
)

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID      uint64
	TraceID uuid.UUID
	conn    net.Conn
	reader  *bufio.Reader
	codec   *Codec
	cfg     Config

	InQueue  chan packet.Packet // game loop reads packets from here
	OutQueue chan packet.Packet // writer goroutine reads from here

	IP       string
	Username string

	outBuf []packet.Packet // buffered packets, flushed by the output phase (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second packet rate limiter (readLoop goroutine only)
	pktCount   int
	pktResetAt int64

	observer Observer
	log      *zap.Logger
}

func newSession(conn net.Conn, id uint64, registry *packet.Registry, cfg Config, observer Observer, log *zap.Logger) *Session {
	trace := uuid.New()
	return &Session{
		ID:       id,
		TraceID:  trace,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		codec:    NewCodec(registry, SideServer),
		cfg:      cfg,
		InQueue:  make(chan packet.Packet, cfg.InQueueSize),
		OutQueue: make(chan packet.Packet, cfg.OutQueueSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		observer: observer,
		log:      log.With(zap.Uint64("session", id), zap.String("trace", trace.String())),
	}
}

// Stage returns the connection stage of the session's codec. Safe to call
// from other goroutines only after login has returned.
func (s *Session) Stage() packet.Stage {
	return s.codec.Stage()
}

// login runs the handshake and login exchange on the calling goroutine, then
// starts the reader and writer goroutines. Any error closes the session.
func (s *Session) login(auth chan<- *AuthRequest) error {
	s.deadline()
	hello, err := s.codec.Decode(s.reader)
	if err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	s.observer.PacketDecoded(hello.Type())
	switch hello.(type) {
	case *packet.HandshakeHello:
	case *packet.UpdateRequest:
		return errUpdateRequest
	default:
		return fmt.Errorf("%w: expected hello, got %s", packet.ErrMalformed, hello.Type())
	}

	serverKey := rand.Uint64()
	if err := s.writeNow(&packet.HandshakeResponse{ServerKey: serverKey}); err != nil {
		return err
	}

	s.deadline()
	p, err := s.codec.Decode(s.reader)
	if err != nil {
		return fmt.Errorf("read login: %w", err)
	}
	s.observer.PacketDecoded(p.Type())
	var block packet.LoginBlock
	reconnect := false
	switch req := p.(type) {
	case *packet.LoginRequest:
		block = req.LoginBlock
	case *packet.ReconnectRequest:
		block, reconnect = req.LoginBlock, true
	default:
		return fmt.Errorf("%w: expected login, got %s", packet.ErrMalformed, p.Type())
	}
	if block.ServerKey != serverKey {
		return fmt.Errorf("%w: server key mismatch", packet.ErrMalformed)
	}
	if block.Revision != s.cfg.Revision {
		s.log.Info("client revision mismatch", zap.Uint16("revision", block.Revision))
		return s.reject(packet.RejectGameUpdated)
	}

	req := &AuthRequest{
		Session:   s,
		Username:  block.Username,
		Password:  block.Password,
		Reconnect: reconnect,
		LowMemory: block.LowMemory,
		reply:     make(chan AuthResult, 1),
	}
	res, ok := s.awaitAuth(auth, req)
	if !ok {
		s.log.Warn("login timed out waiting for game loop", zap.String("user", block.Username))
		return s.reject(packet.RejectServerOffline)
	}
	if !res.Accepted {
		return s.reject(res.Reason)
	}

	if err := s.writeNow(&packet.LoginAccepted{Rights: res.Rights, Flagged: res.Flagged}); err != nil {
		return err
	}
	if err := s.codec.EnterGameplay(block.ClientKey, serverKey); err != nil {
		return err
	}
	s.Username = block.Username
	s.observer.LoginResult("accepted")
	s.log.Info("login accepted", zap.String("user", block.Username), zap.Bool("reconnect", reconnect))

	go s.readLoop()
	go s.writeLoop()
	return nil
}

// awaitAuth hands the request to the game loop and waits for its answer,
// bounded by the auth timeout as a whole.
func (s *Session) awaitAuth(auth chan<- *AuthRequest, req *AuthRequest) (AuthResult, bool) {
	timer := time.NewTimer(s.cfg.AuthTimeout)
	defer timer.Stop()

	select {
	case auth <- req:
	case <-timer.C:
		return AuthResult{}, false
	case <-s.closeCh:
		return AuthResult{}, false
	}
	select {
	case res := <-req.reply:
		return res, true
	case <-timer.C:
		return AuthResult{}, false
	case <-s.closeCh:
		return AuthResult{}, false
	}
}

func (s *Session) reject(reason packet.RejectReason) error {
	s.observer.LoginResult(reason.String())
	if err := s.writeNow(&packet.LoginRejected{Reason: reason}); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", errRejected, reason)
}

// writeNow encodes and writes a packet directly, bypassing the queues. Used
// before the writer goroutine exists.
func (s *Session) writeNow(p packet.Packet) error {
	frame, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", p.Type(), err)
	}
	s.observer.PacketEncoded(p.Type())
	return nil
}

func (s *Session) deadline() {
	if s.cfg.ReadTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
}

// Send buffers a packet for sending. The packet is not written until
// FlushOutput is called by the output phase.
// Called only from the game loop goroutine.
func (s *Session) Send(p packet.Packet) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, p)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, p := range s.outBuf {
		select {
		case s.OutQueue <- p:
		default:
			s.log.Warn("output queue full, dropping slow connection")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
		s.observer.SessionClosed()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// readLoop decodes packets in arrival order and pushes them onto InQueue for
// the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		s.deadline()
		p, err := s.codec.Decode(s.reader)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		s.observer.PacketDecoded(p.Type())

		if s.cfg.PacketsPerSecond > 0 {
			now := time.Now().Unix()
			if now != s.pktResetAt {
				s.pktCount = 0
				s.pktResetAt = now
			}
			s.pktCount++
			if s.pktCount > s.cfg.PacketsPerSecond {
				s.log.Warn("packet rate exceeded", zap.Int("pps", s.pktCount))
				return
			}
		}

		// Blocking keeps per-connection order; only this client stalls.
		select {
		case s.InQueue <- p:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop encodes packets from OutQueue and writes them in batches: every
// packet already queued goes into one buffered write. The connection ends
// once a Logout has been written.
func (s *Session) writeLoop() {
	defer s.Close()
	w := bufio.NewWriter(s.conn)

	for {
		select {
		case p := <-s.OutQueue:
			if s.cfg.WriteTimeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			}
			if !s.writeOne(w, p) {
				return
			}
			last := p.Type() == packet.TypeLogout
			for !last && len(s.OutQueue) > 0 {
				next := <-s.OutQueue
				if !s.writeOne(w, next) {
					return
				}
				last = next.Type() == packet.TypeLogout
			}
			if err := w.Flush(); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
			if last {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(w *bufio.Writer, p packet.Packet) bool {
	frame, err := s.codec.Encode(p)
	if err != nil {
		s.log.Error("encode failed", zap.Stringer("type", p.Type()), zap.Error(err))
		return false
	}
	if _, err := w.Write(frame); err != nil {
		return false
	}
	s.observer.PacketEncoded(p.Type())
	return true
}
