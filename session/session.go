// Package session wraps one arq control block with the socket and
// locking a host process needs around it: a net.PacketConn egress sink, a
// mutex serializing every call into the control block (the core itself is
// not safe for concurrent use), and a last-activity timestamp reported by
// Idle.
package session

import (
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"

	arq "github.com/nullship/arqnet"
)

// Session is one conversation's control block plus its socket binding.
type Session struct {
	mu       sync.Mutex
	ctrl     *arq.Control
	conn     net.PacketConn
	remote   net.Addr
	lastSeen time.Time
}

// New binds a fresh control block to conv, writing outbound datagrams to
// remote through conn.
func New(conv uint32, conn net.PacketConn, remote net.Addr) *Session {
	s := &Session{conn: conn, remote: remote, lastSeen: time.Now()}
	s.ctrl = arq.New(conv, s.output)
	return s
}

// output is the egress sink passed to arq.New. It runs synchronously from
// flush, under s.mu, so a slow WriteTo holds only this session's lock; a
// caller that updates sessions one after another, as Registry.UpdateAll
// does, still waits for it before reaching the next session.
func (s *Session) output(buf []byte) {
	s.conn.WriteTo(buf, s.remote)
}

// Send enqueues an application message.
func (s *Session) Send(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.ctrl.Send(b)
}

// Recv copies the next complete message out.
func (s *Session) Recv(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Recv(b)
}

// Input delivers one inbound datagram.
func (s *Session) Input(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.ctrl.Input(data)
}

// Update drives the flush clock.
func (s *Session) Update(current uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Update(current)
}

// Check reports when the host should next call Update.
func (s *Session) Check(current uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Check(current)
}

// Dead reports the control block's advisory dead-link flag.
func (s *Session) Dead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Dead()
}

// Conv returns the conversation id.
func (s *Session) Conv() uint32 { return s.ctrl.Conv() }

// Stats returns a snapshot of the underlying control block's counters,
// for the metrics layer to poll.
func (s *Session) Stats() arq.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Stats()
}

// Cwnd, RTO and SndUna forward the matching *arq.Control accessors,
// letting arqmetrics poll a *Session the same way it would a bare
// control block.
func (s *Session) Cwnd() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Cwnd()
}

func (s *Session) RTO() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.RTO()
}

func (s *Session) SndUna() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SndUna()
}

// Idle reports whether no Send/Input has touched this session for at
// least d.
func (s *Session) Idle(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSeen) >= d
}

// Configure applies the protocol tunables in one call, the shape a host
// loads once from config.Repr at session-creation time. ttl and tos are
// applied to the underlying socket via ipv4.NewPacketConn; either left at
// 0 leaves the OS default in place.
func (s *Session) Configure(mtu, interval uint32, nodelay, resend, nocwnd, sndWnd, rcvWnd int, deadLink uint32, stream bool, ttl, tos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.SetMTU(mtu)
	s.ctrl.NoDelay(nodelay, int(interval), resend, nocwnd)
	s.ctrl.WndSize(sndWnd, rcvWnd)
	s.ctrl.SetDeadLink(deadLink)
	s.ctrl.SetStream(stream)

	if ttl == 0 && tos == 0 {
		return
	}
	p := ipv4.NewPacketConn(s.conn)
	if ttl != 0 {
		if err := p.SetTTL(ttl); err != nil {
			glog.Warningf("session %d: set TTL %d: %v", s.ctrl.Conv(), ttl, err)
		}
	}
	if tos != 0 {
		if err := p.SetTOS(tos); err != nil {
			glog.Warningf("session %d: set TOS %d: %v", s.ctrl.Conv(), tos, err)
		}
	}
}
