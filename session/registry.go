package session

import (
	"encoding/binary"
	"net"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/golang/glog"
	"github.com/rs/xid"

	arq "github.com/nullship/arqnet"
)

// Registry demultiplexes inbound datagrams arriving on one UDP socket to
// the right Session by conv. Idle eviction runs off the registry's session
// store directly: the store is itself a go-cache instance, so expiry is
// the cache's own timer rather than a hand-rolled sweep.
//
// A listener registry accepts datagrams for any conv, creating a session
// the first time one is seen. A dial-side registry only ever talks to
// conversations it originated itself, so it must not spin up a session
// for a stray or spoofed datagram addressed to an id it never dialed;
// listener distinguishes the two modes.
type Registry struct {
	conn     net.PacketConn
	store    *cache.Cache
	listener bool
	onEvict  func(conv uint32)
}

// NewRegistry creates a listener-mode registry fronting conn: an unseen
// conv arriving from any peer gets a session created for it. Sessions that
// receive no datagram through Dispatch for idleTimeout are evicted
// automatically; Send does not reset that timer.
func NewRegistry(conn net.PacketConn, idleTimeout time.Duration) *Registry {
	return newRegistry(conn, idleTimeout, true)
}

// NewDialRegistry creates a dial-side registry fronting conn: Dispatch
// never creates a session for an unrecognized conv, and silently drops
// any datagram addressed to one. Sessions that receive no datagram through
// Dispatch for idleTimeout are evicted automatically; Send does not reset
// that timer.
func NewDialRegistry(conn net.PacketConn, idleTimeout time.Duration) *Registry {
	return newRegistry(conn, idleTimeout, false)
}

func newRegistry(conn net.PacketConn, idleTimeout time.Duration, listener bool) *Registry {
	r := &Registry{
		conn:     conn,
		store:    cache.New(idleTimeout, idleTimeout/2),
		listener: listener,
	}
	r.store.OnEvicted(func(key string, item interface{}) {
		glog.Infof("session %s evicted", key)
		if s, ok := item.(*Session); ok && r.onEvict != nil {
			r.onEvict(s.Conv())
		}
	})
	return r
}

// OnEvict registers fn to be called whenever a session is removed from
// the registry, whether by idle timeout or by UpdateAll's dead-link
// sweep. A metrics collector uses this to drop that conv's label series
// instead of leaking them for the life of the process.
func (r *Registry) OnEvict(fn func(conv uint32)) {
	r.onEvict = fn
}

// NewConv mints a conversation id from the last four bytes of a fresh xid
// (one process-id byte and the 3-byte counter), so successive calls in one
// process return distinct ids until the counter wraps after 2^24 calls. It
// requires no coordination between dialer and listener.
func NewConv() uint32 {
	id := xid.New()
	b := id.Bytes()
	return binary.LittleEndian.Uint32(b[8:12])
}

// Dial creates a session for an id this process originated, addressed at
// remote.
func (r *Registry) Dial(conv uint32, remote net.Addr) *Session {
	s := New(conv, r.conn, remote)
	r.store.Set(sessionKey(conv), s, cache.DefaultExpiration)
	return s
}

func (r *Registry) lookup(conv uint32) (*Session, bool) {
	v, ok := r.store.Get(sessionKey(conv))
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Accept returns the session for conv, creating and binding one to remote
// the first time conv is seen.
func (r *Registry) Accept(conv uint32, remote net.Addr) *Session {
	if s, ok := r.lookup(conv); ok {
		return s
	}
	s := New(conv, r.conn, remote)
	r.store.Set(sessionKey(conv), s, cache.DefaultExpiration)
	glog.Infof("session %s accepted from %s", sessionKey(conv), remote)
	return s
}

// ConvOf reads just the conv field out of a raw inbound datagram, without
// decoding the rest of the header.
func ConvOf(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, arq.ErrMalformedDatagram
	}
	return binary.LittleEndian.Uint32(data[0:4]), nil
}

// Dispatch routes a raw inbound datagram to the owning session's Input and
// returns that session so the caller can act on whatever Input just made
// available. On a listener registry, the first datagram for an unseen
// conv creates its session. On a dial-side registry, a datagram for a
// conv this process never dialed is dropped silently: Dispatch returns a
// nil session and a nil error.
func (r *Registry) Dispatch(data []byte, remote net.Addr) (*Session, error) {
	conv, err := ConvOf(data)
	if err != nil {
		return nil, err
	}

	var s *Session
	if r.listener {
		s = r.Accept(conv, remote)
	} else {
		var ok bool
		s, ok = r.lookup(conv)
		if !ok {
			return nil, nil
		}
	}
	// go-cache does not extend an entry's expiry on Get, so re-store the
	// session to restart its idle timer.
	r.store.Set(sessionKey(conv), s, cache.DefaultExpiration)

	if _, err := s.Input(data); err != nil {
		return s, err
	}
	return s, nil
}

// UpdateAll drives every live session's clock and prunes any that have
// gone dead.
func (r *Registry) UpdateAll(current uint32) {
	for key, item := range r.store.Items() {
		s, ok := item.Object.(*Session)
		if !ok {
			continue
		}
		s.Update(current)
		if s.Dead() {
			glog.Warningf("session %s dead-linked, evicting", key)
			r.store.Delete(key) // triggers the OnEvicted callback set in newRegistry
		}
	}
}

// Len reports the number of sessions currently held by the registry.
func (r *Registry) Len() int {
	return r.store.ItemCount()
}

// Sessions returns a snapshot of the currently live sessions, for a host
// layer that wants to poll each one (e.g. into arqmetrics) without
// reaching into the registry's internal store.
func (r *Registry) Sessions() []*Session {
	items := r.store.Items()
	out := make([]*Session, 0, len(items))
	for _, item := range items {
		if s, ok := item.Object.(*Session); ok {
			out = append(out, s)
		}
	}
	return out
}

func sessionKey(conv uint32) string {
	return strconv.FormatUint(uint64(conv), 10)
}
