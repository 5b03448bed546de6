package arq

// Output is the egress sink: one call per outbound datagram, whose
// size never exceeds the control block's configured MTU. Any error the
// sink wants to report is the host's problem; flush never sees it.
type Output func(buf []byte)

// Control is the per-conversation protocol control block. It is not safe
// for concurrent use: the caller must serialize all calls made on one
// Control, typically with one mutex per conversation.
type Control struct {
	conv, mtu, mss uint32
	dead           bool

	sndUna, sndNxt, rcvNxt uint32
	sndWnd, rcvWnd         uint32
	rmtWnd                 uint32
	cwnd, incr, ssthresh   uint32
	probe                  uint32
	tsProbe, probeWait     uint32

	current, interval, tsFlush uint32
	updated                    bool

	rxSrtt, rxRttvar int32
	rxRto, rxMinrto  uint32

	nodelay    bool
	nocwnd     bool
	stream     bool
	fastresend int32
	deadLink   uint32

	sndQueue, sndBuf segQueue
	rcvBuf, rcvQueue segQueue

	acklist []ackItem

	xmitBuf []byte // transmit staging buffer, reused across flush()

	output Output

	stats Stats
}

type ackItem struct {
	sn, ts uint32
}

// Stats accumulates lifetime counters useful for observability. It is
// read-only to callers outside the package; Control updates it as it
// processes segments.
type Stats struct {
	OutputSegs      uint64
	RepeatSegs      uint64
	LostSegs        uint64
	FastRetransSegs uint64
	RetransSegs     uint64
}

// New creates a control block for conversation conv. Both endpoints of a
// conversation must be constructed with the same conv value. out is called
// synchronously from flush whenever a datagram is ready to send; it must
// not block the caller for long.
func New(conv uint32, out Output) *Control {
	c := &Control{
		conv:     conv,
		sndWnd:   wndSendDefault,
		rcvWnd:   wndRecvDefault,
		rmtWnd:   wndRecvDefault,
		mtu:      mtuDefault,
		rxRto:    rtoDefault,
		rxMinrto: rtoMin,
		interval: intervalDefault,
		tsFlush:  intervalDefault,
		ssthresh: threshInit,
		deadLink: deadLinkDefault,
		cwnd:     1, // slow start begins at one segment, not zero
		output:   out,
	}
	c.mss = c.mtu - headerSize
	c.xmitBuf = make([]byte, 0, (c.mtu+headerSize)*3)
	return c
}

// SetMTU changes the maximum datagram size flush will ever hand to the
// egress sink. mtu must be at least 50.
func (c *Control) SetMTU(mtu uint32) bool {
	if mtu < mtuFloor || mtu < headerSize {
		return false
	}
	c.mtu = mtu
	c.mss = mtu - headerSize
	return true
}

// SetInterval sets the flush tick interval, clamped to [10, 5000]ms.
func (c *Control) SetInterval(interval uint32) {
	if interval > intervalMax {
		interval = intervalMax
	} else if interval < intervalMin {
		interval = intervalMin
	}
	c.interval = interval
}

// NoDelay tunes retransmission aggressiveness. nodelay also resets
// rx_minrto to 30ms (on) or 100ms (off); negative values leave the
// corresponding setting unchanged ("don't touch this knob").
func (c *Control) NoDelay(nodelay, interval, resend, nocwnd int) {
	if nodelay >= 0 {
		c.nodelay = nodelay != 0
		if c.nodelay {
			c.rxMinrto = rtoNoDelay
		} else {
			c.rxMinrto = rtoMin
		}
	}
	if interval >= 0 {
		c.SetInterval(uint32(interval))
	}
	if resend >= 0 {
		c.fastresend = int32(resend)
	}
	if nocwnd >= 0 {
		c.nocwnd = nocwnd != 0
	}
}

// WndSize configures the send and receive window sizes in segments. A
// zero argument leaves the corresponding window unchanged; rcv_wnd is
// never lowered below wndRecvFloor.
func (c *Control) WndSize(sndWnd, rcvWnd int) {
	if sndWnd > 0 {
		c.sndWnd = uint32(sndWnd)
	}
	if rcvWnd > 0 {
		c.rcvWnd = maxU32(uint32(rcvWnd), wndRecvFloor)
	}
}

// SetStream enables or disables stream mode: in stream mode, Send
// coalesces small writes into the tail segment of snd_queue instead of
// preserving message (fragment) boundaries.
func (c *Control) SetStream(on bool) { c.stream = on }

// SetFastLimit sets fastresend directly (number of skip-acks before a fast
// retransmit fires; 0 disables fast retransmit).
func (c *Control) SetFastLimit(n int) { c.fastresend = int32(n) }

// SetDeadLink sets the xmit count at which a segment causes the
// connection to be flagged dead.
func (c *Control) SetDeadLink(n uint32) { c.deadLink = n }

// WaitSnd reports how many segments are still in flight or queued to be
// sent.
func (c *Control) WaitSnd() int {
	return c.sndBuf.len() + c.sndQueue.len()
}

// Dead reports the advisory dead-link flag: true once some segment's
// xmit count reached deadLink. It never stops processing.
func (c *Control) Dead() bool { return c.dead }

// Conv returns the conversation id.
func (c *Control) Conv() uint32 { return c.conv }

// Cwnd returns the current effective congestion window in segments.
func (c *Control) Cwnd() uint32 { return c.effectiveSendWindow() }

// RTO returns the current retransmission timeout estimate in ms.
func (c *Control) RTO() uint32 { return c.rxRto }

// SndUna returns the oldest unacknowledged sequence number.
func (c *Control) SndUna() uint32 { return c.sndUna }

// Stats returns a snapshot of the lifetime counters.
func (c *Control) Stats() Stats { return c.stats }
