package arq

// wndUnused is the receiver's currently-available window, advertised in
// every outbound segment's wnd field.
func (c *Control) wndUnused() uint32 {
	if c.rcvQueue.len() < int(c.rcvWnd) {
		return c.rcvWnd - uint32(c.rcvQueue.len())
	}
	return 0
}

// ship flushes the staging buffer through the egress sink and resets it, if
// it holds anything.
func (c *Control) ship() {
	if len(c.xmitBuf) > 0 {
		c.output(c.xmitBuf)
		c.xmitBuf = c.xmitBuf[:0]
	}
}

// shipIfWouldOverflow ships the staging buffer first if appending need more
// bytes would push it past mtu.
func (c *Control) shipIfWouldOverflow(need int) {
	if len(c.xmitBuf)+need > int(c.mtu) {
		c.ship()
	}
}

// flush emits ACKs, window probes/announcements, and new or overdue data
// segments, packing at most one MTU per egress call. It is a no-op until
// the first Update call has set `updated`.
func (c *Control) flush() {
	if !c.updated {
		return
	}

	var tmpl segment
	tmpl.conv = c.conv
	tmpl.cmd = cmdAck
	tmpl.wnd = uint16(c.wndUnused())
	tmpl.una = c.rcvNxt

	// 1. ACK pass.
	for _, ack := range c.acklist {
		c.shipIfWouldOverflow(headerSize)
		out := segment{conv: tmpl.conv, cmd: cmdAck, wnd: tmpl.wnd, una: tmpl.una, sn: ack.sn, ts: ack.ts}
		c.xmitBuf = out.encode(c.xmitBuf)
		c.stats.OutputSegs++
	}
	c.acklist = nil

	// 2. Window-probe scheduling.
	if c.rmtWnd == 0 {
		if c.probeWait == 0 {
			c.probeWait = probeInit
			c.tsProbe = c.current + probeInit
		} else if timeDiff(c.current, c.tsProbe) >= 0 {
			if c.probeWait < probeInit {
				c.probeWait = probeInit
			}
			c.probeWait += c.probeWait / 2
			if c.probeWait > probeLimit {
				c.probeWait = probeLimit
			}
			c.tsProbe = c.current + c.probeWait
			c.probe |= askSend
		}
	} else {
		c.tsProbe = 0
		c.probeWait = 0
	}

	// 3. Emit WASK / WINS.
	if c.probe&askSend != 0 {
		c.shipIfWouldOverflow(headerSize)
		out := segment{conv: tmpl.conv, cmd: cmdWask, wnd: tmpl.wnd, una: tmpl.una}
		c.xmitBuf = out.encode(c.xmitBuf)
		c.stats.OutputSegs++
	}
	if c.probe&askTell != 0 {
		c.shipIfWouldOverflow(headerSize)
		out := segment{conv: tmpl.conv, cmd: cmdWins, wnd: tmpl.wnd, una: tmpl.una}
		c.xmitBuf = out.encode(c.xmitBuf)
		c.stats.OutputSegs++
	}
	c.probe = 0

	// 4. Promote snd_queue -> snd_buf.
	cwndEff := c.effectiveSendWindow()
	for c.sndQueue.len() > 0 && timeDiff(c.sndNxt, c.sndUna+cwndEff) < 0 {
		seg := c.sndQueue.popFront()
		seg.conv = c.conv
		seg.cmd = cmdPush
		seg.sn = c.sndNxt
		seg.wnd = tmpl.wnd
		seg.ts = c.current
		seg.una = c.rcvNxt
		seg.resendts = c.current
		seg.rto = c.rxRto
		seg.fastack = 0
		seg.xmit = 0
		c.sndNxt++
		c.sndBuf.pushBack(seg)
	}

	// 5. Transmit pass.
	var resent uint32 = 0xffffffff
	if c.fastresend > 0 {
		resent = uint32(c.fastresend)
	}
	var rtomin uint32
	if !c.nodelay {
		rtomin = c.rxRto >> 3
	}

	lost := false
	change := false
	var lostSegs, fastSegs uint64
	for i := range c.sndBuf.items {
		seg := &c.sndBuf.items[i]
		send := false

		switch {
		case seg.xmit == 0:
			send = true
			seg.xmit = 1
			seg.rto = c.rxRto
			seg.resendts = c.current + seg.rto + rtomin
		case timeDiff(c.current, seg.resendts) >= 0:
			send = true
			seg.xmit++
			if c.nodelay {
				seg.rto += c.rxRto / 2
			} else {
				seg.rto += c.rxRto
			}
			seg.resendts = c.current + seg.rto
			lost = true
			lostSegs++
		case seg.fastack >= resent:
			send = true
			seg.xmit++
			seg.fastack = 0
			seg.resendts = c.current + seg.rto
			change = true
			fastSegs++
		}

		if !send {
			continue
		}

		seg.ts = c.current
		seg.wnd = tmpl.wnd
		seg.una = c.rcvNxt

		c.shipIfWouldOverflow(headerSize + len(seg.data))
		c.xmitBuf = seg.encode(c.xmitBuf)
		c.stats.OutputSegs++

		if seg.xmit >= c.deadLink {
			c.dead = true
		}
	}

	// 6. Drain.
	c.ship()

	c.stats.LostSegs += lostSegs
	c.stats.FastRetransSegs += fastSegs
	c.stats.RetransSegs += lostSegs + fastSegs

	// 7. Congestion update.
	if change {
		c.onFastRetransmit(resent)
	}
	if lost {
		c.onTimeoutLoss(cwndEff)
	}
	if c.cwnd < 1 {
		c.cwnd = 1
		c.incr = c.mss
	}
}

// Update advances the clock to current (ms) and flushes if the tick
// interval has elapsed. The host is expected to call this periodically, at
// roughly the configured interval.
func (c *Control) Update(current uint32) {
	c.current = current
	if !c.updated {
		c.updated = true
		c.tsFlush = current
	}

	slap := timeDiff(current, c.tsFlush)
	if slap >= flushStallReset || slap < -flushStallReset {
		c.tsFlush = current
		slap = 0
	}

	if slap >= 0 {
		c.tsFlush += c.interval
		if timeDiff(current, c.tsFlush) >= 0 {
			c.tsFlush = current + c.interval
		}
		c.flush()
	}
}

// Check returns the timestamp (ms) at which the host should next call
// Update, given no intervening Send/Input calls. A host may sleep until
// this deadline instead of polling on a fixed tick.
func (c *Control) Check(current uint32) uint32 {
	tsFlush := c.tsFlush
	if !c.updated {
		return current
	}

	if timeDiff(current, tsFlush) >= flushStallReset || timeDiff(current, tsFlush) < -flushStallReset {
		tsFlush = current
	}
	if timeDiff(current, tsFlush) >= 0 {
		return current
	}

	deadline := tsFlush

	for i := range c.sndBuf.items {
		resendts := c.sndBuf.items[i].resendts
		if timeDiff(resendts, current) <= 0 {
			return current
		}
		if timeDiff(resendts, deadline) < 0 {
			deadline = resendts
		}
	}

	if timeDiff(deadline, current+c.interval) > 0 {
		deadline = current + c.interval
	}
	return deadline
}
