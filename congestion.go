package arq

// growOnAck grows the congestion window after snd_una has advanced,
// following the usual slow-start / congestion-avoidance rule.
func (c *Control) growOnAck() {
	mss := c.mss
	if c.cwnd < c.ssthresh {
		c.cwnd++
		c.incr += mss
	} else {
		c.incr = maxU32(c.incr, mss)
		c.incr += (mss*mss)/c.incr + mss/16
		if (c.cwnd+1)*mss <= c.incr {
			c.cwnd++
		}
	}
	if c.cwnd > c.rmtWnd {
		c.cwnd = c.rmtWnd
		c.incr = c.rmtWnd * mss
	}
}

// effectiveSendWindow is the window flush uses to decide how many segments
// may move from snd_queue into snd_buf.
func (c *Control) effectiveSendWindow() uint32 {
	w := minU32(c.sndWnd, c.rmtWnd)
	if !c.nocwnd {
		w = minU32(w, c.cwnd)
	}
	return w
}

// onFastRetransmit applies the rate-halving update when a fast or early
// retransmit happened this flush.
func (c *Control) onFastRetransmit(resent uint32) {
	inflight := c.sndNxt - c.sndUna
	c.ssthresh = maxU32(inflight/2, threshMin)
	c.cwnd = c.ssthresh + resent
	c.incr = c.cwnd * c.mss
}

// onTimeoutLoss halves ssthresh and drops cwnd back to one segment (slow
// start) when a retransmit timeout fired this flush.
func (c *Control) onTimeoutLoss(cwndEff uint32) {
	c.ssthresh = maxU32(cwndEff/2, threshMin)
	c.cwnd = 1
	c.incr = c.mss
}
