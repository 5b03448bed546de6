package arq

// Input delivers one datagram, which may contain one or more concatenated
// segments, for processing. It returns the number of bytes consumed before
// the first failure (all of them, on success).
func (c *Control) Input(data []byte) (int, error) {
	consumed := 0
	sawAck := false
	var maxack uint32
	prevUna := c.sndUna

	for len(data) > 0 {
		seg, n, err := decodeSegment(data)
		if err != nil {
			return consumed, err
		}
		if seg.conv != c.conv {
			return consumed, ErrForeignConversation
		}

		c.rmtWnd = uint32(seg.wnd)
		c.parseUna(seg.una)
		c.shrinkBuf()

		switch seg.cmd {
		case cmdAck:
			if timeDiff(c.current, seg.ts) >= 0 {
				c.updateAck(timeDiff(c.current, seg.ts))
			}
			c.parseAck(seg.sn)
			c.shrinkBuf()
			if !sawAck {
				sawAck = true
				maxack = seg.sn
			} else if timeDiff(seg.sn, maxack) > 0 {
				maxack = seg.sn
			}
		case cmdPush:
			if timeDiff(seg.sn, c.rcvNxt+c.rcvWnd) < 0 {
				c.acklist = append(c.acklist, ackItem{sn: seg.sn, ts: seg.ts})
				if timeDiff(seg.sn, c.rcvNxt) >= 0 {
					c.parseData(seg)
				} else {
					c.stats.RepeatSegs++
				}
			} else {
				c.stats.RepeatSegs++
			}
		case cmdWask:
			c.probe |= askTell
		case cmdWins:
			// nothing to do: rmt_wnd was already refreshed above.
		default:
			return consumed, ErrMalformedDatagram
		}

		data = data[n:]
		consumed += n
	}

	if sawAck {
		c.parseFastack(maxack)
	}

	if timeDiff(c.sndUna, prevUna) > 0 {
		c.growOnAck()
	}

	return consumed, nil
}

// shrinkBuf resyncs snd_una to the head of snd_buf, or to snd_nxt if
// snd_buf is now empty.
func (c *Control) shrinkBuf() {
	if c.sndBuf.len() > 0 {
		c.sndUna = c.sndBuf.front().sn
	} else {
		c.sndUna = c.sndNxt
	}
}

// parseUna retires every snd_buf entry the peer has cumulatively
// acknowledged (sn < una).
func (c *Control) parseUna(una uint32) {
	count := 0
	for i := range c.sndBuf.items {
		if timeDiff(una, c.sndBuf.items[i].sn) > 0 {
			count++
		} else {
			break
		}
	}
	c.sndBuf.dropFront(count)
}

// parseAck removes the single snd_buf entry selectively acknowledged by sn,
// if any.
func (c *Control) parseAck(sn uint32) {
	if timeDiff(sn, c.sndUna) < 0 || timeDiff(sn, c.sndNxt) >= 0 {
		return
	}
	for i := range c.sndBuf.items {
		seg := &c.sndBuf.items[i]
		if sn == seg.sn {
			c.sndBuf.removeAt(i)
			return
		}
		if timeDiff(sn, seg.sn) < 0 {
			return
		}
	}
}

// parseFastack bumps the skip-ack counter of every snd_buf entry older than
// maxack, to drive fast retransmit. Called once per Input call with the
// highest sn acked by any ACK segment in that datagram, not once per ACK.
func (c *Control) parseFastack(maxack uint32) {
	if timeDiff(maxack, c.sndUna) < 0 || timeDiff(maxack, c.sndNxt) >= 0 {
		return
	}
	for i := range c.sndBuf.items {
		seg := &c.sndBuf.items[i]
		if timeDiff(maxack, seg.sn) < 0 {
			break
		} else if maxack != seg.sn {
			seg.fastack++
		}
	}
}

// parseData inserts a freshly decoded PUSH segment into rcv_buf in sorted,
// duplicate-free order, then promotes whatever contiguous prefix is now
// available into rcv_queue.
func (c *Control) parseData(newSeg segment) {
	sn := newSeg.sn
	if timeDiff(sn, c.rcvNxt+c.rcvWnd) >= 0 || timeDiff(sn, c.rcvNxt) < 0 {
		return
	}

	n := c.rcvBuf.len() - 1
	insertIdx := 0
	repeat := false
	for i := n; i >= 0; i-- {
		seg := &c.rcvBuf.items[i]
		if seg.sn == sn {
			repeat = true
			c.stats.RepeatSegs++
			break
		}
		if timeDiff(sn, seg.sn) > 0 {
			insertIdx = i + 1
			break
		}
	}

	if !repeat {
		if insertIdx == n+1 {
			c.rcvBuf.pushBack(newSeg)
		} else {
			c.rcvBuf.insertAt(insertIdx, newSeg)
		}
	}

	c.promoteReceived()
}
