package arq

// Send enqueues an application message for transmission, fragmenting it
// into snd_queue-sized pieces of at most mss bytes if necessary. It
// returns the number of bytes of buf consumed, which is always len(buf) on
// success.
func (c *Control) Send(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrEmptySend
	}
	total := len(buf)

	if c.stream {
		if n := c.sndQueue.len(); n > 0 {
			old := c.sndQueue.items[n-1]
			if uint32(len(old.data)) < c.mss {
				capacity := int(c.mss) - len(old.data)
				extend := capacity
				if len(buf) < capacity {
					extend = len(buf)
				}
				merged := make([]byte, len(old.data)+extend)
				copy(merged, old.data)
				copy(merged[len(old.data):], buf[:extend])
				c.sndQueue.items[n-1] = segment{data: merged, frg: 0}
				buf = buf[extend:]
			}
		}
		if len(buf) == 0 {
			return total, nil
		}
	}

	var count int
	if int(c.mss) <= 0 {
		return 0, ErrTooManyFragments
	}
	if len(buf) <= int(c.mss) {
		count = 1
	} else {
		count = (len(buf) + int(c.mss) - 1) / int(c.mss)
	}
	if count > maxFragments {
		return 0, ErrTooManyFragments
	}

	for i := 0; i < count; i++ {
		size := int(c.mss)
		if len(buf) < size {
			size = len(buf)
		}
		data := make([]byte, size)
		copy(data, buf[:size])

		frg := uint8(0)
		if !c.stream {
			frg = uint8(count - i - 1)
		}
		c.sndQueue.pushBack(segment{data: data, frg: frg})
		buf = buf[size:]
	}
	return total, nil
}

// peekSize returns the byte length of the next complete message at the
// head of rcv_queue, or -1 if the message is not yet fully queued.
func (c *Control) peekSize() int {
	if c.rcvQueue.len() == 0 {
		return -1
	}
	head := c.rcvQueue.front()
	if head.frg == 0 {
		return len(head.data)
	}
	if c.rcvQueue.len() < int(head.frg)+1 {
		return -1
	}
	length := 0
	for i := range c.rcvQueue.items {
		seg := &c.rcvQueue.items[i]
		length += len(seg.data)
		if seg.frg == 0 {
			break
		}
	}
	return length
}

// Recv copies the next complete message into buf. It returns
// ErrEAgain if rcv_queue does not yet hold a full message, or
// ErrOversizeRecv if buf is too small for the next message (state is left
// unchanged in both cases).
func (c *Control) Recv(buf []byte) (int, error) {
	if c.rcvQueue.len() == 0 {
		return 0, ErrEAgain
	}

	peekSize := c.peekSize()
	if peekSize < 0 {
		return 0, ErrEAgain
	}
	if peekSize > len(buf) {
		return 0, ErrOversizeRecv
	}

	recover := c.rcvQueue.len() >= int(c.rcvWnd)

	n := 0
	count := 0
	for i := range c.rcvQueue.items {
		seg := &c.rcvQueue.items[i]
		copy(buf[n:], seg.data)
		n += len(seg.data)
		count++
		if seg.frg == 0 {
			break
		}
	}
	c.rcvQueue.dropFront(count)

	c.promoteReceived()

	if c.rcvQueue.len() < int(c.rcvWnd) && recover {
		c.probe |= askTell
	}
	return n, nil
}

// promoteReceived moves the contiguous prefix of rcv_buf starting at
// rcv_nxt into rcv_queue, subject to rcv_wnd. Shared by parseData and Recv.
func (c *Control) promoteReceived() {
	count := 0
	for i := range c.rcvBuf.items {
		seg := &c.rcvBuf.items[i]
		if seg.sn == c.rcvNxt && c.rcvQueue.len() < int(c.rcvWnd) {
			c.rcvNxt++
			count++
		} else {
			break
		}
	}
	for i := 0; i < count; i++ {
		c.rcvQueue.pushBack(c.rcvBuf.items[i])
	}
	c.rcvBuf.dropFront(count)
}
