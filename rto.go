package arq

// updateAck feeds one RTT sample (ms) into the Jacobson/Karn estimator and
// recomputes rx_rto. All arithmetic is integer ms.
func (c *Control) updateAck(rtt int32) {
	if c.rxSrtt == 0 {
		c.rxSrtt = rtt
		c.rxRttvar = rtt / 2
	} else {
		delta := rtt - c.rxSrtt
		if delta < 0 {
			delta = -delta
		}
		c.rxRttvar = (3*c.rxRttvar + delta) / 4
		c.rxSrtt = (7*c.rxSrtt + rtt) / 8
		if c.rxSrtt < 1 {
			c.rxSrtt = 1
		}
	}

	rto := uint32(c.rxSrtt) + maxU32(c.interval, 4*uint32(c.rxRttvar))
	c.rxRto = boundU32(c.rxMinrto, rto, rtoMax)
}
