package arq

import "testing"

func TestUpdateAckFirstSample(t *testing.T) {
	c := New(1, func([]byte) {})
	c.updateAck(40)

	if c.rxSrtt != 40 {
		t.Fatalf("rxSrtt = %d, want 40", c.rxSrtt)
	}
	if c.rxRttvar != 20 {
		t.Fatalf("rxRttvar = %d, want 20", c.rxRttvar)
	}
	wantRTO := boundU32(c.rxMinrto, uint32(c.rxSrtt)+maxU32(c.interval, 4*uint32(c.rxRttvar)), rtoMax)
	if c.rxRto != wantRTO {
		t.Fatalf("rxRto = %d, want %d", c.rxRto, wantRTO)
	}
}

func TestUpdateAckSubsequentSample(t *testing.T) {
	c := New(1, func([]byte) {})
	c.updateAck(40)
	prevRto := c.rxRto
	c.updateAck(60)

	wantDelta := int32(20)
	wantRttvar := (3*int32(20) + wantDelta) / 4
	wantSrtt := (7*int32(40) + 60) / 8
	if c.rxRttvar != wantRttvar {
		t.Fatalf("rxRttvar = %d, want %d", c.rxRttvar, wantRttvar)
	}
	if c.rxSrtt != wantSrtt {
		t.Fatalf("rxSrtt = %d, want %d", c.rxSrtt, wantSrtt)
	}
	_ = prevRto
}

func TestUpdateAckRTOBounds(t *testing.T) {
	c := New(1, func([]byte) {})
	c.NoDelay(0, -1, -1, -1)
	if c.rxMinrto != rtoMin {
		t.Fatalf("rxMinrto = %d, want %d", c.rxMinrto, rtoMin)
	}

	c.updateAck(1)
	if c.rxRto < c.rxMinrto {
		t.Fatalf("rxRto = %d below rxMinrto = %d", c.rxRto, c.rxMinrto)
	}

	// A very large RTT sample should never push rxRto past the 60s cap.
	c.updateAck(1_000_000)
	if c.rxRto > rtoMax {
		t.Fatalf("rxRto = %d exceeds rtoMax = %d", c.rxRto, rtoMax)
	}
}

func TestNoDelayTunesMinRTO(t *testing.T) {
	c := New(1, func([]byte) {})
	c.NoDelay(1, -1, -1, -1)
	if c.rxMinrto != rtoNoDelay {
		t.Fatalf("rxMinrto = %d, want %d after enabling nodelay", c.rxMinrto, rtoNoDelay)
	}
	c.NoDelay(0, -1, -1, -1)
	if c.rxMinrto != rtoMin {
		t.Fatalf("rxMinrto = %d, want %d after disabling nodelay", c.rxMinrto, rtoMin)
	}
}
