package arq

import (
	"fmt"
	"testing"
)

func encodeAck(conv, sn, ts, una uint32, wnd uint16) []byte {
	seg := segment{conv: conv, cmd: cmdAck, sn: sn, ts: ts, una: una, wnd: wnd}
	return seg.encode(nil)
}

func TestFastRetransmitResendsOnlyLostSegment(t *testing.T) {
	var out wire
	a := New(1, out.send)
	a.WndSize(8, 8)
	a.NoDelay(1, 10, 2, 1) // nodelay on, interval=10, fastresend=2, nocwnd

	for i := 0; i < 8; i++ {
		if _, err := a.Send([]byte(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}

	a.Update(0)
	if a.sndBuf.len() != 8 {
		t.Fatalf("sndBuf.len() = %d, want 8 after initial flush", a.sndBuf.len())
	}
	out.datagrams = nil

	// Round 1: peer acknowledges everything except sn=3 (simulating it
	// having been dropped in transit). All 7 ACKs arrive concatenated in
	// one datagram, so parse_fastack fires once with maxack=7.
	var dg1 []byte
	for _, sn := range []uint32{0, 1, 2, 4, 5, 6, 7} {
		dg1 = append(dg1, encodeAck(1, sn, 0, 0, 8)...)
	}
	if _, err := a.Input(dg1); err != nil {
		t.Fatalf("Input(round1): %v", err)
	}
	if a.sndBuf.len() != 1 || a.sndBuf.front().sn != 3 {
		t.Fatalf("sndBuf after round1 = %+v, want only sn=3", a.sndBuf.items)
	}
	if a.sndBuf.front().fastack != 1 {
		t.Fatalf("sn=3 fastack = %d, want 1 after round1", a.sndBuf.front().fastack)
	}

	// Round 2: one more ACK referencing a higher (already-retired) sn
	// bumps sn=3's fastack up to the fastresend threshold of 2.
	dg2 := encodeAck(1, 4, 0, 0, 8)
	if _, err := a.Input(dg2); err != nil {
		t.Fatalf("Input(round2): %v", err)
	}
	if a.sndBuf.front().fastack != 2 {
		t.Fatalf("sn=3 fastack = %d, want 2 after round2", a.sndBuf.front().fastack)
	}

	a.Update(20)
	if len(out.datagrams) != 1 {
		t.Fatalf("expected exactly one retransmit datagram, got %d", len(out.datagrams))
	}
	seg, n, err := decodeSegment(out.datagrams[0])
	if err != nil {
		t.Fatalf("decode retransmit: %v", err)
	}
	if n != len(out.datagrams[0]) {
		t.Fatalf("retransmit datagram carried more than one segment")
	}
	if seg.sn != 3 || seg.cmd != cmdPush {
		t.Fatalf("retransmitted segment = %+v, want PUSH sn=3", seg)
	}
	if a.sndBuf.front().xmit != 2 {
		t.Fatalf("sn=3 xmit = %d, want 2", a.sndBuf.front().xmit)
	}
	if a.ssthresh < 2 {
		t.Fatalf("ssthresh = %d, want >= 2 after fast recovery", a.ssthresh)
	}
}

func TestTimeoutRetransmit(t *testing.T) {
	var out wire
	a := New(1, out.send)

	if _, err := a.Send([]byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	a.Update(0)
	if a.sndBuf.len() != 1 {
		t.Fatalf("sndBuf.len() = %d, want 1", a.sndBuf.len())
	}
	firstRTO := a.sndBuf.front().rto

	// Nothing is ever delivered to the peer: drive Update well past 2*rto.
	out.datagrams = nil
	for now := uint32(10); now <= 2*firstRTO+200; now += 10 {
		a.Update(now)
	}

	if a.sndBuf.front().xmit != 2 {
		t.Fatalf("xmit = %d, want 2 after one timeout retransmit", a.sndBuf.front().xmit)
	}
	if a.cwnd != 1 {
		t.Fatalf("cwnd = %d, want 1 after timeout-triggered loss", a.cwnd)
	}
}

func TestWindowProbe(t *testing.T) {
	var aOut, bOut wire
	a := New(1, aOut.send)
	b := New(1, bOut.send)
	// WndSize clamps rcv_wnd to the 128-segment floor, so rcv_wnd=1 is set
	// directly on the field to exercise the window-probe path without that
	// floor getting in the way.
	b.rcvWnd = 1

	a.Send([]byte("fill-it"))
	a.Update(0)
	aOut.drainInto(b)
	// Probe with an undersized buffer: the message stays parked in
	// rcv_queue, unread, so rcv_wnd reports exhausted and b keeps
	// advertising wnd=0.
	if _, err := b.Recv(make([]byte, 0)); err != ErrOversizeRecv {
		t.Fatalf("b.Recv(0 bytes) err = %v, want ErrOversizeRecv", err)
	}
	b.Update(0)
	bOut.drainInto(a)

	if a.rmtWnd != 0 {
		t.Fatalf("rmtWnd = %d, want 0 once b's window fills up", a.rmtWnd)
	}

	aOut.datagrams = nil
	// The probe is scheduled 7000ms out from the flush that first observes
	// rmt_wnd=0, growing by 50% each time it's re-armed.
	sawWask := false
	var probeAt uint32
	for now := uint32(1000); now <= 10000 && !sawWask; now += 100 {
		a.Update(now)
		for _, dg := range aOut.datagrams {
			for len(dg) > 0 {
				seg, n, err := decodeSegment(dg)
				if err != nil {
					t.Fatalf("decode probe datagram: %v", err)
				}
				if seg.cmd == cmdWask {
					sawWask = true
					probeAt = now
				}
				dg = dg[n:]
			}
		}
		if !sawWask {
			aOut.datagrams = nil
		}
	}
	if !sawWask {
		t.Fatalf("no WASK segment seen within 10s of rmt_wnd=0")
	}

	// Deliver the WASK, then have the application finally drain the parked
	// message — freeing b's window right as it is polled for a response,
	// same as a real receiver catching up right when asked.
	aOut.drainInto(b)
	drained := make([]byte, 16)
	if _, err := b.Recv(drained); err != nil {
		t.Fatalf("b.Recv after draining: %v", err)
	}

	bOut.datagrams = nil
	b.Update(probeAt)
	sawWins := false
	var advertisedWnd uint16
	for _, dg := range bOut.datagrams {
		for len(dg) > 0 {
			seg, n, err := decodeSegment(dg)
			if err != nil {
				t.Fatalf("decode b response: %v", err)
			}
			if seg.cmd == cmdWins {
				sawWins = true
				advertisedWnd = seg.wnd
			}
			dg = dg[n:]
		}
	}
	if !sawWins {
		t.Fatalf("b did not respond with WINS")
	}
	if advertisedWnd == 0 {
		t.Fatalf("WINS advertised wnd=0, want non-zero after draining")
	}

	bOut.drainInto(a)
	if a.rmtWnd == 0 {
		t.Fatalf("rmtWnd still 0 after WINS advertised wnd=%d", advertisedWnd)
	}
}
