package arq

import (
	"bytes"
	"testing"
)

func TestSegmentEncodeDecodeRoundTrip(t *testing.T) {
	in := segment{
		conv: 12345,
		cmd:  cmdPush,
		frg:  3,
		wnd:  128,
		ts:   999,
		sn:   7,
		una:  2,
		data: []byte("hello world"),
	}

	buf := in.encode(nil)
	if len(buf) != headerSize+len(in.data) {
		t.Fatalf("encoded length = %d, want %d", len(buf), headerSize+len(in.data))
	}

	out, n, err := decodeSegment(buf)
	if err != nil {
		t.Fatalf("decodeSegment: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed = %d, want %d", n, len(buf))
	}
	if out.conv != in.conv || out.cmd != in.cmd || out.frg != in.frg || out.wnd != in.wnd ||
		out.ts != in.ts || out.sn != in.sn || out.una != in.una {
		t.Fatalf("decoded header mismatch: got %+v, want %+v", out, in)
	}
	if !bytes.Equal(out.data, in.data) {
		t.Fatalf("decoded data = %q, want %q", out.data, in.data)
	}
}

func TestDecodeSegmentConcatenated(t *testing.T) {
	a := segment{conv: 1, cmd: cmdAck, sn: 1, ts: 10}
	b := segment{conv: 1, cmd: cmdPush, sn: 2, data: []byte("xy")}

	buf := a.encode(nil)
	buf = b.encode(buf)

	first, n1, err := decodeSegment(buf)
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	if first.cmd != cmdAck {
		t.Fatalf("first.cmd = %d, want cmdAck", first.cmd)
	}

	second, n2, err := decodeSegment(buf[n1:])
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if second.cmd != cmdPush || string(second.data) != "xy" {
		t.Fatalf("second = %+v, want cmdPush with data 'xy'", second)
	}
	if n1+n2 != len(buf) {
		t.Fatalf("consumed %d+%d, want %d", n1, n2, len(buf))
	}
}

func TestDecodeSegmentTruncatedHeader(t *testing.T) {
	buf := make([]byte, headerSize-1)
	if _, _, err := decodeSegment(buf); err != ErrMalformedDatagram {
		t.Fatalf("err = %v, want ErrMalformedDatagram", err)
	}
}

func TestDecodeSegmentUnknownCommand(t *testing.T) {
	seg := segment{conv: 1, cmd: 99}
	buf := seg.encode(nil)
	if _, _, err := decodeSegment(buf); err != ErrMalformedDatagram {
		t.Fatalf("err = %v, want ErrMalformedDatagram", err)
	}
}

func TestDecodeSegmentShortPayload(t *testing.T) {
	seg := segment{conv: 1, cmd: cmdPush, data: []byte("hello")}
	buf := seg.encode(nil)
	buf = buf[:len(buf)-2] // truncate the payload
	if _, _, err := decodeSegment(buf); err != ErrMalformedDatagram {
		t.Fatalf("err = %v, want ErrMalformedDatagram", err)
	}
}
