package arq

import "encoding/binary"

// segment is both the in-memory record and the wire unit. The four
// transmission-only fields below never appear on the wire; they exist only
// on entries held in snd_buf.
type segment struct {
	conv uint32
	cmd  uint8
	frg  uint8
	wnd  uint16
	ts   uint32
	sn   uint32
	una  uint32
	data []byte

	// transmission bookkeeping, never encoded
	resendts uint32
	rto      uint32
	fastack  uint32
	xmit     uint32
}

// encode appends the 24-byte header followed by the payload to dst and
// returns the extended slice.
func (s *segment) encode(dst []byte) []byte {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], s.conv)
	hdr[4] = s.cmd
	hdr[5] = s.frg
	binary.LittleEndian.PutUint16(hdr[6:8], s.wnd)
	binary.LittleEndian.PutUint32(hdr[8:12], s.ts)
	binary.LittleEndian.PutUint32(hdr[12:16], s.sn)
	binary.LittleEndian.PutUint32(hdr[16:20], s.una)
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(len(s.data)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, s.data...)
	return dst
}

// decodeSegment reads one segment from the front of in and returns it along
// with the number of bytes consumed. Failure signals ErrMalformedDatagram.
func decodeSegment(in []byte) (seg segment, consumed int, err error) {
	if len(in) < headerSize {
		return segment{}, 0, ErrMalformedDatagram
	}
	seg.conv = binary.LittleEndian.Uint32(in[0:4])
	seg.cmd = in[4]
	seg.frg = in[5]
	seg.wnd = binary.LittleEndian.Uint16(in[6:8])
	seg.ts = binary.LittleEndian.Uint32(in[8:12])
	seg.sn = binary.LittleEndian.Uint32(in[12:16])
	seg.una = binary.LittleEndian.Uint32(in[16:20])
	length := binary.LittleEndian.Uint32(in[20:24])

	switch seg.cmd {
	case cmdPush, cmdAck, cmdWask, cmdWins:
	default:
		return segment{}, 0, ErrMalformedDatagram
	}

	if uint32(len(in)-headerSize) < length {
		return segment{}, 0, ErrMalformedDatagram
	}

	if length > 0 {
		seg.data = make([]byte, length)
		copy(seg.data, in[headerSize:headerSize+int(length)])
	}
	return seg, headerSize + int(length), nil
}
