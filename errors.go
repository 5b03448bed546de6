package arq

import "errors"

// Sentinel errors returned at the public API boundary. The core never
// wraps these with a stack trace; it has no call stack worth annotating.
// Hosts that want a trace wrap these further up at their own I/O
// boundaries, the way cmd/arqecho and cmd/arqping do with
// github.com/pkg/errors.
var (
	// ErrEAgain is returned by Recv when rcv_queue holds no complete message.
	ErrEAgain = errors.New("arq: no message ready")

	// ErrOversizeRecv is returned by Recv when the caller's buffer is
	// smaller than the next queued message.
	ErrOversizeRecv = errors.New("arq: buffer smaller than next message")

	// ErrEmptySend is returned by Send for a zero-length input.
	ErrEmptySend = errors.New("arq: empty send")

	// ErrTooManyFragments is returned by Send when the message would need
	// more than 255 fragments to transmit.
	ErrTooManyFragments = errors.New("arq: message needs more than 255 fragments")

	// ErrForeignConversation is returned by Input when the datagram's conv
	// field does not match this control block's conv.
	ErrForeignConversation = errors.New("arq: conversation id mismatch")

	// ErrMalformedDatagram is returned by Input when a segment header is
	// truncated, carries an unknown command, or claims more payload than
	// is actually present.
	ErrMalformedDatagram = errors.New("arq: malformed datagram")
)
