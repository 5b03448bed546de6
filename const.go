package arq

// Command codes (cmd field).
const (
	cmdPush uint8 = 81 // data
	cmdAck  uint8 = 82 // selective ack
	cmdWask uint8 = 83 // probe remote window
	cmdWins uint8 = 84 // announce local window
)

// Probe bits (probe field).
const (
	askSend uint32 = 1 // need to send a WASK
	askTell uint32 = 2 // need to send a WINS
)

// Defaults and bounds.
const (
	rtoNoDelay  = 30    // rx_minrto when nodelay is on
	rtoMin      = 100   // rx_minrto when nodelay is off
	rtoDefault  = 200   // initial rx_rto before any sample
	rtoMax      = 60000 // upper bound on rx_rto

	wndSendDefault = 32
	wndRecvDefault = 32
	wndRecvFloor   = 128 // WndSize never lowers rcv_wnd below this

	mtuDefault = 1400
	mtuFloor   = 50 // smallest mtu SetMTU will accept

	headerSize = 24 // wire header size

	deadLinkDefault = 20

	threshInit = 2
	threshMin  = 2

	probeInit  = 7000   // ms, initial window-probe backoff
	probeLimit = 120000 // ms, max window-probe backoff

	intervalDefault = 100 // ms, flush tick interval
	intervalMin     = 10
	intervalMax     = 5000

	flushStallReset = 10000 // ms, reset tsFlush if the clock jumps this far out of range
)

// maxFragments bounds Send's fragment count.
const maxFragments = 255
