// Package arq implements a reliable, ordered, message-oriented ARQ
// transport that runs over an unreliable datagram primitive such as UDP.
//
// The package is purely computational: it produces and consumes bytes
// through a caller-supplied egress sink and a caller-driven Input call, and
// its timers are advanced by a caller-driven clock (Update). It does not
// open sockets, spawn goroutines, or read the system clock. See the
// sub-packages under session/, config/ and the cmd/ programs for a runnable
// host built around this core.
package arq
