package tuitest

import (
	"bytes"
	"io"
)

// terminalQueries are the capability probes bubbletea and termenv send at
// startup, with the answers a plain dark terminal would give.
var terminalQueries = []struct {
	query, reply string
}{
	{"\x1b[6n", "\x1b[1;1R"},
	{"\x1b]10;?\x07", "\x1b]10;rgb:cccc/cccc/cccc\x07"},
	{"\x1b]10;?\x1b\\", "\x1b]10;rgb:cccc/cccc/cccc\x1b\\"},
	{"\x1b]11;?\x07", "\x1b]11;rgb:0000/0000/0000\x07"},
	{"\x1b]11;?\x1b\\", "\x1b]11;rgb:0000/0000/0000\x1b\\"},
}

const (
	responderMaxBuffer = 256
	responderKeepTail  = 64
)

// terminalResponder answers probes written by the program so it never blocks
// waiting for a real terminal.
type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, responderMaxBuffer)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerOne() {
	}
	// A probe can straddle two reads, so keep a short tail.
	if len(tr.buf) > responderMaxBuffer {
		tr.buf = append(tr.buf[:0], tr.buf[len(tr.buf)-responderKeepTail:]...)
	}
}

// answerOne replies to the earliest pending probe in the buffer.
func (tr *terminalResponder) answerOne() bool {
	first, at := -1, len(tr.buf)
	for i, q := range terminalQueries {
		if idx := bytes.Index(tr.buf, []byte(q.query)); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	q := terminalQueries[first]
	tr.buf = tr.buf[at+len(q.query):]
	_, _ = io.WriteString(tr.w, q.reply)
	return true
}
