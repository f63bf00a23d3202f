package websocket

import (
	"bufio"
	"bytes"
	"io"
	"net"

	"github.com/rs/zerolog"
)

// newTestConn builds a [Conn] around independent read/write buffers, for
// tests that exercise the frame codec without a real socket. conn is
// left nil: only tests that trigger the closing handshake need it, and
// they use newPipeConn instead.
func newTestConn(in io.Reader) (*Conn, *bytes.Buffer) {
	var out bytes.Buffer
	l := zerolog.Nop()

	c := &Conn{
		id:     "test",
		logger: &l,
		br:     bufio.NewReader(in),
		bw:     bufio.NewWriter(&out),
		result: newResult(),
	}
	return c, &out
}

// newPipeConn builds a [Conn] backed by one end of an in-memory
// [net.Pipe], for tests that need a real io.Closer (e.g. the closing
// handshake). It returns the connection and the server-side end of the
// pipe.
func newPipeConn(cb Callback) (*Conn, net.Conn) {
	client, server := net.Pipe()
	l := zerolog.Nop()

	c := &Conn{
		id:     "test",
		logger: &l,
		conn:   client,
		br:     bufio.NewReader(client),
		bw:     bufio.NewWriter(client),
		cb:     cb,
		result: newResult(),
	}
	return c, server
}
