package websocket

import (
	"context"
	"fmt"
)

// Open establishes a WebSocket connection per [Config] and starts its
// background receive loop. The handshake (§4.E) runs synchronously: by
// the time Open returns successfully, the connection is live and the
// callback may already be firing from another goroutine.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	c, err := Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	go c.receiveLoop()

	return c, nil
}

// Emit sends one data frame to the server. It fails immediately, without
// touching the connection, if the result slot has already been
// fulfilled (see [Conn.Close]). It is safe to call from the connection's
// own callback.
func (c *Conn) Emit(op Opcode, data []byte) error {
	if c.result.isSet() {
		return fmt.Errorf("cannot emit on WebSocket connection %s: already closed", c.id)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.writeFrame(op, data); err != nil {
		return fmt.Errorf("failed to emit WebSocket frame: %w", err)
	}
	return nil
}

// Result blocks until the result slot is fulfilled, then returns the
// close status and message held there. The slot is filled by whichever
// comes first: [Conn.Close] (with its own arguments, as soon as its
// close frame is sent), a close frame from the server, a protocol
// violation, or a transport error. After a local Close, the values
// returned here can therefore differ from those later delivered to the
// callback. It may be called any number of times, and from any
// goroutine, including before the connection has started closing.
func (c *Conn) Result() (StatusCode, string) {
	return c.result.wait()
}
