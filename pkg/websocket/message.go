package websocket

import (
	"bytes"
	"errors"
	"io"
)

// receiveLoop is the single long-running background task that owns the
// connection's input stream. It reads and validates frames, reassembles
// fragmented messages, answers control frames, and dispatches every
// delivered message to the connection's [Callback], in wire order, from
// this same goroutine, until the connection closes for any reason.
//
// It is based on:
//   - Fragmentation: https://datatracker.ietf.org/doc/html/rfc6455#section-5.4
//   - Control frames: https://datatracker.ietf.org/doc/html/rfc6455#section-5.5
//   - Data frames: https://datatracker.ietf.org/doc/html/rfc6455#section-5.6
//   - Closing the connection: https://datatracker.ietf.org/doc/html/rfc6455#section-7
func (c *Conn) receiveLoop() {
	var buf bytes.Buffer
	op := opcodeContinuation // Opcode that started the in-progress message, if any.

	for {
		h, err := c.readFrameHeader()
		if errors.Is(err, errTopBitSet) {
			c.logger.Error().Err(err).Msg("WebSocket protocol violation")
			c.fail(StatusProtocolError, "payload length top bit set")
			return
		}
		if err == nil {
			var data []byte
			data, err = c.readFramePayload(h.payloadLength)
			if err == nil {
				if reason, status, cerr := c.checkFrameHeader(h, op); cerr != nil {
					c.logger.Error().Err(cerr).Msg("WebSocket protocol violation")
					c.fail(status, reason)
					return
				}

				if c.handleFrame(h, data, &buf, &op) {
					return
				}
				continue
			}
		}

		// Transport error: EOF or any other I/O failure reading a frame.
		// The connection is already unusable; there is nothing to send.
		if errors.Is(err, io.EOF) {
			c.logger.Debug().Msg("WebSocket connection closed by peer")
		} else {
			c.logger.Error().Err(err).Msg("WebSocket connection error while reading a frame")
		}

		c.closeReceived = true
		c.closeSentMu.Lock()
		c.closeSent = true
		c.closeSentMu.Unlock()
		_ = c.conn.Close()

		c.result.set(StatusNone, "")
		c.cb(Event{Type: EventClose, Status: StatusNone}, c)
		return
	}
}

// handleFrame dispatches a single validated frame. It reports whether
// the receive loop must terminate (a close frame was received, or
// reassembly failed validation).
func (c *Conn) handleFrame(h frameHeader, data []byte, buf *bytes.Buffer, op *Opcode) bool {
	switch h.opcode {
	case opcodeContinuation, OpcodeText, OpcodeBinary:
		if h.opcode != opcodeContinuation {
			*op = h.opcode
		}
		if len(data) > 0 {
			buf.Write(data)
		}
		if h.fin {
			msgType := *op
			*op = opcodeContinuation
			payload := append([]byte(nil), buf.Bytes()...)
			buf.Reset()
			return !c.finalizeMessage(msgType, payload)
		}
		return false

	case opcodeClose:
		c.closeReceived = true
		status, reason, ok := parseClosePayload(data)
		if !ok {
			reason = ""
		}
		c.sendCloseControlFrame(status, "")
		c.result.set(status, reason)
		c.cb(Event{Type: EventClose, Status: status, Message: reason}, c)
		return true

	case opcodePing:
		c.sendMu.Lock()
		err := c.writeFrame(opcodePong, data)
		c.sendMu.Unlock()
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to send WebSocket pong")
		}
		c.cb(Event{Type: EventPing, Data: data}, c)
		return false

	case opcodePong:
		c.cb(Event{Type: EventPong, Data: data}, c)
		return false
	}

	return false
}

// finalizeMessage validates and delivers one complete (possibly
// reassembled) text or binary message. It reports whether the message
// was delivered successfully; false means the connection is already
// being torn down for a UTF-8 violation.
func (c *Conn) finalizeMessage(op Opcode, data []byte) bool {
	if op == OpcodeText && !validateUTF8(data) {
		c.logger.Error().Msg("WebSocket protocol violation: invalid UTF-8 in text message")
		c.fail(StatusInvalidData, "invalid UTF-8 in text message")
		return false
	}

	if op == OpcodeText {
		c.cb(Event{Type: EventText, Text: string(data)}, c)
	} else {
		c.cb(Event{Type: EventBinary, Data: data}, c)
	}
	return true
}

// fail terminates the connection after a protocol violation: it sends a
// close frame with status and an empty reason, fulfills the result slot,
// and invokes the callback, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-7.1.5.
func (c *Conn) fail(status StatusCode, _ string) {
	c.closeReceived = true
	c.sendCloseControlFrame(status, "")
	c.result.set(status, "")
	c.cb(Event{Type: EventClose, Status: status}, c)
}
