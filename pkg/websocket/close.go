package websocket

import (
	"encoding/binary"
	"strconv"
	"time"
)

// StatusCode indicates a reason for the closure of an established
// WebSocket connection, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-7.4.
//
// See also https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number.
type StatusCode uint16

const (
	// StatusNone is not a wire value; it marks a connection that ended
	// without any close frame at all (a transport error, or the peer
	// simply dropping the TCP connection).
	StatusNone StatusCode = 0
	// The purpose for which the connection was established has been fulfilled.
	StatusNormalClosure StatusCode = 1000
	// An endpoint is "going away", such as a server going
	// down or a browser having navigated away from a page.
	StatusGoingAway StatusCode = 1001
	// An endpoint is terminating the connection due to a protocol error.
	StatusProtocolError StatusCode = 1002
	// An endpoint is terminating the connection because it has received a
	// type of data it cannot accept (e.g., an endpoint that understands
	// only text data MAY send this if it receives a binary message).
	StatusUnsupportedData StatusCode = 1003
	// Reserved value, MUST NOT be set as a status code in a Close control
	// frame by an endpoint. Used by applications to mean no status code
	// was actually present.
	StatusNotReceived StatusCode = 1005
	// Reserved value, MUST NOT be set as a status code in a Close control
	// frame by an endpoint. Used by applications to mean the connection
	// was closed abnormally, e.g. without a Close control frame.
	StatusClosedAbnormally StatusCode = 1006
	// An endpoint is terminating the connection because it has received data
	// within a message that was not consistent with the type of the message
	// (e.g., non-UTF-8 RFC 3629 data within a text message).
	StatusInvalidData StatusCode = 1007
	// An endpoint is terminating the connection because it has received a
	// message that violates its policy, when no more specific status code
	// (1003 or 1009) applies.
	StatusPolicyViolation StatusCode = 1008
	// An endpoint is terminating the connection because it has
	// received a message that is too big for it to process.
	StatusMessageTooBig StatusCode = 1009
	// A client is terminating the connection because it expected the
	// server to negotiate one or more extensions, but the server didn't.
	StatusMandatoryExtension StatusCode = 1010
	// A remote endpoint is terminating the connection because it
	// encountered an unexpected condition.
	StatusInternalError StatusCode = 1011
)

// String returns the status code's name, or its number if it's unrecognized.
func (s StatusCode) String() string {
	switch s {
	case StatusNone:
		return "no status code"
	case StatusNormalClosure:
		return "normal closure"
	case StatusGoingAway:
		return "going away"
	case StatusProtocolError:
		return "protocol error"
	case StatusUnsupportedData:
		return "unsupported data"
	case StatusNotReceived:
		return "status not received"
	case StatusClosedAbnormally:
		return "closed abnormally"
	case StatusInvalidData:
		return "invalid data"
	case StatusPolicyViolation:
		return "policy violation"
	case StatusMessageTooBig:
		return "message too big"
	case StatusMandatoryExtension:
		return "expected extension negotiation"
	case StatusInternalError:
		return "internal error"
	default:
		return strconv.Itoa(int(s))
	}
}

// validCloseCode reports whether status is legal to receive in a close
// frame: the registered codes 1000-1003 and 1007-1011, or the
// application-defined range [3000, 5000). Every other value, including
// the reserved-but-unassigned 1004 and the never-on-the-wire 1005/1006,
// is a protocol error.
func validCloseCode(status StatusCode) bool {
	switch status {
	case StatusNormalClosure, StatusGoingAway, StatusProtocolError, StatusUnsupportedData,
		StatusInvalidData, StatusPolicyViolation, StatusMessageTooBig, StatusMandatoryExtension,
		StatusInternalError:
		return true
	}
	return status >= 3000 && status < 5000
}

// maxCloseReason is the maximum length of a connection-closing reason.
// The difference from maxControlPayload is due to the 2-byte status code.
const maxCloseReason = maxControlPayload - 2

// parseClosePayload extracts the StatusCode and UTF-8 reason from an
// incoming connection-close control frame's payload, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-5.5.1. ok is
// false when the frame itself is a protocol violation (a lone length-1
// payload, an illegal status code, or malformed UTF-8 in the reason); in
// that case status already holds the code to report back to the peer.
func parseClosePayload(payload []byte) (status StatusCode, reason string, ok bool) {
	switch len(payload) {
	case 0:
		return StatusNormalClosure, "", true
	case 1:
		return StatusProtocolError, "", false
	}

	status = StatusCode(binary.BigEndian.Uint16(payload))
	if !validCloseCode(status) {
		return StatusProtocolError, "", false
	}

	r := payload[2:]
	if !validateUTF8(r) {
		return StatusInvalidData, "", false
	}

	return status, string(r), true
}

// sendCloseControlFrame either initiates or responds to a WebSocket
// closing handshake. This function can be called from 2 places:
// [Conn.handleFrame]/[Conn.fail] and [Conn.Close].
//
// This function is idempotent: when calling it multiple
// times, all calls after the initial one are no-ops.
//
// It is based on:
//   - Control frames - close: https://datatracker.ietf.org/doc/html/rfc6455#section-5.5.1
//   - Closing the connection: https://datatracker.ietf.org/doc/html/rfc6455#section-7
func (c *Conn) sendCloseControlFrame(status StatusCode, reason string) {
	c.closeSentMu.Lock()
	defer c.closeSentMu.Unlock()

	// "If an endpoint receives a Close frame and did not previously send
	// a Close frame, the endpoint MUST send a Close frame in response."
	if c.closeSent {
		return
	}

	// Let the reader side finish handling the previous frame, if needed.
	// This helps some Autobahn test cases succeed deterministically.
	time.Sleep(time.Millisecond)

	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}

	binary.BigEndian.PutUint16(c.closeBuf[:2], uint16(status))
	if len(reason) > 0 {
		copy(c.closeBuf[2:], reason)
	}

	n := 2 + len(reason)
	l := c.logger.With().Str("close_status", status.String()).Str("close_reason", reason).Logger()

	c.sendMu.Lock()
	err := c.writeFrame(opcodeClose, c.closeBuf[:n])
	c.sendMu.Unlock()

	if err != nil {
		l.Err(err).Msg("failed to send WebSocket close control frame")
	} else {
		l.Trace().Msg("sent WebSocket close control frame")
	}

	c.closeSent = true

	if c.closeReceived {
		_ = c.conn.Close()
	}
}

func (c *Conn) isCloseSent() bool {
	c.closeSentMu.RLock()
	defer c.closeSentMu.RUnlock()

	return c.closeSent
}

// Close initiates a [WebSocket closing handshake]: it sends a close
// frame carrying status and message, then fulfills the result slot with
// the same values. A second call (from either the caller or the receive
// loop) is a no-op, since [Conn.sendCloseControlFrame] and the result
// slot are both idempotent.
//
// [WebSocket closing handshake]: https://datatracker.ietf.org/doc/html/rfc6455#section-7.1.2
func (c *Conn) Close(status StatusCode, message string) {
	c.sendCloseControlFrame(status, message)
	c.result.set(status, message)
}

// IsClosed reports whether the closing handshake has fully completed in
// both directions.
func (c *Conn) IsClosed() bool {
	return c.closeReceived && c.isCloseSent()
}

// IsClosing reports whether either side has started the closing handshake.
func (c *Conn) IsClosing() bool {
	return c.closeReceived || c.isCloseSent()
}
