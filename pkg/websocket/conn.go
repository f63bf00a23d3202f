package websocket

import (
	"bufio"
	"io"
	"net"
	"sync"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
)

// Conn represents the state of an open client connection to a WebSocket
// server: the raw TCP socket, the buffered frame stream built on top of
// it once the handshake completes, and the bookkeeping needed to police
// the closing handshake and serialize concurrent sends.
type Conn struct {
	id     string
	logger *zerolog.Logger

	// Initialized by the handshake, then read/written by the receive
	// loop and by Emit/Close for the remainder of the connection's life.
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	cb Callback

	// Guards every write to conn, whether it originates from the
	// caller's goroutine (Emit, Close) or from the receive loop itself
	// (automatic pong, protocol-error close). See sendCloseControlFrame
	// and writeFrame.
	sendMu sync.Mutex

	result *result

	// No synchronization needed: mutated only by the receive loop's own
	// goroutine, in one direction (false to true).
	closeReceived bool

	closeSent   bool
	closeSentMu sync.RWMutex

	// Scratch space to minimize allocations; not shared state.
	readBuf  [8]byte
	writeBuf [8]byte
	closeBuf [maxControlPayload]byte

	// For unit-testing only: lets a test supply a deterministic source
	// of "random" bytes for the Sec-WebSocket-Key and masking keys.
	nonceGen io.Reader
}

// EventType identifies the kind of [Event] delivered to a [Callback].
type EventType int

const (
	// EventText carries a validated UTF-8 string in Event.Text.
	EventText EventType = iota
	// EventBinary carries raw bytes in Event.Data.
	EventBinary
	// EventPing carries the ping payload in Event.Data. The pong reply
	// has already been sent by the time this event is delivered.
	EventPing
	// EventPong carries the pong payload in Event.Data.
	EventPong
	// EventClose carries the close outcome in Event.Status/Event.Message.
	// It is delivered exactly once per connection, and last.
	EventClose
)

// Event is the payload dispatched to a [Callback] for one delivered
// message, as defined in https://datatracker.ietf.org/doc/html/rfc6455#section-5.6.
type Event struct {
	Type    EventType
	Text    string
	Data    []byte
	Status  StatusCode
	Message string
}

// Callback is invoked by a [Conn]'s receive loop for every message it
// delivers, in wire order, from the same goroutine that runs the loop.
// It is legal for a callback to call [Conn.Emit] or [Conn.Close] on its
// own connection (used by Autobahn's echo scenario); the send path does
// not depend on the receive loop, so this can never deadlock.
type Callback func(Event, *Conn)

// newConn wraps an established TCP socket (the handshake has already
// succeeded) into a [Conn] ready to start its receive loop.
func newConn(conn net.Conn, cb Callback, logger *zerolog.Logger, nonceGen io.Reader) *Conn {
	id := shortuuid.New()
	l := logger.With().Str("conn_id", id).Logger()

	return &Conn{
		id:       id,
		logger:   &l,
		conn:     conn,
		br:       bufio.NewReader(conn),
		bw:       bufio.NewWriter(conn),
		cb:       cb,
		result:   newResult(),
		nonceGen: nonceGen,
	}
}

// result is a single-assignment cell holding the close outcome of a
// [Conn]: once set, it is permanent, and further attempts to set it are
// silently ignored, as required by spec for the client's result slot.
type result struct {
	once    sync.Once
	done    chan struct{}
	status  StatusCode
	message string
}

func newResult() *result {
	return &result{done: make(chan struct{})}
}

// set fulfills the result slot on its first call; every subsequent call
// is a no-op, matching the idempotent closing contract of [Conn.Close].
func (r *result) set(status StatusCode, message string) {
	r.once.Do(func() {
		r.status = status
		r.message = message
		close(r.done)
	})
}

// isSet reports whether the result slot has already been fulfilled,
// without blocking.
func (r *result) isSet() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// wait blocks until the result slot is fulfilled, then returns it.
func (r *result) wait() (StatusCode, string) {
	<-r.done
	return r.status, r.message
}
