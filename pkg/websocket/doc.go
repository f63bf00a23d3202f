// Package websocket is a minimal client-only implementation of the
// WebSocket protocol (RFC 6455, version 13) over a plain TCP stream.
//
// It performs the opening HTTP upgrade handshake, then reads and writes
// framed messages — text, binary, ping, pong, close — until the
// connection terminates. One goroutine owns the input stream and
// delivers messages to a [Callback] in wire order; writes from any
// goroutine, including the callback itself, are serialized under a
// single send lock.
//
// Note: TLS, the server role, [extensions] and [subprotocols], HTTP
// redirects and proxies, automatic reconnection, and multiplexing are
// all out of scope.
//
// [extensions]: https://www.iana.org/assignments/websocket/websocket.xhtml#extension-name
// [subprotocols]: https://www.iana.org/assignments/websocket/websocket.xhtml#subprotocol-name
package websocket
