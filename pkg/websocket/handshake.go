package websocket

import (
	"context"
	"crypto/rand"
	"crypto/sha1" //gosec:disable G505 // Required by the WebSocket protocol.
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// acceptGUID is appended to the client's Sec-WebSocket-Key before hashing,
// as defined in https://datatracker.ietf.org/doc/html/rfc6455#section-1.3.
var acceptGUID = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

// statusLineRE matches an HTTP response status line, e.g. "HTTP/1.1 101 Switching Protocols".
var statusLineRE = regexp.MustCompile(`^HTTP\S+ (\d+) (.*)$`)

// Config describes how to reach a WebSocket server and how to receive
// the messages it delivers.
type Config struct {
	Host string
	Port int
	Path string

	// Callback is invoked for every message the connection delivers.
	Callback Callback

	// Logger defaults to a no-op logger if left nil.
	Logger *zerolog.Logger
}

// Dial performs a [WebSocket handshake] over a plain TCP connection to
// the given host and port, and returns a connection ready to start
// receiving messages.
//
// [WebSocket handshake]: https://datatracker.ietf.org/doc/html/rfc6455#section-4.1
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	return dial(ctx, cfg, rand.Reader)
}

func dial(ctx context.Context, cfg Config, nonceGen io.Reader) (*Conn, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial WebSocket server: %w", err)
	}

	nonce, err := generateNonce(nonceGen)
	if err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("failed to generate WebSocket handshake nonce: %w", err)
	}

	if err := handshakeRequest(nc, cfg.Host, cfg.Port, cfg.Path, nonce); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("failed to send WebSocket handshake request: %w", err)
	}

	if err := checkHandshakeResponse(nc, nonce); err != nil {
		_ = nc.Close()
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	c := newConn(nc, cfg.Callback, logger, nonceGen)
	c.logger.Debug().Str("addr", addr).Str("path", cfg.Path).Msg("WebSocket handshake succeeded")
	return c, nil
}

// generateNonce generates a nonce consisting of a randomly selected
// 16-byte value that has been Base64-encoded, as required by
// https://datatracker.ietf.org/doc/html/rfc6455#section-4.1.
func generateNonce(r io.Reader) (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// handshakeRequest writes the upgrade request lines, byte-for-byte as
// defined in https://datatracker.ietf.org/doc/html/rfc6455#section-4.1,
// directly to the raw connection.
func handshakeRequest(w io.Writer, host string, port int, path, nonce string) error {
	lines := []string{
		fmt.Sprintf("GET %s HTTP/1.1", path),
		fmt.Sprintf("Sec-WebSocket-Key: %s", nonce),
		fmt.Sprintf("Host: %s:%d", host, port),
		"Upgrade: websocket",
		"Connection: Upgrade",
		"Sec-WebSocket-Version: 13",
		"",
		"",
	}

	_, err := io.WriteString(w, strings.Join(lines, "\r\n"))
	return err
}

// checkHandshakeResponse reads and validates the server's handshake
// response, as defined in https://datatracker.ietf.org/doc/html/rfc6455#section-4.2.2.
// It reads nothing beyond the header block's terminating blank line and
// the number of body bytes given by a Content-Length header, if any, so
// the connection's stream is left exactly where the frame decoder needs
// it to start.
func checkHandshakeResponse(r io.Reader, nonce string) error {
	statusLine, err := readLine(r)
	if err != nil {
		return fmt.Errorf("failed to read WebSocket handshake status line: %w", err)
	}

	m := statusLineRE.FindStringSubmatch(statusLine)
	if m == nil {
		return fmt.Errorf("unparseable WebSocket handshake status line: %q", statusLine)
	}
	if m[1] != "101" {
		return fmt.Errorf("WebSocket handshake failed: status %s %s", m[1], m[2])
	}

	headers := map[string]string{}
	for {
		line, err := readLine(r)
		if err != nil {
			return fmt.Errorf("failed to read WebSocket handshake response header: %w", err)
		}
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return fmt.Errorf("unparseable WebSocket handshake response header: %q", line)
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if err := checkHeaderValue(headers, "upgrade", "websocket"); err != nil {
		return err
	}
	if err := checkHeaderValue(headers, "connection", "upgrade"); err != nil {
		return err
	}
	if err := checkHeaderValue(headers, "sec-websocket-accept", expectedAcceptValue(nonce)); err != nil {
		return err
	}

	if n, err := strconv.Atoi(headers["content-length"]); err == nil && n > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return fmt.Errorf("failed to consume WebSocket handshake response body: %w", err)
		}
	}

	return nil
}

func checkHeaderValue(headers map[string]string, key, want string) error {
	if got := headers[key]; !strings.EqualFold(got, want) {
		return fmt.Errorf("WebSocket handshake response header %q: got %q, want %q", key, got, want)
	}
	return nil
}

// expectedAcceptValue computes the expected "Sec-WebSocket-Accept" header
// value: the Base64-encoded SHA-1 hash of the client's Sec-WebSocket-Key
// concatenated with the WebSocket GUID, as defined in
// https://datatracker.ietf.org/doc/html/rfc6455#section-4.2.2.
func expectedAcceptValue(key string) string {
	h := sha1.New() //gosec:disable G401 // Required by the WebSocket protocol.
	h.Write([]byte(key))
	h.Write(acceptGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
