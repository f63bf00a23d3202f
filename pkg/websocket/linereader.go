package websocket

import (
	"errors"
	"fmt"
	"io"
)

// readLine reads from r one byte at a time until it sees '\n', and
// returns the bytes before it (with any trailing '\r' stripped) as a
// string. It deliberately avoids bufio: the handshake response is
// followed immediately by the first WebSocket frame on the very same
// stream, and a buffered reader would pull frame bytes into its
// internal buffer while looking for the next newline, handing the
// frame decoder a stream that's already missing its first bytes.
//
// End-of-stream before a newline is reported as an error.
func readLine(r io.Reader) (string, error) {
	var line []byte
	var b [1]byte

	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				if len(line) > 0 && line[len(line)-1] == '\r' {
					line = line[:len(line)-1]
				}
				return string(line), nil
			}
			line = append(line, b[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("connection closed before end of line: %w", err)
			}
			return "", fmt.Errorf("failed to read line: %w", err)
		}
	}
}
