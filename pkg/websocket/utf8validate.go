package websocket

import "unicode/utf8"

// validateUTF8 performs a strict RFC 3629 decode of b: it rejects
// overlong encodings and surrogate code points the same way
// unicode/utf8.Valid does, since Go's UTF-8 decoder is already strict
// rather than replacement-on-error. See DESIGN.md for why this stays on
// the standard library rather than a third-party decoder.
func validateUTF8(b []byte) bool {
	return utf8.Valid(b)
}
