package websocket

// maskPayload XORs every byte of payload with the rotating 4-byte key, as
// defined in https://datatracker.ietf.org/doc/html/rfc6455#section-5.3.
// It mutates payload in place and is its own inverse: applying it twice
// with the same key restores the original bytes. This is used both to
// mask outgoing client frames and (in tests, never against a real server
// since one must never arrive masked) to unmask a payload.
func maskPayload(payload []byte, key [4]byte) {
	for i := range payload {
		payload[i] ^= key[i&3]
	}
}
