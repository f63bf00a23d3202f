package websocket

import (
	"bytes"
	"testing"
)

func TestMaskPayloadInvolution(t *testing.T) {
	key := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	want := []byte("Hello, World! This is a longer payload than the key.")

	got := append([]byte(nil), want...)
	maskPayload(got, key)
	if bytes.Equal(got, want) {
		t.Fatalf("maskPayload did not change the payload")
	}

	maskPayload(got, key)
	if !bytes.Equal(got, want) {
		t.Errorf("maskPayload(maskPayload(P, K), K) = %q, want %q", got, want)
	}
}

func TestMaskPayloadKnownVector(t *testing.T) {
	// From RFC 6455 §5.7's masked "Hello" example.
	key := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	payload := []byte("Hello")
	want := []byte{0x7f, 0x9f, 0x4d, 0x51, 0x58}

	maskPayload(payload, key)
	if !bytes.Equal(payload, want) {
		t.Errorf("maskPayload(%q, %v) = % x, want % x", "Hello", key, payload, want)
	}
}

func TestMaskPayloadEmpty(t *testing.T) {
	var payload []byte
	maskPayload(payload, [4]byte{1, 2, 3, 4})
	if len(payload) != 0 {
		t.Errorf("maskPayload on an empty slice produced %v", payload)
	}
}
