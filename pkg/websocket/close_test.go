package websocket

import (
	"encoding/binary"
	"testing"
)

func TestValidCloseCode(t *testing.T) {
	tests := []struct {
		code StatusCode
		want bool
	}{
		{1000, true},
		{1001, true},
		{1002, true},
		{1003, true},
		{1004, false}, // Reserved, unassigned.
		{1005, false}, // Never sent on the wire.
		{1006, false}, // Never sent on the wire.
		{1007, true},
		{1008, true},
		{1009, true},
		{1010, true},
		{1011, true},
		{1012, false},
		{2999, false},
		{3000, true},
		{4999, true},
		{5000, false},
	}

	for _, tt := range tests {
		if got := validCloseCode(tt.code); got != tt.want {
			t.Errorf("validCloseCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParseClosePayload(t *testing.T) {
	payload := func(status StatusCode, reason string) []byte {
		b := make([]byte, 2+len(reason))
		binary.BigEndian.PutUint16(b, uint16(status))
		copy(b[2:], reason)
		return b
	}

	tests := []struct {
		name       string
		payload    []byte
		wantStatus StatusCode
		wantReason string
		wantOK     bool
	}{
		{"empty payload", nil, StatusNormalClosure, "", true},
		{"lone byte", []byte{0x03}, StatusProtocolError, "", false},
		{"valid with reason", payload(1000, "bye"), StatusNormalClosure, "bye", true},
		{"valid no reason", payload(1001, ""), StatusGoingAway, "", true},
		{"illegal code", payload(1006, ""), StatusProtocolError, "", false},
		{"malformed utf-8 reason", []byte{0x03, 0xe8, 0xff}, StatusInvalidData, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason, ok := parseClosePayload(tt.payload)
			if status != tt.wantStatus || reason != tt.wantReason || ok != tt.wantOK {
				t.Errorf("parseClosePayload(% x) = (%v, %q, %v), want (%v, %q, %v)",
					tt.payload, status, reason, ok, tt.wantStatus, tt.wantReason, tt.wantOK)
			}
		})
	}
}

func TestCloseScenario4(t *testing.T) {
	// Scenario 4: close(client, 1000, "") emits opcode 8, fin 1, payload
	// 03 E8; the result slot becomes {1000, ""} and a second call is a no-op.
	c, server := newPipeConn(nil)
	defer server.Close()

	done := make(chan struct{})
	var got []byte
	go func() {
		defer close(done)
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		got = buf[:n]
	}()

	c.Close(StatusNormalClosure, "")
	<-done

	if len(got) < 2 || got[0] != 0x88 {
		t.Fatalf("close frame header = % x, want fin=1 opcode=8", got)
	}

	status, msg := c.Result()
	if status != StatusNormalClosure || msg != "" {
		t.Errorf("Result() = (%v, %q), want (%v, \"\")", status, msg, StatusNormalClosure)
	}

	// Idempotent: a second Close must not panic or re-send.
	c.Close(StatusGoingAway, "ignored")
	status, msg = c.Result()
	if status != StatusNormalClosure || msg != "" {
		t.Errorf("second Close() changed the result to (%v, %q)", status, msg)
	}
}
