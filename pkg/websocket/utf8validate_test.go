package websocket

import "testing"

func TestValidateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bool
	}{
		{"empty", []byte{}, true},
		{"ascii", []byte("Hello, World!"), true},
		{"multibyte", []byte("héllo wörld 日本語"), true},
		{"lone 0xFF", []byte{0x48, 0x65, 0xff, 0x6c, 0x6f}, false},
		{"truncated multibyte", []byte{0xe2, 0x82}, false},
		{"overlong encoding of '/'", []byte{0xc0, 0xaf}, false},
		{"encoded surrogate", []byte{0xed, 0xa0, 0x80}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateUTF8(tt.in); got != tt.want {
				t.Errorf("validateUTF8(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
