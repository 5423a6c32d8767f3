package protocol

import (
	"bytes"
	"testing"
)

func TestEncryptKnownVectors(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
		want      []byte
	}{
		{
			name:      "empty payload",
			plaintext: []byte{},
			want:      []byte{},
		},
		{
			name:      "single byte",
			plaintext: []byte("{"),
			want:      []byte{0xd0},
		},
		{
			name:      "two bytes chain the key",
			plaintext: []byte("{}"),
			want:      []byte{0xd0, 0xad},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encrypt(tt.plaintext)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encrypt(%q) = %x, want %x", tt.plaintext, got, tt.want)
			}
		})
	}
}

func TestCipherRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"sysinfo query", SysInfoRequest()},
		{"relay command", RelayStateRequest([]string{"800600000000000000000000000000000000000000"}, true)},
		{"all byte values", func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
		{"repeated bytes", bytes.Repeat([]byte{0xab}, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decrypt(Encrypt(tt.plaintext))
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("Decrypt(Encrypt(x)) = %x, want %x", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptDeterministic(t *testing.T) {
	payload := SysInfoRequest()

	first := Encrypt(payload)
	for i := 0; i < 5; i++ {
		if got := Encrypt(payload); !bytes.Equal(got, first) {
			t.Fatalf("Encrypt call %d = %x, want %x (key must reset per call)", i+2, got, first)
		}
	}
}

func TestEncryptDoesNotMutateInput(t *testing.T) {
	payload := []byte(`{"system":{"get_sysinfo":{}}}`)
	saved := append([]byte(nil), payload...)

	Encrypt(payload)
	if !bytes.Equal(payload, saved) {
		t.Error("Encrypt mutated its input")
	}

	cipher := Encrypt(payload)
	savedCipher := append([]byte(nil), cipher...)
	Decrypt(cipher)
	if !bytes.Equal(cipher, savedCipher) {
		t.Error("Decrypt mutated its input")
	}
}
