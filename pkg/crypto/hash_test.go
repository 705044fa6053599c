package crypto

import (
	"encoding/hex"
	"testing"
)

func TestSha256(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty input", []byte{}, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"hello", []byte("hello"), "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sha256(tt.input)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("Sha256(%q) = %x, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSha512_256(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty input", []byte{}, "c672b8d1ef56ed28ab87c3622c5114069bdd3ad7b8f9737498d0c01ecef0967a"},
		{"abc", []byte("abc"), "53048e2681941ef99b2e29b76b4c7dabe4c2d0c634fc6d46e0e2f13107e7af23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sha512_256(tt.input)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("Sha512_256(%q) = %x, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHash160(t *testing.T) {
	got := Hash160([]byte{})
	want := "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Hash160(empty) = %x, want %s", got, want)
	}
}

func TestDoubleSha256(t *testing.T) {
	once := Sha256([]byte("stacks"))
	twice := Sha256(once[:])
	if DoubleSha256([]byte("stacks")) != twice {
		t.Error("DoubleSha256 should equal Sha256(Sha256(x))")
	}
}
