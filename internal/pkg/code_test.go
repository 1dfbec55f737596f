package pkg

import (
	"strings"
	"testing"
)

func TestRandDigits(t *testing.T) {
	code, err := RandDigits(6)
	if err != nil {
		t.Fatalf("RandDigits error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("length mismatch: got %d want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit char %q in %q", c, code)
		}
	}
}

func TestRandPassword(t *testing.T) {
	pw, err := RandPassword(24)
	if err != nil {
		t.Fatalf("RandPassword error: %v", err)
	}
	if len(pw) != 24 {
		t.Fatalf("length mismatch: got %d want 24", len(pw))
	}
	for _, c := range pw {
		if !strings.ContainsRune(passwordAlphabet, c) {
			t.Fatalf("unexpected char %q in %q", c, pw)
		}
	}
}
