package pkg

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeUID(t *testing.T) {
	for _, pk := range []uint64{1, 42, 18446744073709551615} {
		got, err := DecodeUID(EncodeUID(pk))
		if err != nil {
			t.Fatalf("DecodeUID(%d) error: %v", pk, err)
		}
		if got != pk {
			t.Fatalf("roundtrip mismatch: got %d want %d", got, pk)
		}
	}
}

func TestDecodeUID_Garbage(t *testing.T) {
	for _, s := range []string{"", "!!!", "bm90LWEtbnVtYmVy"} {
		if _, err := DecodeUID(s); !errors.Is(err, ErrActivationInvalid) {
			t.Fatalf("DecodeUID(%q): expected ErrActivationInvalid, got %v", s, err)
		}
	}
}

func TestActivationToken_Valid(t *testing.T) {
	secret := []byte("k")
	token := MakeActivationToken(5, "hash", false, secret)
	if err := CheckActivationToken(token, 5, "hash", false, secret); err != nil {
		t.Fatalf("CheckActivationToken error: %v", err)
	}
}

func TestActivationToken_StateChangeInvalidates(t *testing.T) {
	secret := []byte("k")
	token := MakeActivationToken(5, "hash", false, secret)

	// 激活之后 isActive 翻转，旧链接失效
	if err := CheckActivationToken(token, 5, "hash", true, secret); !errors.Is(err, ErrActivationInvalid) {
		t.Fatalf("expected ErrActivationInvalid after activation, got %v", err)
	}
	// 改密码同理
	if err := CheckActivationToken(token, 5, "other-hash", false, secret); !errors.Is(err, ErrActivationInvalid) {
		t.Fatalf("expected ErrActivationInvalid after password change, got %v", err)
	}
}

func TestActivationToken_WrongUser(t *testing.T) {
	secret := []byte("k")
	token := MakeActivationToken(5, "hash", false, secret)
	if err := CheckActivationToken(token, 6, "hash", false, secret); !errors.Is(err, ErrActivationInvalid) {
		t.Fatalf("expected ErrActivationInvalid for wrong user, got %v", err)
	}
}

func TestActivationToken_Expired(t *testing.T) {
	secret := []byte("k")
	days := time.Now().Unix()/86400 - ActivationWindowDays - 1
	token := makeTokenForDay(5, "hash", false, secret, days)
	if err := CheckActivationToken(token, 5, "hash", false, secret); !errors.Is(err, ErrActivationExpired) {
		t.Fatalf("expected ErrActivationExpired, got %v", err)
	}
}

func TestActivationToken_Tampered(t *testing.T) {
	secret := []byte("k")
	token := MakeActivationToken(5, "hash", false, secret)
	tampered := token[:len(token)-1] + "x"
	if tampered == token {
		tampered = token[:len(token)-1] + "y"
	}
	if err := CheckActivationToken(tampered, 5, "hash", false, secret); !errors.Is(err, ErrActivationInvalid) {
		t.Fatalf("expected ErrActivationInvalid for tampered token, got %v", err)
	}
}
