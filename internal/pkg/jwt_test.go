package pkg

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGeneratePairAndParse(t *testing.T) {
	pair, err := GeneratePair(42, "alice")
	if err != nil {
		t.Fatalf("GeneratePair error: %v", err)
	}

	claims, err := ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
	if claims.UserPK != 42 {
		t.Fatalf("UserPK mismatch: got %d want 42", claims.UserPK)
	}
	if claims.Handle != "alice" {
		t.Fatalf("Handle mismatch: got %q want %q", claims.Handle, "alice")
	}
}

func TestParseAccess_Malformed(t *testing.T) {
	_, err := ParseAccess("not.a.jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestParseAccess_Expired(t *testing.T) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserPK: 1,
		Handle: "bob",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * AccessTTL)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-AccessTTL)),
			Subject:   "access",
		},
	})
	signed, err := token.SignedString(accessSecret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	_, err = ParseAccess(signed)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseAccess_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserPK: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTTL)),
		},
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	_, err = ParseAccess(signed)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	pair, err := GeneratePair(7, "carol")
	if err != nil {
		t.Fatalf("GeneratePair error: %v", err)
	}

	next, err := Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	claims, err := ParseAccess(next.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
	if claims.UserPK != 7 || claims.Handle != "carol" {
		t.Fatalf("claims not carried over: %+v", claims)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	// access 和 refresh 用不同密钥签名，不能混用
	pair, err := GeneratePair(7, "carol")
	if err != nil {
		t.Fatalf("GeneratePair error: %v", err)
	}

	if _, err = Refresh(pair.AccessToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}
