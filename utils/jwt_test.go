package utils

import (
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseTokenRejectsMalformed(t *testing.T) {
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("malformed token accepted")
	}
}

func TestParseTokenRejectsWrongSignature(t *testing.T) {
	claims := Claims{
		UserID:   7,
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(signed); err == nil {
		t.Fatal("mis-signed token accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := Claims{
		UserID:   7,
		Username: "late",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(signed); err == nil {
		t.Fatal("expired token accepted")
	}
}
