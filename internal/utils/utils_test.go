package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	in := Subject{UserID: 42, Role: "shopper", UserName: "asha", Email: "asha@example.com", Phone: "9000000001"}
	tok, err := NewAccessToken("s3cret", in, 15)
	if err != nil {
		t.Fatal(err)
	}
	if until := time.Until(tok.Exp); until < 14*time.Minute || until > 15*time.Minute {
		t.Fatalf("exp in %s", until)
	}
	got, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("s3cret", Subject{UserID: 1, Role: "admin"}, 5)
	expired, _ := NewAccessToken("s3cret", Subject{UserID: 1, Role: "admin"}, -5)
	noRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	numericSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"no role":      {"s3cret", noRole},
		"numeric sub":  {"s3cret", numericSub},
		"alg none":     {"s3cret", unsigned},
		"garbage":      {"s3cret", "not.a.jwt"},
	}
	for name, c := range cases {
		if _, err := ParseAccessToken(c.secret, c.raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRefreshToken(7)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Fatalf("raw tokens %q %q", a.Raw, b.Raw)
	}
	if h := HashRefreshRaw(a.Raw); len(h) != 64 || h != HashRefreshRaw(a.Raw) || h == HashRefreshRaw(b.Raw) {
		t.Fatalf("hash %q", h)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "hunter22") || VerifyPassword(hash, "hunter23") {
		t.Fatal("bcrypt verify mismatch")
	}
}

func TestCheckPassword(t *testing.T) {
	for pw, ok := range map[string]bool{"12345": false, "123456": true, "ççççç": false, "çççççç": true} {
		if err := CheckPassword(pw); (err == nil) != ok {
			t.Errorf("CheckPassword(%q) = %v", pw, err)
		}
	}
}
