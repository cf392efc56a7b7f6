package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "CUSTOMER", 15)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(tok.Exp) <= 14*time.Minute {
		t.Fatalf("exp = %s", tok.Exp)
	}
	id, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != 42 || id.Role != "CUSTOMER" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 1, "ADMIN", 5)
	expired, _ := NewAccessToken("secret", 1, "ADMIN", -5)
	numeric, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 7, "role": "OWNER", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}).SignedString([]byte("secret"))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name, secret, raw string
		ok                bool
	}{
		{"valid", "secret", good.Token, true},
		{"numeric subject", "secret", numeric, true},
		{"wrong secret", "other", good.Token, false},
		{"expired", "secret", expired.Token, false},
		{"missing exp", "secret", noExp, false},
		{"alg none", "secret", noneAlg, false},
		{"garbage", "secret", "not.a.jwt", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.raw)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
