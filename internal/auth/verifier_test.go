package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("jwt-secret")

	token, err := v.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != "user-1" {
		t.Errorf("got %q, want user-1", id)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("jwt-secret")

	expired, _ := v.Issue("user-1", -time.Minute)
	foreign, _ := NewVerifier("other").Issue("user-1", time.Hour)
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("jwt-secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"user_id": "u"}).SignedString([]byte("jwt-secret"))

	tests := map[string]string{
		"garbage":         "not-a-token",
		"expired":         expired,
		"wrong secret":    foreign,
		"missing user id": noUser,
		"other algorithm": hs512,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("got %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestVerifier_SubClaim(t *testing.T) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-9"}).SignedString([]byte("s"))
	id, err := NewVerifier("s").Verify(token)
	if err != nil || id != "user-9" {
		t.Fatalf("got %q, %v", id, err)
	}
}

func TestVerifier_Disabled(t *testing.T) {
	if _, err := NewVerifier("").Verify("x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}
