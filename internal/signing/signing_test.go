package signing

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	now := time.Unix(1700000000, 0)
	token := s.Token(42, time.Hour, now)
	if !strings.HasPrefix(token, "42.1700003600.") {
		t.Fatalf("unexpected token layout %q", token)
	}
	uid, err := s.Verify(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if uid != 42 {
		t.Fatalf("expected user 42, got %d", uid)
	}
}

func TestSignerRejects(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	now := time.Unix(1700000000, 0)
	good := s.Token(7, time.Hour, now)
	parts := strings.Split(good, ".")

	cases := map[string]string{
		"empty":          "",
		"two parts":      "7.1700003600",
		"non numeric id": "abc." + parts[1] + "." + parts[2],
		"zero id":        "0." + parts[1] + "." + s.Sign(0, 1700003600),
		"swapped user":   "8." + parts[1] + "." + parts[2],
		"moved expiry":   "7.1800000000." + parts[2],
		"bad signature":  "7." + parts[1] + ".deadbeef",
	}
	for name, token := range cases {
		if _, err := s.Verify(token, now); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}

	other := NewSigner([]byte("othersecret"))
	if _, err := other.Verify(good, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected a foreign secret to fail, got %v", err)
	}
	if _, err := s.Verify(good, now.Add(time.Hour)); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at the expiry instant, got %v", err)
	}
}
