package utils

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "ORGANIZER", 15)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if until := time.Until(tok.Exp); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("expiry %v not ~15m out", tok.Exp)
	}

	uid, role, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 42 || role != "ORGANIZER" {
		t.Fatalf("claims = (%d, %q), want (42, ORGANIZER)", uid, role)
	}
}

func TestParseAccessTokenRejectsBadInput(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 7, "PARTICIPANT", 15)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, _, err := ParseAccessToken("other-secret", tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: got %v, want ErrInvalidToken", err)
	}
	if _, _, err := ParseAccessToken("s3cret", "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v, want ErrInvalidToken", err)
	}
}

func TestRefreshHashIsStable(t *testing.T) {
	ref, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if len(ref.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96", len(ref.Raw))
	}
	if HashRefreshRaw(ref.Raw) != HashRefreshRaw(ref.Raw) {
		t.Fatal("hash of same raw differs")
	}
	other, _ := NewRefreshToken(30)
	if HashRefreshRaw(ref.Raw) == HashRefreshRaw(other.Raw) {
		t.Fatal("distinct tokens share a hash")
	}
}
