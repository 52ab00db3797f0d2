package services

import (
	"regexp"
	"testing"
)

func TestGenerateShareToken(t *testing.T) {
	seen := map[string]bool{}
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

	for i := 0; i < 100; i++ {
		token, err := generateShareToken()
		if err != nil {
			t.Fatalf("failed generating token: %v", err)
		}
		if !pattern.MatchString(token) {
			t.Fatalf("token %q is not URL-safe base64 of 32 bytes", token)
		}
		if seen[token] {
			t.Fatalf("generated duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestGenerateInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{8}$`)

	for i := 0; i < 100; i++ {
		code, err := generateInviteCode()
		if err != nil {
			t.Fatalf("failed generating invite code: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("invite code %q does not match the expected format", code)
		}
	}
}
