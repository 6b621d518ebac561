package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue(42, KindConfirm, "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	payload, err := issuer.Verify(tok, KindConfirm, 42)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if payload.UserID != 42 {
		t.Errorf("user id = %d, want 42", payload.UserID)
	}
	if payload.Kind != KindConfirm {
		t.Errorf("kind = %q, want %q", payload.Kind, KindConfirm)
	}
}

func TestVerifyExtra(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue(7, KindChangeEmail, "new@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	payload, err := issuer.Verify(tok, KindChangeEmail, 7)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if payload.Extra != "new@example.com" {
		t.Errorf("extra = %q, want new@example.com", payload.Extra)
	}
}

func TestVerifyKindMismatch(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue(42, KindConfirm, "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(tok, KindReset, 42); !errors.Is(err, ErrInvalid) {
		t.Errorf("verify with wrong kind: err = %v, want ErrInvalid", err)
	}
}

func TestVerifyAccountMismatch(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue(42, KindConfirm, "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(tok, KindConfirm, 43); !errors.Is(err, ErrInvalid) {
		t.Errorf("verify for another account: err = %v, want ErrInvalid", err)
	}

	// Zero skips the account check.
	if _, err := issuer.Verify(tok, KindConfirm, 0); err != nil {
		t.Errorf("verify without account check: %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a").Issue(42, KindConfirm, "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewIssuer("secret-b").Verify(tok, KindConfirm, 42); !errors.Is(err, ErrInvalid) {
		t.Errorf("verify with wrong secret: err = %v, want ErrInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret")

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(tok, KindConfirm, 1); !errors.Is(err, ErrInvalid) {
			t.Errorf("verify(%q): err = %v, want ErrInvalid", tok, err)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping expiry sleep in short mode")
	}
	issuer := NewIssuer("test-secret")

	tok, err := issuer.Issue(42, KindConfirm, "", time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Second)

	if _, err := issuer.Verify(tok, KindConfirm, 42); !errors.Is(err, ErrInvalid) {
		t.Errorf("verify expired token: err = %v, want ErrInvalid", err)
	}
}
