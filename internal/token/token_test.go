package token

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key"

// TestIssueVerifyRoundTrip verifies that a freshly issued token verifies to
// the same user ID.
func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager(testSecret)

	signed, err := m.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("Verify returned user %d, want 42", userID)
	}
}

// TestVerifyRejectsExpiredToken verifies that a token past its expiry
// verifies as invalid.
func TestVerifyRejectsExpiredToken(t *testing.T) {
	expired := &Manager{secret: []byte(testSecret), ttl: -time.Minute}

	signed, err := expired.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := NewManager(testSecret).Verify(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for expired token, got %v", err)
	}
}

// TestVerifyRejectsWrongSecret verifies that a token signed by another
// secret does not verify.
func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("other-secret").Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := NewManager(testSecret).Verify(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for wrong secret, got %v", err)
	}
}

// TestVerifyRejectsGarbage verifies that malformed input verifies as invalid
// rather than panicking or returning a different error class.
func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager(testSecret)

	for _, input := range []string{"", "not-a-token", "aaaa.bbbb.cccc"} {
		if _, err := m.Verify(input); !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify(%q): expected ErrInvalid, got %v", input, err)
		}
	}
}

// TestVerifyRejectsNonNumericSubject verifies that a structurally valid token
// without a usable subject is rejected.
func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	m := &Manager{secret: []byte(testSecret), ttl: time.Hour}

	// Issue only mints numeric subjects, so build the edge case from a zero
	// user ID, which falls below the smallest valid identifier.
	signed, err := m.Issue(0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for zero subject, got %v", err)
	}
}
