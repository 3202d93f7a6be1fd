package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHash_MaxPasswordBytes(t *testing.T) {
	ps := NewPasswordServiceWithCost(4)

	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"at limit", MaxPasswordBytes, false},
		{"one over", MaxPasswordBytes + 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			password := strings.Repeat("p", tc.length)
			hash, err := ps.Hash(password)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Hash(%d bytes) should fail", tc.length)
				}
				return
			}
			if err != nil {
				t.Fatalf("Hash(%d bytes) error = %v", tc.length, err)
			}
			if err := ps.Verify(hash, password); err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

// Multi-byte characters count by bytes, not runes.
func TestHash_LimitCountsBytes(t *testing.T) {
	ps := NewPasswordServiceWithCost(4)
	password := strings.Repeat("é", MaxPasswordBytes/2+1) // 74 bytes, 37 runes

	if _, err := ps.Hash(password); err == nil {
		t.Fatal("Hash() should reject a password over the byte limit")
	}
}

func TestVerify_Mismatch(t *testing.T) {
	ps := NewPasswordServiceWithCost(4)
	hash, err := ps.Hash(strings.Repeat("p", MaxPasswordBytes))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
	}{
		{"wrong", "not-the-password"},
		{"empty", ""},
		// bcrypt ignores bytes past the limit; a longer input sharing the
		// prefix must not match.
		{"stored password plus suffix", strings.Repeat("p", MaxPasswordBytes+1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ps.Verify(hash, tc.password)
			if !errors.Is(err, ErrPasswordMismatch) {
				t.Errorf("Verify() error = %v, want ErrPasswordMismatch", err)
			}
		})
	}
}

// A corrupt stored hash is a server fault, not a wrong password.
func TestVerify_CorruptHashIsNotMismatch(t *testing.T) {
	ps := NewPasswordServiceWithCost(4)

	err := ps.Verify("not-a-bcrypt-hash", "password1")
	if err == nil {
		t.Fatal("Verify() should fail on a corrupt hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Error("a corrupt hash must not be reported as a password mismatch")
	}
}

func TestNewPasswordService_DefaultCost(t *testing.T) {
	if got := NewPasswordService().cost; got != defaultCost {
		t.Errorf("cost = %d, want %d", got, defaultCost)
	}
}
