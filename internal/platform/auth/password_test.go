package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashCompare(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}

	hash, err := h.Hash("Passw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "Passw0rd" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !h.Compare(hash, "Passw0rd") {
		t.Error("expected matching password to compare true")
	}
	if h.Compare(hash, "passw0rd") {
		t.Error("expected wrong password to compare false")
	}

	again, _ := h.Hash("Passw0rd")
	if again == hash {
		t.Error("expected distinct salts for identical passwords")
	}
}

func TestBcryptHasher_Errors(t *testing.T) {
	if _, err := NewBcryptHasher(2); err == nil {
		t.Error("expected error for cost below minimum")
	}
	h, _ := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(""); err == nil {
		t.Error("expected error for empty password")
	}
	if h.CompareDummy("anything") {
		t.Error("dummy comparison must fail")
	}
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	h, _ := NewBcryptHasher(bcrypt.MinCost)

	long := "Passw0rd" + strings.Repeat("x", 92)
	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash of %d-byte password: %v", len(long), err)
	}
	if !h.Compare(hash, long) {
		t.Error("expected long password to compare true")
	}

	// Differs only after byte 72, where raw bcrypt would stop reading.
	tail := long[:len(long)-1] + "y"
	if h.Compare(hash, tail) {
		t.Error("expected passwords differing past 72 bytes to compare false")
	}
}
