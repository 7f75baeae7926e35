package identity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/connectcare/telehealth/internal/platform/apperr"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Passw0rd", true},
		{"password", false},
		{"Ab1", false},
		{"PASSW0RD", false},
		{"Password", false},
		{"passw0rd", false},
		{"Ab1dèfgh", true},
		{strings.Repeat("Ab1", 25), true},
		{"Passw0rd" + strings.Repeat("x", 92), true},
		{strings.Repeat("x", 100), false},
	}

	for _, tt := range tests {
		name := tt.password
		if len(name) > 16 {
			name = fmt.Sprintf("%s...(%d bytes)", name[:8], len(name))
		}
		t.Run(name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid && err != nil {
				t.Fatalf("expected %q to be accepted, got %v", tt.password, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("expected %q to be rejected", tt.password)
				}
				if !apperr.IsValidation(err) {
					t.Fatalf("expected validation error, got %T", err)
				}
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"+250788123456", true},
		{"250788123456", true},
		{"+12", true},
		{"0788", false},
		{"abc123", false},
		{"+0788123456", false},
		{"+1234567890123456", false},
		{"+1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if err := ValidatePhone(tt.phone); (err == nil) != tt.valid {
				t.Errorf("ValidatePhone(%q) = %v, want valid=%v", tt.phone, err, tt.valid)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ada@example.com", true},
		{"a.b+c@clinic.co.rw", true},
		{"ada@example", false},
		{"ada example@x.com", false},
		{"@example.com", false},
		{"ada@@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if err := ValidateEmail(tt.email); (err == nil) != tt.valid {
				t.Errorf("ValidateEmail(%q) = %v, want valid=%v", tt.email, err, tt.valid)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("expected ada@example.com, got %q", got)
	}
}
