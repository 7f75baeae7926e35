package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-for-unit-tests-only-0123")

func newTestManager(now *time.Time) *SessionManager {
	return NewSessionManager(testSecret, WithClock(func() time.Time { return *now }))
}

func TestSessionManager_IssueValidate(t *testing.T) {
	now := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	token, expiresAt, err := m.Issue(42, RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expected expiry %s, got %s", now.Add(24*time.Hour), expiresAt)
	}

	s, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.SubjectID != 42 {
		t.Errorf("expected subject 42, got %d", s.SubjectID)
	}
	if s.Role != RolePatient {
		t.Errorf("expected role patient, got %s", s.Role)
	}
	if s.TokenID == "" {
		t.Error("expected token id")
	}
}

func TestSessionManager_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	now := issued
	m := newTestManager(&now)

	token, _, err := m.Issue(42, RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"at issuance", issued, true},
		{"one hour later", issued.Add(time.Hour), true},
		{"just before expiry", issued.Add(24*time.Hour - time.Nanosecond), true},
		{"exactly at expiry", issued.Add(24 * time.Hour), false},
		{"after expiry", issued.Add(25 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			_, err := m.Validate(token)
			if tt.valid && err != nil {
				t.Errorf("expected valid at %s, got %v", tt.at, err)
			}
			if !tt.valid && err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken at %s, got %v", tt.at, err)
			}
		})
	}
}

func TestSessionManager_SubSecondIssuance(t *testing.T) {
	issued := time.Date(2024, 7, 20, 10, 0, 0, 900_000_000, time.UTC)
	now := issued
	m := newTestManager(&now)

	token, expiresAt, err := m.Issue(42, RolePatient)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Errorf("expected expiry %s, got %s", issued.Add(24*time.Hour), expiresAt)
	}

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"half a second before expiry", issued.Add(24*time.Hour - 500*time.Millisecond), true},
		{"just before expiry", issued.Add(24*time.Hour - time.Nanosecond), true},
		{"exactly at expiry", issued.Add(24 * time.Hour), false},
		{"before the rounded exp second", issued.Add(24*time.Hour + 50*time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			s, err := m.Validate(token)
			if tt.valid {
				if err != nil {
					t.Fatalf("expected valid at %s, got %v", tt.at, err)
				}
				if !s.ExpiresAt.Equal(expiresAt) {
					t.Errorf("session expiry %s, want %s", s.ExpiresAt, expiresAt)
				}
				return
			}
			if err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken at %s, got %v", tt.at, err)
			}
		})
	}
}

func TestSessionManager_RejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	m := newTestManager(&now)
	token, _, err := m.Issue(7, RoleDoctor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewSessionManager([]byte("another-secret-key-for-unit-tests-9999"), WithClock(func() time.Time { return now }))
	foreign, _, _ := other.Issue(7, RoleDoctor)

	otherIssuer := NewSessionManager(testSecret, WithIssuer("someone-else"), WithClock(func() time.Time { return now }))
	wrongIss, _, _ := otherIssuer.Issue(7, RoleDoctor)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "telehealth",
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "telehealth",
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "superuser",
	}).SignedString(testSecret)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "telehealth", Subject: "7"},
		Role:             RoleDoctor,
	}).SignedString(testSecret)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": foreign,
		"wrong issuer": wrongIss,
		"tampered":     tampered,
		"alg none":     unsigned,
		"unknown role": badRole,
		"no expiry":    noExpiry,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(tok); err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSessionManager_IssueRejectsBadInput(t *testing.T) {
	m := NewSessionManager(testSecret)
	if _, _, err := m.Issue(0, RolePatient); err == nil {
		t.Error("expected error for zero subject")
	}
	if _, _, err := m.Issue(1, Role("root")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RolePatient, RoleDoctor, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("expected %s valid", r)
		}
	}
	if Role("nurse").Valid() {
		t.Error("expected nurse invalid")
	}
}
