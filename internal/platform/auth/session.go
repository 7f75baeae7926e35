package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of every issued session token.
const SessionTTL = 24 * time.Hour

// ErrInvalidToken is returned for any parse, signature, claim or expiry failure.
var ErrInvalidToken = errors.New("invalid token")

// Role is the authorization role carried by an identity and its sessions.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Claims is the JWT payload of a session token. JWT numeric dates have
// whole-second resolution, so exp is rounded up and the exact expiry travels
// in ExpiresAtNano.
type Claims struct {
	jwt.RegisteredClaims
	Role          Role  `json:"role"`
	ExpiresAtNano int64 `json:"exp_ns,omitempty"`
}

// Session is the validated content of a session token.
type Session struct {
	SubjectID int64
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionManager mints and verifies HS256 session tokens.
type SessionManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// WithIssuer sets the iss claim written and required by the manager.
func WithIssuer(issuer string) Option {
	return func(m *SessionManager) { m.issuer = issuer }
}

func NewSessionManager(secret []byte, opts ...Option) *SessionManager {
	m := &SessionManager{
		secret: secret,
		issuer: "telehealth",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for subjectID valid for exactly SessionTTL from now.
func (m *SessionManager) Issue(subjectID int64, role Role) (string, time.Time, error) {
	if subjectID <= 0 {
		return "", time.Time{}, fmt.Errorf("subject id must be positive, got %d", subjectID)
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}

	issuedAt := m.now()
	expiresAt := issuedAt.Add(SessionTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(expiresAt)),
		},
		Role:          role,
		ExpiresAtNano: expiresAt.UnixNano(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature and requires the current time to be
// strictly before expiry. Every failure collapses to ErrInvalidToken.
func (m *SessionManager) Validate(token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	expiresAt := claims.ExpiresAt.Time
	if claims.ExpiresAtNano > 0 {
		exact := time.Unix(0, claims.ExpiresAtNano)
		if exact.After(expiresAt) {
			return nil, ErrInvalidToken
		}
		expiresAt = exact
	}
	if !m.now().Before(expiresAt) {
		return nil, ErrInvalidToken
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	s := &Session{
		SubjectID: subjectID,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, nil
}

func ceilSecond(t time.Time) time.Time {
	c := t.Truncate(time.Second)
	if c.Before(t) {
		c = c.Add(time.Second)
	}
	return c
}
