package identity

import (
	"time"

	"github.com/connectcare/telehealth/internal/platform/auth"
)

// NotSpecified fills demographic fields the registration form does not collect.
const NotSpecified = "Not specified"

// Identity is an authenticable account. At least one of Email and Phone is
// set, and each is unique among identities that carry it.
type Identity struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContactInfo returns the identity's primary contact, email first.
func (i *Identity) ContactInfo() string {
	if i.Email != nil && *i.Email != "" {
		return *i.Email
	}
	if i.Phone != nil {
		return *i.Phone
	}
	return ""
}

// PatientProfile is the clinical-record projection of a patient identity and
// shares its id.
type PatientProfile struct {
	ID          int64      `json:"id"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender"`
	ContactInfo string     `json:"contact_info"`
	Address     string     `json:"address"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DefaultProfile builds the profile created alongside a patient identity.
func DefaultProfile(i *Identity) *PatientProfile {
	return &PatientProfile{
		ID:          i.ID,
		FullName:    i.FullName,
		Gender:      NotSpecified,
		ContactInfo: i.ContactInfo(),
		Address:     NotSpecified,
	}
}

// EmailRegistration is the input of RegisterByEmail.
type EmailRegistration struct {
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

// PhoneRegistration is the input of RegisterByPhone.
type PhoneRegistration struct {
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
