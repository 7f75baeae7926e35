package scheduling

import (
	"time"
)

// DateLayout is the wire format of consultation dates.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a consultation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusCompleted: true,
	StatusCancelled: true,
}

func (s Status) Valid() bool { return validStatuses[s] }

// Appointment maps to the consultations table.
type Appointment struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient_id"`
	DoctorID     int64     `json:"doctor_id"`
	Date         time.Time `json:"consultation_date"`
	Notes        *string   `json:"notes,omitempty"`
	Diagnosis    *string   `json:"diagnosis,omitempty"`
	Prescription *string   `json:"prescription,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	// Filled by the list queries from the joined table.
	DoctorName  string `json:"doctor_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// Booking is the input of CreateAppointment.
type Booking struct {
	PatientID int64
	DoctorID  int64
	Date      time.Time
	Notes     string
}

// AppointmentUpdate carries the fields a doctor may change. Nil fields are
// left untouched.
type AppointmentUpdate struct {
	Status       *Status `json:"status,omitempty"`
	Diagnosis    *string `json:"diagnosis,omitempty"`
	Prescription *string `json:"prescription,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (u *AppointmentUpdate) empty() bool {
	return u.Status == nil && u.Diagnosis == nil && u.Prescription == nil && u.Notes == nil
}

// DoctorProfile maps to the doctors table. It is read here, never written.
type DoctorProfile struct {
	ID            int64  `json:"id"`
	FullName      string `json:"full_name"`
	Specialty     string `json:"specialty"`
	LicenseNumber string `json:"license_number"`
	ContactInfo   string `json:"contact_info"`
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
