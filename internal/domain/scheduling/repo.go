package scheduling

import (
	"context"

	"github.com/connectcare/telehealth/internal/domain/identity"
)

type AppointmentRepository interface {
	// Create inserts a and fills ID, Status and CreatedAt. An unknown
	// patient or doctor is reported as apperr.ErrNotFound.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error)
	// ListAll pages through every consultation with both names filled.
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	Update(ctx context.Context, id int64, u *AppointmentUpdate) (*Appointment, error)
	Delete(ctx context.Context, id int64) error
}

// DoctorDirectory resolves doctor profiles.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id int64) (*DoctorProfile, error)
}

// PatientDirectory resolves the identity a booking notifies. It is
// satisfied by identity.IdentityRepository.
type PatientDirectory interface {
	GetByID(ctx context.Context, id int64) (*identity.Identity, error)
}
