package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/metrics"
	"github.com/connectcare/telehealth/internal/platform/notification"
	"github.com/connectcare/telehealth/internal/platform/worker"
)

// Notifier is satisfied by *notification.Dispatcher.
type Notifier interface {
	NotifyBooking(ctx context.Context, r notification.Recipient, doctorName string, date time.Time) notification.Outcome
}

// Submitter runs a task in the background. It is satisfied by *worker.Runner.
type Submitter interface {
	Go(ctx context.Context, name string, task worker.Task)
}

type Service struct {
	appointments AppointmentRepository
	doctors      DoctorDirectory
	patients     PatientDirectory
	notifier     Notifier
	background   Submitter
	metrics      *metrics.Metrics
}

func NewService(appts AppointmentRepository, doctors DoctorDirectory, patients PatientDirectory, notifier Notifier, background Submitter, m *metrics.Metrics) *Service {
	return &Service{
		appointments: appts,
		doctors:      doctors,
		patients:     patients,
		notifier:     notifier,
		background:   background,
		metrics:      m,
	}
}

// CreateAppointment stores a pending consultation and returns once the row
// is committed. The booking confirmation is sent in the background and its
// outcome never affects the result.
func (s *Service) CreateAppointment(ctx context.Context, b Booking) (*Appointment, error) {
	switch {
	case b.PatientID <= 0:
		return nil, apperr.Invalid("patient_id", "patient_id is required")
	case b.DoctorID <= 0:
		return nil, apperr.Invalid("doctor_id", "doctor_id is required")
	case b.Date.IsZero():
		return nil, apperr.Invalid("consultation_date", "consultation_date is required")
	}

	a := &Appointment{
		PatientID: b.PatientID,
		DoctorID:  b.DoctorID,
		Date:      b.Date,
		Status:    StatusPending,
	}
	if notes := strings.TrimSpace(b.Notes); notes != "" {
		a.Notes = &notes
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		s.metrics.Booking("failed")
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.metrics.Booking("created")

	booked := *a
	s.background.Go(ctx, "booking-notification", func(ctx context.Context) error {
		return s.notifyBooking(ctx, &booked)
	})
	return a, nil
}

func (s *Service) notifyBooking(ctx context.Context, a *Appointment) error {
	patient, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		return fmt.Errorf("load patient %d: %w", a.PatientID, err)
	}
	doctor, err := s.doctors.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		return fmt.Errorf("load doctor %d: %w", a.DoctorID, err)
	}

	r := notification.Recipient{Name: patient.FullName}
	if patient.Email != nil {
		r.Email = *patient.Email
	}
	if patient.Phone != nil {
		r.Phone = *patient.Phone
	}
	s.notifier.NotifyBooking(ctx, r, doctor.FullName, a.Date)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	if id <= 0 {
		return nil, apperr.Invalid("id", "id must be a positive integer")
	}
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	if patientID <= 0 {
		return nil, 0, apperr.Invalid("patientId", "patientId must be a positive integer")
	}
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	if doctorID <= 0 {
		return nil, 0, apperr.Invalid("doctorId", "doctorId must be a positive integer")
	}
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// ListAll pages through every consultation.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListAll(ctx, limit, offset)
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Invalid("id", "id must be a positive integer")
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// UpdateAppointment applies a doctor's changes to a consultation.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, u *AppointmentUpdate) (*Appointment, error) {
	if id <= 0 {
		return nil, apperr.Invalid("id", "id must be a positive integer")
	}
	if u.empty() {
		return nil, apperr.Invalid("", "no fields to update")
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperr.Invalid("status", "status must be one of pending, completed, cancelled")
	}
	a, err := s.appointments.Update(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return a, nil
}
