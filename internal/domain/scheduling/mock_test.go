package scheduling

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/connectcare/telehealth/internal/domain/identity"
	"github.com/connectcare/telehealth/internal/platform/apperr"
)

// -- Mock Appointment Repository --

type mockAppointmentRepo struct {
	mu           sync.Mutex
	nextID       int64
	appointments map[int64]*Appointment
	knownPatient map[int64]bool
	knownDoctor  map[int64]bool
	createErr    error
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appointments: make(map[int64]*Appointment),
		knownPatient: map[int64]bool{1: true, 2: true, 3: true},
		knownDoctor:  map[int64]bool{1: true},
	}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if !m.knownPatient[a.PatientID] || !m.knownDoctor[a.DoctorID] {
		return apperr.NotFound("referenced patient or doctor")
	}
	m.nextID++
	a.ID = m.nextID
	a.Status = StatusPending
	a.CreatedAt = time.Now()
	stored := *a
	m.appointments[a.ID] = &stored
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.NotFound("consultation")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) list(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Appointment
	for _, a := range m.appointments {
		if match(a) {
			cp := *a
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	return m.list(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	return m.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
}

func (m *mockAppointmentRepo) ListAll(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	return m.list(func(*Appointment) bool { return true }, limit, offset)
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return apperr.NotFound("consultation")
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, id int64, u *AppointmentUpdate) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.NotFound("consultation")
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.Diagnosis != nil {
		a.Diagnosis = u.Diagnosis
	}
	if u.Prescription != nil {
		a.Prescription = u.Prescription
	}
	if u.Notes != nil {
		a.Notes = u.Notes
	}
	cp := *a
	return &cp, nil
}

// -- Directories --

type mockDoctors struct {
	mu      sync.Mutex
	doctors map[int64]*DoctorProfile
	lookups int
}

func newMockDoctors() *mockDoctors {
	return &mockDoctors{doctors: map[int64]*DoctorProfile{
		1: {ID: 1, FullName: "Dr. Default", Specialty: "General Practice", LicenseNumber: "DEFAULT-0001"},
	}}
}

func (m *mockDoctors) GetDoctor(_ context.Context, id int64) (*DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if d, ok := m.doctors[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, apperr.NotFound("doctor")
}

type mockPatients map[int64]*identity.Identity

func (m mockPatients) GetByID(_ context.Context, id int64) (*identity.Identity, error) {
	if i, ok := m[id]; ok {
		return i, nil
	}
	return nil, apperr.NotFound("identity")
}

func strp(s string) *string { return &s }

// testPatients holds one patient per channel case: 1 has only a phone, 2
// only an email and 3 neither.
func testPatients() mockPatients {
	return mockPatients{
		1: {ID: 1, FullName: "Jean Phone", Phone: strp("+250788123456")},
		2: {ID: 2, FullName: "Ada Email", Email: strp("ada@example.com")},
		3: {ID: 3, FullName: "No Contact"},
	}
}

var errStore = errors.New("connection refused")
