package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/db"
)

// -- Appointment Repository --

type appointmentRepoPG struct {
	db db.Querier
}

func NewAppointmentRepo(q db.Querier) AppointmentRepository {
	return &appointmentRepoPG{db: q}
}

const appointmentCols = `c.id, c.patient_id, c.doctor_id, c.consultation_date, c.notes, c.diagnosis, c.prescription, c.status, c.created_at`

func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	var status string
	dest := append([]any{&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Notes, &a.Diagnosis, &a.Prescription, &status, &a.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

// Create inserts a pending consultation. The row is only written when
// PatientID names an identity with the patient role; otherwise nothing is
// inserted and NotFound is returned.
func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	var status string
	err := r.db.QueryRow(ctx, `
		INSERT INTO consultations (patient_id, doctor_id, consultation_date, notes, status)
		SELECT $1::bigint, $2::bigint, $3::date, $4::text, 'pending'
		WHERE EXISTS (SELECT 1 FROM identities WHERE id = $1::bigint AND role = 'patient')
		RETURNING id, status, created_at`,
		a.PatientID, a.DoctorID, a.Date, a.Notes,
	).Scan(&a.ID, &status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("insert consultation: %w", apperr.NotFound(fmt.Sprintf("patient %d", a.PatientID)))
		}
		if _, ok := db.IsForeignKeyViolation(err); ok {
			return fmt.Errorf("insert consultation: %w", apperr.NotFound("referenced patient or doctor"))
		}
		return fmt.Errorf("insert consultation: %w", err)
	}
	a.Status = Status(status)
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM consultations c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("consultation %d", id))
		}
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM consultations WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentCols+`, d.full_name
		FROM consultations c
		JOIN doctors d ON d.id = c.doctor_id
		WHERE c.patient_id = $1
		ORDER BY c.consultation_date DESC, c.id DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations by patient: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		var name string
		a, err := scanAppointment(rows, &name)
		if err != nil {
			return nil, 0, fmt.Errorf("scan consultation: %w", err)
		}
		a.DoctorName = name
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID int64, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM consultations WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentCols+`, i.full_name
		FROM consultations c
		JOIN identities i ON i.id = c.patient_id
		WHERE c.doctor_id = $1
		ORDER BY c.consultation_date DESC, c.id DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations by doctor: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		var name string
		a, err := scanAppointment(rows, &name)
		if err != nil {
			return nil, 0, fmt.Errorf("scan consultation: %w", err)
		}
		a.PatientName = name
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM consultations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentCols+`, d.full_name, i.full_name
		FROM consultations c
		JOIN doctors d ON d.id = c.doctor_id
		JOIN identities i ON i.id = c.patient_id
		ORDER BY c.consultation_date DESC, c.id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		var doctorName, patientName string
		a, err := scanAppointment(rows, &doctorName, &patientName)
		if err != nil {
			return nil, 0, fmt.Errorf("scan consultation: %w", err)
		}
		a.DoctorName = doctorName
		a.PatientName = patientName
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(fmt.Sprintf("consultation %d", id))
	}
	return nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, id int64, u *AppointmentUpdate) (*Appointment, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		UPDATE consultations c SET
			status       = COALESCE($2, c.status),
			diagnosis    = COALESCE($3, c.diagnosis),
			prescription = COALESCE($4, c.prescription),
			notes        = COALESCE($5, c.notes)
		WHERE c.id = $1
		RETURNING `+appointmentCols,
		id, status, u.Diagnosis, u.Prescription, u.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("consultation %d", id))
		}
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	return a, nil
}

// -- Doctor Directory --

type doctorDirectoryPG struct {
	db db.Querier
}

func NewDoctorDirectory(q db.Querier) DoctorDirectory {
	return &doctorDirectoryPG{db: q}
}

func (r *doctorDirectoryPG) GetDoctor(ctx context.Context, id int64) (*DoctorProfile, error) {
	var d DoctorProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, full_name, specialty, license_number, contact_info
		FROM doctors WHERE id = $1`, id,
	).Scan(&d.ID, &d.FullName, &d.Specialty, &d.LicenseNumber, &d.ContactInfo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("doctor %d", id))
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return &d, nil
}
