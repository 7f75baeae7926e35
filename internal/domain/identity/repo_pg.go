package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
	"github.com/connectcare/telehealth/internal/platform/db"
)

// -- Identity Repository --

type identityRepoPG struct {
	db db.Querier
}

func NewIdentityRepo(q db.Querier) IdentityRepository {
	return &identityRepoPG{db: q}
}

const identityCols = `id, full_name, email, phone, password_hash, role, created_at`

func (r *identityRepoPG) scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	var role string
	if err := row.Scan(&i.ID, &i.FullName, &i.Email, &i.Phone, &i.PasswordHash, &role, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.Role = auth.Role(role)
	return &i, nil
}

func (r *identityRepoPG) Create(ctx context.Context, i *Identity) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO identities (full_name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		i.FullName, i.Email, i.Phone, i.PasswordHash, string(i.Role),
	).Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		if _, ok := db.IsUniqueViolation(err); ok {
			return fmt.Errorf("insert identity: %w", apperr.ErrDuplicateIdentity)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (r *identityRepoPG) getBy(ctx context.Context, column string, value any) (*Identity, error) {
	i, err := r.scanIdentity(r.db.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identities WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("identity")
		}
		return nil, fmt.Errorf("get identity by %s: %w", column, err)
	}
	return i, nil
}

func (r *identityRepoPG) GetByID(ctx context.Context, id int64) (*Identity, error) {
	return r.getBy(ctx, "id", id)
}

func (r *identityRepoPG) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.getBy(ctx, "email", email)
}

func (r *identityRepoPG) GetByPhone(ctx context.Context, phone string) (*Identity, error) {
	return r.getBy(ctx, "phone", phone)
}

func (r *identityRepoPG) ListOrphanedPatients(ctx context.Context, limit int) ([]*Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.full_name, i.email, i.phone, i.password_hash, i.role, i.created_at
		FROM identities i
		LEFT JOIN patient_profiles p ON p.id = i.id
		WHERE i.role = 'patient' AND p.id IS NULL
		ORDER BY i.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphaned patients: %w", err)
	}
	defer rows.Close()

	var out []*Identity
	for rows.Next() {
		i, err := r.scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orphaned patient: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// -- Patient Profile Repository --

type profileRepoPG struct {
	db db.Querier
}

func NewPatientProfileRepo(q db.Querier) PatientProfileRepository {
	return &profileRepoPG{db: q}
}

func (r *profileRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO patient_profiles (id, full_name, date_of_birth, gender, contact_info, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.FullName, p.DateOfBirth, p.Gender, p.ContactInfo, p.Address,
	)
	if err != nil {
		if _, ok := db.IsForeignKeyViolation(err); ok {
			return fmt.Errorf("insert patient profile %d: %w", p.ID, apperr.NotFound("identity"))
		}
		return fmt.Errorf("insert patient profile %d: %w", p.ID, err)
	}
	return nil
}

func (r *profileRepoPG) GetByID(ctx context.Context, id int64) (*PatientProfile, error) {
	var p PatientProfile
	err := r.db.QueryRow(ctx, `
		SELECT id, full_name, date_of_birth, gender, contact_info, address, created_at
		FROM patient_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.ContactInfo, &p.Address, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("patient profile")
		}
		return nil, fmt.Errorf("get patient profile: %w", err)
	}
	return &p, nil
}
