package identity

import "context"

// IdentityRepository is the credential store.
type IdentityRepository interface {
	// Create inserts i and fills ID and CreatedAt. A unique violation on
	// email or phone is reported as apperr.ErrDuplicateIdentity.
	Create(ctx context.Context, i *Identity) error
	GetByID(ctx context.Context, id int64) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByPhone(ctx context.Context, phone string) (*Identity, error)
	// ListOrphanedPatients returns patient identities without a profile.
	ListOrphanedPatients(ctx context.Context, limit int) ([]*Identity, error)
}

type PatientProfileRepository interface {
	// Create inserts p; an existing profile with the same id is left as is.
	Create(ctx context.Context, p *PatientProfile) error
	GetByID(ctx context.Context, id int64) (*PatientProfile, error)
}
