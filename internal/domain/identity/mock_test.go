package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
)

// -- Mock Identity Repository --

type mockIdentityRepo struct {
	mu         sync.Mutex
	nextID     int64
	identities map[int64]*Identity
	// staleLookups makes GetByEmail/GetByPhone miss, as a concurrent
	// registration would, so only the insert detects the duplicate.
	staleLookups bool
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{identities: make(map[int64]*Identity)}
}

func (m *mockIdentityRepo) Create(_ context.Context, i *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.identities {
		if sameValue(existing.Email, i.Email) || sameValue(existing.Phone, i.Phone) {
			return apperr.ErrDuplicateIdentity
		}
	}
	m.nextID++
	i.ID = m.nextID
	i.CreatedAt = time.Now()
	stored := *i
	m.identities[i.ID] = &stored
	return nil
}

func sameValue(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (m *mockIdentityRepo) GetByID(_ context.Context, id int64) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.identities[id]; ok {
		return i, nil
	}
	return nil, apperr.NotFound("identity")
}

func (m *mockIdentityRepo) find(match func(*Identity) bool) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.staleLookups {
		for _, i := range m.identities {
			if match(i) {
				return i, nil
			}
		}
	}
	return nil, apperr.NotFound("identity")
}

func (m *mockIdentityRepo) GetByEmail(_ context.Context, email string) (*Identity, error) {
	return m.find(func(i *Identity) bool { return i.Email != nil && *i.Email == email })
}

func (m *mockIdentityRepo) GetByPhone(_ context.Context, phone string) (*Identity, error) {
	return m.find(func(i *Identity) bool { return i.Phone != nil && *i.Phone == phone })
}

func (m *mockIdentityRepo) ListOrphanedPatients(_ context.Context, limit int) ([]*Identity, error) {
	return nil, errors.New("use mockProfileRepo.orphans")
}

// -- Mock Patient Profile Repository --

type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[int64]*PatientProfile
	failErr  error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[int64]*PatientProfile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.profiles[p.ID]; !ok {
		m.profiles[p.ID] = p
	}
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id int64) (*PatientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("patient profile")
}

// orphanRepo answers ListOrphanedPatients by anti-joining against profiles.
type orphanRepo struct {
	*mockIdentityRepo
	profiles *mockProfileRepo
}

func (o *orphanRepo) ListOrphanedPatients(_ context.Context, limit int) ([]*Identity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profiles.mu.Lock()
	defer o.profiles.mu.Unlock()

	var out []*Identity
	for id := int64(1); id <= o.nextID && len(out) < limit; id++ {
		i, ok := o.identities[id]
		if !ok || i.Role != auth.RolePatient {
			continue
		}
		if _, has := o.profiles.profiles[id]; !has {
			out = append(out, i)
		}
	}
	return out, nil
}

// -- Fake hasher --

type fakeHasher struct {
	dummyCalls int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Compare(hash, password string) bool {
	return hash == "hashed:"+password
}

func (h *fakeHasher) CompareDummy(string) bool {
	h.dummyCalls++
	return false
}
