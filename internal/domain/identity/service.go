package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
	"github.com/connectcare/telehealth/internal/platform/metrics"
)

// PasswordHasher is satisfied by *auth.BcryptHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	CompareDummy(password string) bool
}

type Service struct {
	identities IdentityRepository
	profiles   PatientProfileRepository
	hasher     PasswordHasher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

func NewService(identities IdentityRepository, profiles PatientProfileRepository, hasher PasswordHasher, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		identities: identities,
		profiles:   profiles,
		hasher:     hasher,
		logger:     logger,
		metrics:    m,
	}
}

// log returns the request-scoped logger when ctx carries one.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

// RegisterByEmail creates an identity whose primary channel is email.
func (s *Service) RegisterByEmail(ctx context.Context, in EmailRegistration) (*Identity, error) {
	i, err := s.registerByEmail(ctx, in)
	s.recordInvalid("email", err)
	return i, err
}

// RegisterByPhone creates an identity whose only channel is phone.
func (s *Service) RegisterByPhone(ctx context.Context, in PhoneRegistration) (*Identity, error) {
	i, err := s.registerByPhone(ctx, in)
	s.recordInvalid("phone", err)
	return i, err
}

func (s *Service) recordInvalid(channel string, err error) {
	if apperr.IsValidation(err) {
		s.metrics.Registration(channel, "invalid")
	}
}

func (s *Service) registerByEmail(ctx context.Context, in EmailRegistration) (*Identity, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := NormalizeEmail(in.Email)
	phone := NormalizePhone(in.Phone)

	if err := requireFields(fullName, "email", email, in.Password); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if phone != "" {
		if err := ValidatePhone(phone); err != nil {
			return nil, err
		}
	}
	role, err := registrationRole(in.Password, in.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.identities.GetByEmail(ctx, email)
	if err := checkAvailable(existing, err); err != nil {
		s.metrics.Registration("email", "rejected")
		return nil, err
	}

	i := &Identity{FullName: fullName, Email: strPtr(email), Phone: strPtr(phone), Role: role}
	return s.create(ctx, "email", i, in.Password)
}

func (s *Service) registerByPhone(ctx context.Context, in PhoneRegistration) (*Identity, error) {
	fullName := strings.TrimSpace(in.FullName)
	phone := NormalizePhone(in.Phone)

	if err := requireFields(fullName, "phone", phone, in.Password); err != nil {
		return nil, err
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	role, err := registrationRole(in.Password, in.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.identities.GetByPhone(ctx, phone)
	if err := checkAvailable(existing, err); err != nil {
		s.metrics.Registration("phone", "rejected")
		return nil, err
	}

	i := &Identity{FullName: fullName, Phone: strPtr(phone), Role: role}
	return s.create(ctx, "phone", i, in.Password)
}

func requireFields(fullName, channel, primary, password string) error {
	switch {
	case fullName == "":
		return apperr.Invalid("full_name", "full name is required")
	case primary == "":
		return apperr.Invalid(channel, "%s is required", channel)
	case password == "":
		return apperr.Invalid("password", "password is required")
	}
	return nil
}

// registrationRole applies the password policy, then resolves the requested
// role. Admin accounts cannot be self-registered.
func registrationRole(password string, requested auth.Role) (auth.Role, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	switch requested {
	case "":
		return auth.RolePatient, nil
	case auth.RolePatient, auth.RoleDoctor:
		return requested, nil
	default:
		return "", apperr.Invalid("role", "role must be patient or doctor")
	}
}

// checkAvailable turns a primary-channel lookup into a uniqueness verdict.
func checkAvailable(existing *Identity, err error) error {
	switch {
	case err == nil && existing != nil:
		return apperr.ErrDuplicateIdentity
	case err == nil, errors.Is(err, apperr.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup identity: %w", err)
	}
}

func (s *Service) create(ctx context.Context, channel string, i *Identity, password string) (*Identity, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	i.PasswordHash = hash

	if err := s.identities.Create(ctx, i); err != nil {
		if errors.Is(err, apperr.ErrDuplicateIdentity) {
			s.metrics.Registration(channel, "rejected")
			return nil, apperr.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	// The profile insert is a separate statement. A failure leaves an orphan
	// that ReconcileProfiles repairs later.
	if i.Role == auth.RolePatient {
		if err := s.profiles.Create(ctx, DefaultProfile(i)); err != nil {
			s.log(ctx).Error().Err(err).Int64("identity_id", i.ID).Msg("create patient profile")
		}
	}

	s.metrics.Registration(channel, "created")
	return i, nil
}

// LoginByEmail verifies credentials for an email identity.
func (s *Service) LoginByEmail(ctx context.Context, email, password string) (*Identity, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Invalid("", "email and password are required")
	}
	i, err := s.identities.GetByEmail(ctx, email)
	return s.authenticate(ctx, "email", i, err, password)
}

// LoginByPhone verifies credentials for a phone identity.
func (s *Service) LoginByPhone(ctx context.Context, phone, password string) (*Identity, error) {
	phone = NormalizePhone(phone)
	if phone == "" || password == "" {
		return nil, apperr.Invalid("", "phone and password are required")
	}
	i, err := s.identities.GetByPhone(ctx, phone)
	return s.authenticate(ctx, "phone", i, err, password)
}

func (s *Service) authenticate(ctx context.Context, channel string, i *Identity, lookupErr error, password string) (*Identity, error) {
	if lookupErr != nil {
		if !errors.Is(lookupErr, apperr.ErrNotFound) {
			return nil, fmt.Errorf("login: %w", lookupErr)
		}
		s.hasher.CompareDummy(password)
		s.metrics.Login(channel, "failed")
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.Compare(i.PasswordHash, password) {
		s.metrics.Login(channel, "failed")
		s.log(ctx).Info().Int64("identity_id", i.ID).Msg("login rejected")
		return nil, apperr.ErrInvalidCredentials
	}
	s.metrics.Login(channel, "succeeded")
	return i, nil
}

func (s *Service) GetIdentity(ctx context.Context, id int64) (*Identity, error) {
	if id <= 0 {
		return nil, apperr.Invalid("id", "id must be a positive integer")
	}
	return s.identities.GetByID(ctx, id)
}

func (s *Service) GetPatientProfile(ctx context.Context, id int64) (*PatientProfile, error) {
	if id <= 0 {
		return nil, apperr.Invalid("id", "id must be a positive integer")
	}
	return s.profiles.GetByID(ctx, id)
}

// ReconcileProfiles creates default profiles for up to batch patient
// identities that lack one and returns how many were created.
func (s *Service) ReconcileProfiles(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	orphans, err := s.identities.ListOrphanedPatients(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("reconcile profiles: %w", err)
	}

	created := 0
	for _, i := range orphans {
		if err := s.profiles.Create(ctx, DefaultProfile(i)); err != nil {
			s.logger.Error().Err(err).Int64("identity_id", i.ID).Msg("reconcile patient profile")
			continue
		}
		created++
	}
	if created > 0 {
		s.logger.Info().Int("created", created).Msg("patient profiles reconciled")
	}
	s.metrics.ProfilesReconciled(created)
	return created, nil
}
