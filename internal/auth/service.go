package auth

import (
	"context"
	"errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrMissingInput rejects empty identifier or password before any
	// store lookup.
	ErrMissingInput = errors.New("auth: identifier and password required")
	// ErrPasswordMismatch indicates the record exists but no scheme
	// certified the password.
	ErrPasswordMismatch = errors.New("auth: password mismatch")
)

// Service wraps credential verification rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Verify certifies the password against whichever hash scheme the stored
// record carries, trying the legacy digest first and falling back to the
// modern hash. It performs exactly one store round trip and never mutates
// the record. Lookup misses surface as shared.ErrNotFound and store faults
// as shared.ErrStoreUnavailable; callers must collapse the former with
// ErrPasswordMismatch before anything user-visible.
func (s *Service) Verify(ctx context.Context, identifier, password string) (*VerifiedIdentity, error) {
	if identifier == "" || password == "" {
		return nil, ErrMissingInput
	}
	cred, err := s.repo.FindByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	for _, strat := range strategies {
		if !strat.match(cred.Secret, password) {
			continue
		}
		return &VerifiedIdentity{
			ID:                cred.ID,
			Name:              cases.Upper(language.Turkish).String(cred.Name),
			Username:          cred.Username,
			Role:              cred.Role,
			CustomPermissions: cred.CustomPermissions,
			Scheme:            strat.scheme,
			NeedsUpgrade:      strat.scheme == SchemeLegacyDigest,
		}, nil
	}
	return nil, ErrPasswordMismatch
}
