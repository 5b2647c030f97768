package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/govdesk/govdesk/internal/shared"
)

type mockRepository struct {
	creds     map[string]*Credential
	findError error
	replaced  []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{creds: make(map[string]*Credential)}
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	cred, ok := m.creds[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cred, nil
}

func (m *mockRepository) ReplaceSecret(ctx context.Context, id int64, newSecret, oldSecret string) (bool, error) {
	m.replaced = append(m.replaced, newSecret)
	return true, nil
}

func TestVerifyLegacyPath(t *testing.T) {
	repo := newMockRepository()
	repo.creds["valiofis"] = &Credential{
		ID:       7,
		Name:     "vali ofisi",
		Username: "valiofis",
		Secret:   LegacyDigest("gov2024"),
		Role:     "admin",
	}
	service := NewService(repo)

	verified, err := service.Verify(context.Background(), "valiofis", "gov2024")
	require.NoError(t, err)

	assert.Equal(t, int64(7), verified.ID)
	assert.Equal(t, SchemeLegacyDigest, verified.Scheme)
	assert.True(t, verified.NeedsUpgrade)
	assert.Equal(t, "valiofis", verified.Username)
	assert.Equal(t, "admin", verified.Role)
}

func TestVerifyModernPath(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("gov2024"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newMockRepository()
	repo.creds["memur1"] = &Credential{
		ID:                3,
		Name:              "Ayşe Demir",
		Username:          "memur1",
		Secret:            string(hashed),
		Role:              "idari",
		CustomPermissions: "arac",
	}
	service := NewService(repo)

	verified, err := service.Verify(context.Background(), "memur1", "gov2024")
	require.NoError(t, err)

	assert.Equal(t, SchemeModernHash, verified.Scheme)
	assert.False(t, verified.NeedsUpgrade)
	assert.Equal(t, "arac", verified.CustomPermissions)
}

func TestVerifyUppercasesNameWithTurkishCasing(t *testing.T) {
	repo := newMockRepository()
	repo.creds["imdat"] = &Credential{
		ID:       1,
		Name:     "ilhan yılmaz",
		Username: "imdat",
		Secret:   LegacyDigest("pw"),
		Role:     "danisma",
	}
	service := NewService(repo)

	verified, err := service.Verify(context.Background(), "imdat", "pw")
	require.NoError(t, err)

	// Dotted i uppercases to İ under Turkish rules, dotless ı to I.
	assert.Equal(t, "İLHAN YILMAZ", verified.Name)
}

func TestVerifyMissingInput(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.Verify(context.Background(), "", "gov2024")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = service.Verify(context.Background(), "valiofis", "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestVerifyUnknownIdentifier(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.Verify(context.Background(), "yok", "gov2024")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVerifyPasswordMismatch(t *testing.T) {
	repo := newMockRepository()
	repo.creds["valiofis"] = &Credential{
		ID:       7,
		Username: "valiofis",
		Secret:   LegacyDigest("gov2024"),
		Role:     "admin",
	}
	service := NewService(repo)

	_, err := service.Verify(context.Background(), "valiofis", "gov2025")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestVerifyStoreFault(t *testing.T) {
	repo := newMockRepository()
	repo.findError = shared.ErrStoreUnavailable
	service := NewService(repo)

	_, err := service.Verify(context.Background(), "valiofis", "gov2024")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}

func TestVerifyDoesNotMutateStore(t *testing.T) {
	repo := newMockRepository()
	repo.creds["valiofis"] = &Credential{
		ID:       7,
		Username: "valiofis",
		Secret:   LegacyDigest("gov2024"),
		Role:     "admin",
	}
	service := NewService(repo)

	_, err := service.Verify(context.Background(), "valiofis", "gov2024")
	require.NoError(t, err)
	assert.Empty(t, repo.replaced)
}
