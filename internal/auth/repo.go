package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/govdesk/govdesk/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	// ReplaceSecret swaps the stored secret only while it still equals
	// oldSecret, so a concurrent password change wins over a background
	// re-hash. Reports whether a row was updated.
	ReplaceSecret(ctx context.Context, id int64, newSecret, oldSecret string) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches a credential record by its exact, case-sensitive
// login name.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	const query = `SELECT id, ad_soyad, kullanici_adi, sifre, rol, ozel_yetki FROM personel WHERE kullanici_adi = $1`
	var (
		cred Credential
		ozel pgtype.Text
	)
	if err := r.pool.QueryRow(ctx, query, username).Scan(&cred.ID, &cred.Name, &cred.Username, &cred.Secret, &cred.Role, &ozel); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, storeFault(err)
	}
	if ozel.Valid {
		cred.CustomPermissions = ozel.String
	}
	return &cred, nil
}

// ReplaceSecret performs the conditional secret swap used by credential
// upgrade jobs.
func (r *PGRepository) ReplaceSecret(ctx context.Context, id int64, newSecret, oldSecret string) (bool, error) {
	const query = `UPDATE personel SET sifre = $2 WHERE id = $1 AND sifre = $3`
	tag, err := r.pool.Exec(ctx, query, id, newSecret, oldSecret)
	if err != nil {
		return false, storeFault(err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountLegacySecrets reports how many accounts still carry a legacy hex
// digest instead of a modern hash. Used by the scheduled migration scan.
func (r *PGRepository) CountLegacySecrets(ctx context.Context) (int64, error) {
	const query = `SELECT count(*) FROM personel WHERE sifre ~ '^[0-9a-f]{32}$'`
	var total int64
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, storeFault(err)
	}
	return total, nil
}

// storeFault maps any non-miss store error to the single server-fault
// class, keeping the SQLSTATE when the server produced one.
func storeFault(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: sqlstate %s", shared.ErrStoreUnavailable, pgErr.Code)
	}
	return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
}

var _ Repository = (*PGRepository)(nil)
