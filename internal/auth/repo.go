package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/odyssey-auth/internal/permission"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// Repository defines the read-only persistence operations of the auth module.
type Repository interface {
	FindCredentialsByName(ctx context.Context, name string) (*Credentials, error)
	FindUserByID(ctx context.Context, id int32) (*User, error)
	// AccessOrdinals returns the ids of every active access reachable from
	// the user through its roles.
	AccessOrdinals(ctx context.Context, userID int32) ([]uint64, error)
	ListAccess(ctx context.Context) ([]PermissionDefinition, error)
}

// Querier is the subset of pgxpool.Pool used by PGRepository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db Querier) *PGRepository {
	return &PGRepository{db: db}
}

const (
	credentialsByNameSQL = `SELECT id, name, password FROM users WHERE name = $1`
	userByIDSQL          = `SELECT id, name FROM users WHERE id = $1`
	accessOrdinalsSQL    = `SELECT DISTINCT a.id
FROM access a
JOIN role_access ra ON ra.access_id = a.id
JOIN user_role ur ON ur.role_id = ra.role_id
WHERE ur.user_id = $1 AND a.status = 1
ORDER BY a.id`
	listAccessSQL = `SELECT id, name FROM access WHERE status = 1 ORDER BY id`
)

// FindCredentialsByName fetches the stored password of a user.
func (r *PGRepository) FindCredentialsByName(ctx context.Context, name string) (*Credentials, error) {
	var c Credentials
	if err := r.db.QueryRow(ctx, credentialsByNameSQL, name).Scan(&c.ID, &c.Name, &c.Password); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id int32) (*User, error) {
	var u User
	if err := r.db.QueryRow(ctx, userByIDSQL, id).Scan(&u.ID, &u.Name); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// AccessOrdinals resolves the role to access closure of a user.
func (r *PGRepository) AccessOrdinals(ctx context.Context, userID int32) ([]uint64, error) {
	rows, err := r.db.Query(ctx, accessOrdinalsSQL, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var ordinals []uint64
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ordinals = append(ordinals, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return ordinals, nil
}

// ListAccess returns every active permission definition with its bit value.
func (r *PGRepository) ListAccess(ctx context.Context) ([]PermissionDefinition, error) {
	rows, err := r.db.Query(ctx, listAccessSQL)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var defs []PermissionDefinition
	for rows.Next() {
		var def PermissionDefinition
		if err := rows.Scan(&def.ID, &def.Name); err != nil {
			return nil, err
		}
		def.Value = permission.Encode(uint64(def.ID))
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return defs, nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("auth: postgres %s: %w", pgErr.Code, err)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
