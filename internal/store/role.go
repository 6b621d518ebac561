package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/inkwell-social/apiserver/types"
)

// RoleRepository handles persistence for roles.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id int) (types.Role, error) {
	const query = `SELECT id, name, permissions, is_default FROM roles WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (types.Role, error) {
	const query = `SELECT id, name, permissions, is_default FROM roles WHERE name = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, name))
}

// GetDefault returns the role assigned to freshly registered accounts.
func (r *RoleRepository) GetDefault(ctx context.Context) (types.Role, error) {
	const query = `SELECT id, name, permissions, is_default FROM roles WHERE is_default`
	return r.scan(r.db.QueryRowContext(ctx, query))
}

func (r *RoleRepository) List(ctx context.Context) ([]types.Role, error) {
	const query = `SELECT id, name, permissions, is_default FROM roles ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []types.Role
	for rows.Next() {
		var role types.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions, &role.Default); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Seed upserts the canonical role table. Running it repeatedly never
// duplicates roles: existing roles get their bitmask and default flag
// refreshed, missing ones are inserted.
func (r *RoleRepository) Seed(ctx context.Context, specs []types.RoleSpec) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Clear the default flag first so it can move between roles without
	// tripping the single-default unique index.
	if _, err := tx.ExecContext(ctx, `UPDATE roles SET is_default = FALSE WHERE is_default`); err != nil {
		return err
	}

	const upsert = `
		INSERT INTO roles (name, permissions, is_default)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET permissions = EXCLUDED.permissions,
			is_default = EXCLUDED.is_default`
	for _, spec := range specs {
		if _, err := tx.ExecContext(ctx, upsert, spec.Name, spec.Permissions, spec.Default); err != nil {
			return translateErr(err)
		}
	}

	return tx.Commit()
}

func (r *RoleRepository) scan(row *sql.Row) (types.Role, error) {
	var role types.Role
	err := row.Scan(&role.ID, &role.Name, &role.Permissions, &role.Default)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Role{}, ErrNotFound
		}
		return types.Role{}, err
	}
	return role, nil
}
