package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-social/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
	u.name, u.location, u.about_me, u.avatar_key, u.member_since, u.last_seen,
	r.id, r.name, r.permissions, r.is_default`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Confirmed,
		&user.RoleID,
		&user.Name,
		&user.Location,
		&user.AboutMe,
		&user.AvatarKey,
		&user.MemberSince,
		&user.LastSeen,
		&user.Role.ID,
		&user.Role.Name,
		&user.Role.Permissions,
		&user.Role.Default,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// Create inserts the user and its mandatory self-follow edge in one
// transaction. A freshly created account therefore reports a follower
// and following count of one.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.MemberSince = now
	user.LastSeen = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer tx.Rollback()

	const insertUser = `
		INSERT INTO users (email, username, password_hash, confirmed, role_id,
			name, location, about_me, avatar_key, member_since, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertUser,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Confirmed,
		user.RoleID,
		user.Name,
		user.Location,
		user.AboutMe,
		user.AvatarKey,
		user.MemberSince,
		user.LastSeen,
	).Scan(&user.ID); err != nil {
		return types.User{}, translateErr(err)
	}

	const insertSelfFollow = `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $1, $2)`
	if _, err := tx.ExecContext(ctx, insertSelfFollow, user.ID, now); err != nil {
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile rewrites the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE users
		SET name = $1,
			location = $2,
			about_me = $3,
			avatar_key = $4
		WHERE id = $5`
	return user, r.exec(ctx, query, user.Name, user.Location, user.AboutMe, user.AvatarKey, user.ID)
}

func (r *UserRepository) SetConfirmed(ctx context.Context, id int, confirmed bool) error {
	const query = `UPDATE users SET confirmed = $1 WHERE id = $2`
	return r.exec(ctx, query, confirmed, id)
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id int, hash string) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`
	return r.exec(ctx, query, hash, id)
}

func (r *UserRepository) SetEmail(ctx context.Context, id int, email string) error {
	const query = `UPDATE users SET email = $1 WHERE id = $2`
	return r.exec(ctx, query, email, id)
}

func (r *UserRepository) SetRole(ctx context.Context, id, roleID int) error {
	const query = `UPDATE users SET role_id = $1 WHERE id = $2`
	return r.exec(ctx, query, roleID, id)
}

// TouchLastSeen refreshes the last-active timestamp.
func (r *UserRepository) TouchLastSeen(ctx context.Context, id int) error {
	const query = `UPDATE users SET last_seen = now() WHERE id = $1`
	return r.exec(ctx, query, id)
}

// Delete removes the user. Follow edges, posts, and comments cascade
// at the schema level.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	return r.exec(ctx, query, id)
}

// EmailExists reports whether any account other than excludeID owns the
// given email address.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UsernameExists reports whether any account other than excludeID owns
// the given username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
