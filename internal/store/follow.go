package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell-social/apiserver/types"
)

// FollowRepository handles persistence for the follow graph.
type FollowRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Follow inserts the edge follower→followed. Inserting an existing edge
// is a no-op, which also covers the self-edge created at registration.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followedID int) error {
	const query = `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, followerID, followedID, time.Now())
	return err
}

// Unfollow removes the edge follower→followed if present.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followedID int) error {
	const query = `
		DELETE FROM follows
		WHERE follower_id = $1 AND followed_id = $2`
	_, err := r.db.ExecContext(ctx, query, followerID, followedID)
	return err
}

// IsFollowing reports whether the edge follower→followed exists.
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followedID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_id = $1 AND followed_id = $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountFollowing returns how many accounts the user follows, including
// the mandatory self-edge.
func (r *FollowRepository) CountFollowing(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(*) FROM follows WHERE follower_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountFollowers returns how many accounts follow the user, including
// the mandatory self-edge.
func (r *FollowRepository) CountFollowers(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(*) FROM follows WHERE followed_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListFollowers returns a page of edges pointing at the user, newest first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID, offset, limit int) ([]types.Follow, error) {
	const query = `
		SELECT follower_id, followed_id, created_at
		FROM follows
		WHERE followed_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`
	return r.list(ctx, query, userID, offset, limit)
}

// ListFollowing returns a page of edges originating at the user, newest first.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID, offset, limit int) ([]types.Follow, error) {
	const query = `
		SELECT follower_id, followed_id, created_at
		FROM follows
		WHERE follower_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`
	return r.list(ctx, query, userID, offset, limit)
}

func (r *FollowRepository) list(ctx context.Context, query string, args ...any) ([]types.Follow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var follows []types.Follow
	for rows.Next() {
		var f types.Follow
		if err := rows.Scan(&f.FollowerID, &f.FollowedID, &f.CreatedAt); err != nil {
			return nil, err
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}
