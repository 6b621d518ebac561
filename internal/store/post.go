package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-social/apiserver/types"
)

// PostRepository handles persistence for posts.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	const query = `
		SELECT id, body, body_html, author_id, created_at, updated_at
		FROM posts
		WHERE id = $1`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Body,
		&post.BodyHTML,
		&post.AuthorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

// List returns a page of all posts, newest first, with the total count.
func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	const query = `
		SELECT id, body, body_html, author_id, created_at, updated_at
		FROM posts
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	const countQuery = `SELECT COUNT(*) FROM posts`

	posts, err := r.queryPosts(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListByAuthor returns a page of posts by one author, newest first.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID, offset, limit int) ([]types.Post, int, error) {
	const query = `
		SELECT id, body, body_html, author_id, created_at, updated_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`
	const countQuery = `SELECT COUNT(*) FROM posts WHERE author_id = $1`

	posts, err := r.queryPosts(ctx, query, authorID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListFollowed returns the timeline of posts authored by accounts the
// user follows. The self-follow edge keeps the user's own posts in it.
func (r *PostRepository) ListFollowed(ctx context.Context, userID, offset, limit int) ([]types.Post, int, error) {
	const query = `
		SELECT p.id, p.body, p.body_html, p.author_id, p.created_at, p.updated_at
		FROM posts p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = $1
		ORDER BY p.created_at DESC
		OFFSET $2 LIMIT $3`
	const countQuery = `
		SELECT COUNT(*)
		FROM posts p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = $1`

	posts, err := r.queryPosts(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	const query = `
		INSERT INTO posts (body, body_html, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.Body,
		post.BodyHTML,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	post.UpdatedAt = time.Now()

	const query = `
		UPDATE posts
		SET body = $1,
			body_html = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, post.Body, post.BodyHTML, post.UpdatedAt, post.ID)
	if err != nil {
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
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

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]types.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.Post
	for rows.Next() {
		var post types.Post
		if err := rows.Scan(
			&post.ID,
			&post.Body,
			&post.BodyHTML,
			&post.AuthorID,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
