package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/inkwell-social/apiserver/types"
)

// CommentRepository handles persistence for comments.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Get(ctx context.Context, id int) (types.Comment, error) {
	const query = `
		SELECT id, body, body_html, author_id, post_id, disabled, created_at
		FROM comments
		WHERE id = $1`
	var comment types.Comment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID,
		&comment.Body,
		&comment.BodyHTML,
		&comment.AuthorID,
		&comment.PostID,
		&comment.Disabled,
		&comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, ErrNotFound
		}
		return types.Comment{}, err
	}
	return comment, nil
}

// ListByPost returns a page of a post's comments, oldest first. Disabled
// comments are included; the handler layer decides visibility.
func (r *CommentRepository) ListByPost(ctx context.Context, postID, offset, limit int) ([]types.Comment, int, error) {
	const query = `
		SELECT id, body, body_html, author_id, post_id, disabled, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC
		OFFSET $2 LIMIT $3`
	const countQuery = `SELECT COUNT(*) FROM comments WHERE post_id = $1`

	rows, err := r.db.QueryContext(ctx, query, postID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var comment types.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.Body,
			&comment.BodyHTML,
			&comment.AuthorID,
			&comment.PostID,
			&comment.Disabled,
			&comment.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, postID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (body, body_html, author_id, post_id, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.Body,
		comment.BodyHTML,
		comment.AuthorID,
		comment.PostID,
		comment.Disabled,
		comment.CreatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// SetDisabled flips the moderation flag on a comment.
func (r *CommentRepository) SetDisabled(ctx context.Context, id int, disabled bool) error {
	const query = `UPDATE comments SET disabled = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, disabled, id)
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
