package services

import (
	"context"

	"github.com/inkwell-social/apiserver/types"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Get(ctx context.Context, id int) (types.Comment, error)
	ListByPost(ctx context.Context, postID, offset, limit int) ([]types.Comment, int, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	SetDisabled(ctx context.Context, id int, disabled bool) error
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo CommentRepository
}

func NewCommentService(repo CommentRepository) *CommentService {
	return &CommentService{repo: repo}
}

func (s *CommentService) Get(ctx context.Context, id int) (types.Comment, error) {
	return s.repo.Get(ctx, id)
}

func (s *CommentService) ListByPost(ctx context.Context, postID, offset, limit int) ([]types.Comment, int, error) {
	return s.repo.ListByPost(ctx, postID, offset, limit)
}

func (s *CommentService) Create(ctx context.Context, authorID, postID int, body string) (types.Comment, error) {
	return s.repo.Create(ctx, types.Comment{
		Body:     body,
		BodyHTML: RenderBody(body),
		AuthorID: authorID,
		PostID:   postID,
	})
}

// Moderate flips the disabled flag on a comment.
func (s *CommentService) Moderate(ctx context.Context, id int, disabled bool) error {
	return s.repo.SetDisabled(ctx, id, disabled)
}
