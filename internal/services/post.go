package services

import (
	"context"
	"html"
	"strings"

	"github.com/inkwell-social/apiserver/types"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Get(ctx context.Context, id int) (types.Post, error)
	List(ctx context.Context, offset, limit int) ([]types.Post, int, error)
	ListByAuthor(ctx context.Context, authorID, offset, limit int) ([]types.Post, int, error)
	ListFollowed(ctx context.Context, userID, offset, limit int) ([]types.Post, int, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// PostService encapsulates post use-cases.
type PostService struct {
	repo PostRepository
}

func NewPostService(repo PostRepository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

func (s *PostService) List(ctx context.Context, offset, limit int) ([]types.Post, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID, offset, limit int) ([]types.Post, int, error) {
	return s.repo.ListByAuthor(ctx, authorID, offset, limit)
}

// Timeline returns posts authored by accounts the user follows. The
// self-follow edge keeps the user's own posts in the timeline.
func (s *PostService) Timeline(ctx context.Context, userID, offset, limit int) ([]types.Post, int, error) {
	return s.repo.ListFollowed(ctx, userID, offset, limit)
}

func (s *PostService) Create(ctx context.Context, authorID int, body string) (types.Post, error) {
	return s.repo.Create(ctx, types.Post{
		Body:     body,
		BodyHTML: RenderBody(body),
		AuthorID: authorID,
	})
}

func (s *PostService) Update(ctx context.Context, post types.Post, body string) (types.Post, error) {
	post.Body = body
	post.BodyHTML = RenderBody(body)
	return s.repo.Update(ctx, post)
}

func (s *PostService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// RenderBody produces the stored HTML rendering of a body: escaped and
// wrapped into paragraphs on blank lines.
func RenderBody(body string) string {
	paragraphs := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(p), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
