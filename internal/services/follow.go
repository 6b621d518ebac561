package services

import (
	"context"

	"github.com/inkwell-social/apiserver/types"
)

// FollowRepository defines persistence operations for the follow graph.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followedID int) error
	Unfollow(ctx context.Context, followerID, followedID int) error
	IsFollowing(ctx context.Context, followerID, followedID int) (bool, error)
	CountFollowing(ctx context.Context, userID int) (int, error)
	CountFollowers(ctx context.Context, userID int) (int, error)
	ListFollowers(ctx context.Context, userID, offset, limit int) ([]types.Follow, error)
	ListFollowing(ctx context.Context, userID, offset, limit int) ([]types.Follow, error)
}

// FollowService encapsulates follow graph use-cases.
type FollowService struct {
	repo FollowRepository
}

func NewFollowService(repo FollowRepository) *FollowService {
	return &FollowService{repo: repo}
}

// Follow inserts the edge follower→followed. Existing edges, including
// the self-edge every account gets at creation, are left untouched.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID int) error {
	return s.repo.Follow(ctx, followerID, followedID)
}

// Unfollow removes the edge follower→followed. The mandatory self-edge
// is kept: unfollowing yourself is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID int) error {
	if followerID == followedID {
		return nil
	}
	return s.repo.Unfollow(ctx, followerID, followedID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID int) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followedID)
}

// IsFollowedBy reports whether userID is followed by otherID.
func (s *FollowService) IsFollowedBy(ctx context.Context, userID, otherID int) (bool, error) {
	return s.repo.IsFollowing(ctx, otherID, userID)
}

// Counts returns the followed and follower counts of the account. Both
// include the mandatory self-edge, so an isolated account reports 1/1.
func (s *FollowService) Counts(ctx context.Context, userID int) (following, followers int, err error) {
	following, err = s.repo.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	followers, err = s.repo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return following, followers, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID, offset, limit int) ([]types.Follow, error) {
	return s.repo.ListFollowers(ctx, userID, offset, limit)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID, offset, limit int) ([]types.Follow, error) {
	return s.repo.ListFollowing(ctx, userID, offset, limit)
}
