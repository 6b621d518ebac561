package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFollowUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO follows(.|\n)+ON CONFLICT \\(follower_id, followed_id\\) DO NOTHING").
		WithArgs(1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewFollowRepository(db)
	if err := repo.Follow(context.Background(), 1, 2); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUnfollow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM follows(.|\n)+WHERE follower_id = \\$1 AND followed_id = \\$2").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewFollowRepository(db)
	if err := repo.Unfollow(context.Background(), 1, 2); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFollowCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM follows WHERE follower_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM follows WHERE followed_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewFollowRepository(db)
	following, err := repo.CountFollowing(context.Background(), 1)
	if err != nil {
		t.Fatalf("count following: %v", err)
	}
	followers, err := repo.CountFollowers(context.Background(), 1)
	if err != nil {
		t.Fatalf("count followers: %v", err)
	}
	if following != 2 || followers != 1 {
		t.Errorf("counts = %d/%d, want 2/1", following, followers)
	}
}

func TestListFollowers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT follower_id, followed_id, created_at(.|\n)+WHERE followed_id = \\$1").
		WithArgs(2, 0, 20).
		WillReturnRows(sqlmock.NewRows([]string{"follower_id", "followed_id", "created_at"}).
			AddRow(1, 2, now).
			AddRow(2, 2, now))

	repo := NewFollowRepository(db)
	follows, err := repo.ListFollowers(context.Background(), 2, 0, 20)
	if err != nil {
		t.Fatalf("list followers: %v", err)
	}
	if len(follows) != 2 {
		t.Fatalf("len = %d, want 2", len(follows))
	}
	if follows[0].FollowerID != 1 || follows[0].FollowedID != 2 {
		t.Errorf("first edge = %+v", follows[0])
	}
}
