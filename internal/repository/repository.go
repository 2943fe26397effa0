package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository/redisrepo"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation, such as a taken email.
	ErrConflict = errors.New("conflict")
)

const (
	MAX_LIMIT     = 50
	DEFAULT_LIMIT = 20
)

// ClampLimit keeps page sizes within [1, MAX_LIMIT] and offsets non-negative.
func ClampLimit(limit *int, skip *int) {
	if *limit <= 0 {
		*limit = DEFAULT_LIMIT
	}
	if *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
	if *skip < 0 {
		*skip = 0
	}
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindAll(ctx context.Context, limit int, skip int) (*model.PostsPage, error)
	FindByAuthor(ctx context.Context, authorID string) ([]*model.Post, error)
	FindLikedBy(ctx context.Context, userID string) ([]*model.Post, error)
	FindSavedBy(ctx context.Context, userID string) ([]*model.Post, error)
	// ToggleLike and ToggleSave flip membership atomically at the storage layer.
	ToggleLike(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error)
	ToggleSave(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error)
	AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) (*model.Post, error)
	SetEnrichment(ctx context.Context, id uuid.UUID, tags []string, summary *string) (*model.Post, error)
	SetSummary(ctx context.Context, id uuid.UUID, summary string) (*model.Post, error)
	// Delete removes the post only if authorID owns it and returns how many likes it carried.
	Delete(ctx context.Context, id uuid.UUID, authorID string) (int64, error)
	UniqueTags(ctx context.Context) ([]string, error)
	TotalLikesForAuthor(ctx context.Context, authorID string) (int64, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Post, error)
}

type User interface {
	IncrCounters(ctx context.Context, userID string, delta model.CounterDelta) error
	SetCounters(ctx context.Context, userID string, postsCount int64, likesReceived int64) error
	FindByID(ctx context.Context, userID string) (*model.UserCounters, error)
	FindAllIDs(ctx context.Context) ([]string, error)
	// EnsureProfile creates the user if missing and sets name and email only where they are still unset.
	EnsureProfile(ctx context.Context, userID string, name string, email string) (*model.UserProfile, error)
	FindProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	// UpdateProfile upserts the user and overwrites the non-nil fields of update.
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.UserProfile, error)
}

type Repository struct {
	Post  Post
	User  User
	Redis *redisrepo.RedisRepository
}

func New(post Post, user User, redis *redisrepo.RedisRepository) *Repository {
	return &Repository{
		Post:  post,
		User:  user,
		Redis: redis,
	}
}
