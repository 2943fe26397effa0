package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"github.com/knownet/post-service/internal/repository/redisrepo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type postService struct {
	logger     *zap.Logger
	repo       *repository.Repository
	enricher   ai.Enricher
	enrichment *enrichmentService
	ledger     *ledger
	cfg        config.ServiceConfig
	images     *imageUploader
}

func newPostService(
	logger *zap.Logger,
	repo *repository.Repository,
	enricher ai.Enricher,
	enrichment *enrichmentService,
	ledger *ledger,
	images *imageUploader,
	cfg config.ServiceConfig,
) Post {
	return &postService{
		logger:     logger,
		repo:       repo,
		enricher:   enricher,
		enrichment: enrichment,
		ledger:     ledger,
		cfg:        cfg,
		images:     images,
	}
}

// Create stores the post with empty enrichment and returns it right away.
// Tags and summary are filled in by a background job.
func (s *postService) Create(ctx context.Context, input dto.CreatePostDto) (*model.Post, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}

	post := model.Post{
		ID:       uuid.New(),
		AuthorID: input.AuthorID,
		Content:  input.Content,
		ImageURL: input.ImageURL,
	}

	createdPost, err := s.repo.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create post: %s", err.Error())
		return nil, ErrInternal
	}

	if createdPost.AuthorID != nil {
		s.ledger.postCreated(*createdPost.AuthorID)
	}

	s.enrichment.schedule(ctx, newEnrichmentMsg(input, createdPost.ID))

	return createdPost, nil
}

// FindAll returns a newest-first page and the size of the whole collection,
// both taken from the same snapshot by the repository.
func (s *postService) FindAll(ctx context.Context, limit int, skip int) (*model.PostsPage, error) {
	page, err := s.repo.Post.FindAll(ctx, limit, skip)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find posts page(limit=%d, skip=%d): %s", limit, skip, err.Error())
		return nil, ErrInternal
	}

	return page, nil
}

func (s *postService) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	cachedPost, err := redisrepo.Get[model.Post](s.repo.Redis.Default, ctx, redisrepo.PostKey(id.String()))
	if err == nil {
		// a cached null is the tombstone left by Delete
		if cachedPost == nil {
			return nil, ErrPostNotFound
		}
		return cachedPost, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get post(%s) from redis: %s", id.String(), err.Error())
	}

	post, err := s.repo.Post.FindByID(ctx, id)
	if err != nil {
		return nil, s.postError(id, "find", err)
	}

	// Only fill an absent key: a tombstone or a newer fill must not be overwritten.
	if _, err := s.repo.Redis.Default.SetJSONNX(ctx, redisrepo.PostKey(id.String()), post, s.cfg.Cache.PostTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set post(%s) in redis: %s", id.String(), err.Error())
	}

	return post, nil
}

func (s *postService) ToggleLike(ctx context.Context, id uuid.UUID, userID string) (*model.Post, error) {
	res, err := s.repo.Post.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, s.postError(id, "toggle like on", err)
	}

	if res.Post.AuthorID != nil {
		s.ledger.likeToggled(*res.Post.AuthorID, res.Added)
	}

	s.invalidatePost(ctx, id)

	return res.Post, nil
}

func (s *postService) ToggleSave(ctx context.Context, id uuid.UUID, userID string) (*model.Post, error) {
	res, err := s.repo.Post.ToggleSave(ctx, id, userID)
	if err != nil {
		return nil, s.postError(id, "toggle save on", err)
	}

	s.invalidatePost(ctx, id)

	return res.Post, nil
}

func (s *postService) AddComment(ctx context.Context, id uuid.UUID, userID string, content string) (*model.Post, error) {
	post, err := s.repo.Post.AddComment(ctx, id, model.Comment{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, s.postError(id, "comment on", err)
	}

	s.invalidatePost(ctx, id)

	return post, nil
}

func (s *postService) GetPostsByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.repo.Post.FindByAuthor(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) posts: %s", userID, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

func (s *postService) GetLikedPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.repo.Post.FindLikedBy(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) liked posts: %s", userID, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

func (s *postService) GetSavedPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.repo.Post.FindSavedBy(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) saved posts: %s", userID, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

func (s *postService) GetUniqueTags(ctx context.Context) ([]string, error) {
	cachedTags, err := redisrepo.GetMany[string](s.repo.Redis.Default, ctx, redisrepo.UniqueTagsKey())
	if err == nil && cachedTags != nil {
		return cachedTags, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get unique tags from redis: %s", err.Error())
	}

	uniqueTags, err := s.repo.Post.UniqueTags(ctx)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find unique tags: %s", err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.UniqueTagsKey(), uniqueTags, s.cfg.Cache.TagsTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set unique tags in redis: %s", err.Error())
	}

	return uniqueTags, nil
}

// GetTotalLikesForUser is recomputed from posts on every call and is the
// authoritative figure behind the cached likes_received counter.
func (s *postService) GetTotalLikesForUser(ctx context.Context, userID string) (int64, error) {
	total, err := s.repo.Post.TotalLikesForAuthor(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to count likes of user(%s): %s", userID, err.Error())
		return 0, ErrInternal
	}

	return total, nil
}

func (s *postService) Search(ctx context.Context, query string) ([]*model.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Post{}, nil
	}

	posts, err := s.repo.Post.Search(ctx, query, SEARCH_LIMIT)
	if err != nil {
		s.logger.Sugar().Errorf("failed to search posts(%q): %s", query, err.Error())
		return nil, ErrInternal
	}

	return posts, nil
}

// SummarizePost regenerates the summary even if one exists. Unlike creation,
// a provider failure is returned to the caller as an AIError.
func (s *postService) SummarizePost(ctx context.Context, id uuid.UUID, userID string, credential string) (*model.Post, error) {
	post, err := s.repo.Post.FindByID(ctx, id)
	if err != nil {
		return nil, s.postError(id, "find", err)
	}

	summary, err := s.enricher.GenerateSummary(ctx, ai.Input{
		Content:    post.Content,
		Credential: credential,
	})
	if err != nil {
		aiFailuresTotal.WithLabelValues("summarize").Inc()
		s.logger.Sugar().Errorf("failed to generate summary for post(%s): %s", id.String(), err.Error())
		return nil, &AIError{Cause: err}
	}

	updatedPost, err := s.repo.Post.SetSummary(ctx, id, summary)
	if err != nil {
		return nil, s.postError(id, "save summary of", err)
	}

	s.ledger.summaryRequested(userID)
	s.invalidatePost(ctx, id)

	return updatedPost, nil
}

// Delete is allowed for the author only. Counter decrements run afterwards and
// are not atomic with the delete itself.
func (s *postService) Delete(ctx context.Context, id uuid.UUID, requesterID string) error {
	post, err := s.repo.Post.FindByID(ctx, id)
	if err != nil {
		return s.postError(id, "find", err)
	}

	if !post.IsAuthoredBy(requesterID) {
		return ErrNotPostAuthor
	}

	likes, err := s.repo.Post.Delete(ctx, id, requesterID)
	if err != nil {
		return s.postError(id, "delete", err)
	}

	s.ledger.postDeleted(requesterID, likes)

	// The tombstone outlives any fill that read the post before it was deleted.
	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.PostKey(id.String()), nil, s.cfg.Cache.PostTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set post(%s) tombstone in redis: %s", id.String(), err.Error())
	}
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.UniqueTagsKey()).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete unique tags from redis: %s", err.Error())
	}

	return nil
}

// invalidatePost drops the cached copy after a mutation; the next read refills it.
func (s *postService) invalidatePost(ctx context.Context, id uuid.UUID) {
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(id.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%s) from redis: %s", id.String(), err.Error())
	}
}

func (s *postService) postError(id uuid.UUID, action string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}

	s.logger.Sugar().Errorf("failed to %s post(%s): %s", action, id.String(), err.Error())
	return ErrInternal
}
