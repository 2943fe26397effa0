package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/rabbitmq"
	"github.com/knownet/post-service/internal/repository"
	"github.com/knownet/post-service/internal/tags"
	"go.uber.org/zap"
)

const SEARCH_LIMIT = 20

type Post interface {
	Create(ctx context.Context, input dto.CreatePostDto) (*model.Post, error)
	FindAll(ctx context.Context, limit int, skip int) (*model.PostsPage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	ToggleLike(ctx context.Context, id uuid.UUID, userID string) (*model.Post, error)
	ToggleSave(ctx context.Context, id uuid.UUID, userID string) (*model.Post, error)
	AddComment(ctx context.Context, id uuid.UUID, userID string, content string) (*model.Post, error)
	GetPostsByUser(ctx context.Context, userID string) ([]*model.Post, error)
	GetLikedPosts(ctx context.Context, userID string) ([]*model.Post, error)
	GetSavedPosts(ctx context.Context, userID string) ([]*model.Post, error)
	GetUniqueTags(ctx context.Context) ([]string, error)
	GetTotalLikesForUser(ctx context.Context, userID string) (int64, error)
	Search(ctx context.Context, query string) ([]*model.Post, error)
	SummarizePost(ctx context.Context, id uuid.UUID, userID string, credential string) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID, requesterID string) error
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (*UploadedImage, error)
}

type User interface {
	GetStats(ctx context.Context, userID string) (*model.UserStats, error)
	UpdateProfile(ctx context.Context, requesterID string, userID string, update model.ProfileUpdate) (*model.UserProfile, error)
	UploadProfileImage(ctx context.Context, requesterID string, userID string, fileHeader *multipart.FileHeader) (*model.UserProfile, error)
	Reconcile(ctx context.Context, userID string) (*model.UserCounters, error)
	ReconcileAll(ctx context.Context) error
}

type Service struct {
	Post
	User
	logger     *zap.Logger
	bg         *background
	enrichment *enrichmentService
	cfg        config.ServiceConfig
}

// New wires the services. mq may be nil, in which case enrichment jobs run in-process.
func New(logger *zap.Logger, repo *repository.Repository, enricher ai.Enricher, mq *rabbitmq.MQConn, cfg config.ServiceConfig) *Service {
	bg := newBackground(logger)
	l := newLedger(logger, repo.User, bg, cfg.Ledger.UpdateTimeout)
	deriver := tags.NewDeriver(logger, enricher, cfg.Enrichment.SupplementAITags)
	enrichment := newEnrichmentService(logger, repo, enricher, deriver, mq, bg, cfg)
	images := newImageUploader(logger, cfg.CDNOrigin)

	return &Service{
		Post:       newPostService(logger, repo, enricher, enrichment, l, images, cfg),
		User:       newUserService(logger, repo, images),
		logger:     logger,
		bg:         bg,
		enrichment: enrichment,
		cfg:        cfg,
	}
}

// StartConsumeAll consumes queued enrichment jobs until ctx is done. It
// returns immediately when jobs run in-process.
func (s *Service) StartConsumeAll(ctx context.Context) {
	s.enrichment.consume(ctx)
}

// StartReconciler periodically recomputes every user's counters from posts.
// A zero interval disables it.
func (s *Service) StartReconciler(ctx context.Context) {
	interval := s.cfg.Ledger.ReconcileInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.User.ReconcileAll(ctx); err != nil {
				s.logger.Sugar().Errorf("failed to reconcile user counters: %s", err.Error())
			}
		}
	}
}

// Wait blocks until detached work (counter updates, in-process enrichment) has finished.
func (s *Service) Wait() {
	s.bg.Wait()
}
