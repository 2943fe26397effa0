package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"go.uber.org/zap"
)

const (
	DEFAULT_USER_NAME  = "Anonymous User"
	DEFAULT_USER_EMAIL = "user-%s@knownet.com" // <userID>
)

type userService struct {
	logger *zap.Logger
	repo   *repository.Repository
	images *imageUploader
}

func newUserService(logger *zap.Logger, repo *repository.Repository, images *imageUploader) User {
	return &userService{
		logger: logger,
		repo:   repo,
		images: images,
	}
}

// GetStats returns the profile, the cached counters and the likes total
// recomputed from posts.
func (s *userService) GetStats(ctx context.Context, userID string) (*model.UserStats, error) {
	profile, err := s.repo.User.FindProfile(ctx, userID)
	if err != nil {
		return nil, s.userError(userID, "find profile of", err)
	}

	counters, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, s.userError(userID, "find counters of", err)
	}

	totalLikes, err := s.repo.Post.TotalLikesForAuthor(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to count likes of user(%s): %s", userID, err.Error())
		return nil, ErrInternal
	}

	return &model.UserStats{
		Profile:    withProfileDefaults(*profile),
		Counters:   *counters,
		TotalLikes: totalLikes,
	}, nil
}

// UpdateProfile creates the user on first edit. Only the user may edit their own profile.
func (s *userService) UpdateProfile(ctx context.Context, requesterID string, userID string, update model.ProfileUpdate) (*model.UserProfile, error) {
	if requesterID != userID {
		return nil, ErrNotProfileOwner
	}

	if _, err := s.findOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	profile, err := s.repo.User.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, s.userError(userID, "update profile of", err)
	}

	p := withProfileDefaults(*profile)
	return &p, nil
}

func (s *userService) UploadProfileImage(ctx context.Context, requesterID string, userID string, fileHeader *multipart.FileHeader) (*model.UserProfile, error) {
	if requesterID != userID {
		return nil, ErrNotProfileOwner
	}

	uploaded, err := s.images.upload(ctx, fileHeader, PROFILE_IMAGES_PATH)
	if err != nil {
		return nil, err
	}

	return s.UpdateProfile(ctx, requesterID, userID, model.ProfileUpdate{ProfileImageURL: &uploaded.URL})
}

func (s *userService) findOrCreate(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := s.repo.User.EnsureProfile(ctx, userID, DEFAULT_USER_NAME, fmt.Sprintf(DEFAULT_USER_EMAIL, userID))
	if err != nil {
		return nil, s.userError(userID, "create profile of", err)
	}

	return profile, nil
}

// Reconcile overwrites posts_count and likes_received with values recomputed
// from posts. ai_summaries_count has no source of truth and is left alone.
func (s *userService) Reconcile(ctx context.Context, userID string) (*model.UserCounters, error) {
	postsCount, err := s.repo.Post.CountByAuthor(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to count posts of user(%s): %s", userID, err.Error())
		return nil, ErrInternal
	}

	likesReceived, err := s.repo.Post.TotalLikesForAuthor(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to count likes of user(%s): %s", userID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.User.SetCounters(ctx, userID, postsCount, likesReceived); err != nil {
		s.logger.Sugar().Errorf("failed to set user(%s) counters: %s", userID, err.Error())
		return nil, ErrInternal
	}

	counters, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user(%s) counters: %s", userID, err.Error())
		return nil, ErrInternal
	}

	return counters, nil
}

func (s *userService) ReconcileAll(ctx context.Context) error {
	userIDs, err := s.repo.User.FindAllIDs(ctx)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find user ids: %s", err.Error())
		return ErrInternal
	}

	var failed int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Reconcile(ctx, userID); err != nil {
			failed++
		}
	}

	if failed > 0 {
		s.logger.Sugar().Warnf("reconciled %d users, %d failed", len(userIDs)-failed, failed)
	} else {
		s.logger.Sugar().Infof("reconciled %d users", len(userIDs))
	}

	return nil
}

func (s *userService) userError(userID string, action string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrEmailTaken
	}

	s.logger.Sugar().Errorf("failed to %s user(%s): %s", action, userID, err.Error())
	return ErrInternal
}

// withProfileDefaults fills name and email for users that only exist through
// their counters so far.
func withProfileDefaults(p model.UserProfile) model.UserProfile {
	if p.Name == "" {
		p.Name = DEFAULT_USER_NAME
	}
	if p.Email == "" {
		p.Email = fmt.Sprintf(DEFAULT_USER_EMAIL, p.ID)
	}
	return p
}
