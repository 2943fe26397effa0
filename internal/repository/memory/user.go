package memory

import (
	"context"
	"sort"
	"time"

	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) upsert(userID string) *userRow {
	u, ok := r.s.users[userID]
	if !ok {
		now := time.Now().UTC()
		u = &userRow{
			counters: model.UserCounters{ID: userID, UpdatedAt: now},
			profile:  model.UserProfile{ID: userID, JoinedDate: now},
		}
		r.s.users[userID] = u
	}
	return u
}

func (r *userRepo) IncrCounters(ctx context.Context, userID string, delta model.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.upsert(userID)
	u.counters.PostsCount += delta.Posts
	u.counters.LikesReceived += delta.LikesReceived
	u.counters.AISummariesCount += delta.AISummaries
	u.counters.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *userRepo) SetCounters(ctx context.Context, userID string, postsCount int64, likesReceived int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.upsert(userID)
	u.counters.PostsCount = postsCount
	u.counters.LikesReceived = likesReceived
	u.counters.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*model.UserCounters, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	c := u.counters
	return &c, nil
}

func (r *userRepo) FindAllIDs(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := []string{}
	for id := range r.s.users {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range r.s.posts {
		if p.AuthorID == nil {
			continue
		}
		if _, ok := seen[*p.AuthorID]; !ok {
			seen[*p.AuthorID] = struct{}{}
			ids = append(ids, *p.AuthorID)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

func (r *userRepo) EnsureProfile(ctx context.Context, userID string, name string, email string) (*model.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.upsert(userID)
	if u.profile.Email == "" {
		if r.emailTaken(userID, email) {
			return nil, repository.ErrConflict
		}
		u.profile.Email = email
	}
	if u.profile.Name == "" {
		u.profile.Name = name
	}

	return cloneProfile(&u.profile), nil
}

func (r *userRepo) FindProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return cloneProfile(&u.profile), nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if update.Email != nil && r.emailTaken(userID, *update.Email) {
		return nil, repository.ErrConflict
	}

	u := r.upsert(userID)
	if update.Name != nil {
		u.profile.Name = *update.Name
	}
	if update.Email != nil {
		u.profile.Email = *update.Email
	}
	if update.Bio != nil {
		u.profile.Bio = strPtr(*update.Bio)
	}
	if update.Major != nil {
		u.profile.Major = strPtr(*update.Major)
	}
	if update.GraduationYear != nil {
		u.profile.GraduationYear = strPtr(*update.GraduationYear)
	}
	if update.ProfileImageURL != nil {
		u.profile.ProfileImageURL = strPtr(*update.ProfileImageURL)
	}
	u.counters.UpdatedAt = time.Now().UTC()

	return cloneProfile(&u.profile), nil
}

// emailTaken must be called with the lock held.
func (r *userRepo) emailTaken(userID string, email string) bool {
	if email == "" {
		return false
	}
	for id, u := range r.s.users {
		if id != userID && u.profile.Email == email {
			return true
		}
	}
	return false
}

func cloneProfile(p *model.UserProfile) *model.UserProfile {
	c := *p
	if p.Bio != nil {
		c.Bio = strPtr(*p.Bio)
	}
	if p.Major != nil {
		c.Major = strPtr(*p.Major)
	}
	if p.GraduationYear != nil {
		c.GraduationYear = strPtr(*p.GraduationYear)
	}
	if p.ProfileImageURL != nil {
		c.ProfileImageURL = strPtr(*p.ProfileImageURL)
	}
	return &c
}

func strPtr(s string) *string {
	return &s
}
