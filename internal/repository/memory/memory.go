// Package memory is an in-process implementation of the post and user
// repositories. Every operation runs under one lock, so toggles and paging
// observe a single consistent state.
package memory

import (
	"sync"

	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
)

type Store struct {
	mu    sync.RWMutex
	posts map[string]*model.Post
	users map[string]*userRow
}

// userRow mirrors one row of the users table: counters and profile side by side.
type userRow struct {
	counters model.UserCounters
	profile  model.UserProfile
}

func New() *Store {
	return &Store{
		posts: make(map[string]*model.Post),
		users: make(map[string]*userRow),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() (repository.Post, repository.User) {
	return &postRepo{s: s}, &userRepo{s: s}
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	c.Likes = append([]string{}, p.Likes...)
	c.SavedBy = append([]string{}, p.SavedBy...)
	c.Comments = append([]model.Comment{}, p.Comments...)
	if p.AuthorID != nil {
		a := *p.AuthorID
		c.AuthorID = &a
	}
	if p.ImageURL != nil {
		u := *p.ImageURL
		c.ImageURL = &u
	}
	if p.Summary != nil {
		sm := *p.Summary
		c.Summary = &sm
	}
	return &c
}
