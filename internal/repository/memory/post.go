package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
)

type postRepo struct {
	s *Store
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Tags = []string{}
	post.Likes = []string{}
	post.SavedBy = []string{}
	post.Comments = []model.Comment{}
	post.Summary = nil

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.posts[post.ID.String()] = clonePost(&post)

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return clonePost(p), nil
}

// sorted returns the posts matching keep, newest first. Callers hold the lock.
func (r *postRepo) sorted(keep func(p *model.Post) bool) []*model.Post {
	out := []*model.Post{}
	for _, p := range r.s.posts {
		if keep == nil || keep(p) {
			out = append(out, clonePost(p))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

func (r *postRepo) FindAll(ctx context.Context, limit int, skip int) (*model.PostsPage, error) {
	repository.ClampLimit(&limit, &skip)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.sorted(nil)
	page := &model.PostsPage{Total: int64(len(all)), Posts: []*model.Post{}}
	if skip < len(all) {
		end := skip + limit
		if end > len(all) {
			end = len(all)
		}
		page.Posts = all[skip:end]
	}

	return page, nil
}

func (r *postRepo) FindByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(p *model.Post) bool {
		return p.AuthorID != nil && *p.AuthorID == authorID
	}), nil
}

func (r *postRepo) FindLikedBy(ctx context.Context, userID string) ([]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(p *model.Post) bool {
		return contains(p.Likes, userID)
	}), nil
}

func (r *postRepo) FindSavedBy(ctx context.Context, userID string) ([]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(p *model.Post) bool {
		return contains(p.SavedBy, userID)
	}), nil
}

func (r *postRepo) ToggleLike(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error) {
	return r.toggle(id, userID, func(p *model.Post) *[]string { return &p.Likes })
}

func (r *postRepo) ToggleSave(ctx context.Context, id uuid.UUID, userID string) (*model.ToggleResult, error) {
	return r.toggle(id, userID, func(p *model.Post) *[]string { return &p.SavedBy })
}

func (r *postRepo) toggle(id uuid.UUID, userID string, set func(p *model.Post) *[]string) (*model.ToggleResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}

	members := set(p)
	added := !contains(*members, userID)
	if added {
		*members = append(*members, userID)
	} else {
		*members = remove(*members, userID)
	}
	p.UpdatedAt = time.Now().UTC()

	return &model.ToggleResult{Post: clonePost(p), Added: added}, nil
}

func (r *postRepo) AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) (*model.Post, error) {
	return r.update(id, func(p *model.Post) {
		p.Comments = append(p.Comments, comment)
	})
}

func (r *postRepo) SetEnrichment(ctx context.Context, id uuid.UUID, tags []string, summary *string) (*model.Post, error) {
	return r.update(id, func(p *model.Post) {
		p.Tags = append([]string{}, tags...)
		if summary != nil {
			s := *summary
			p.Summary = &s
		} else {
			p.Summary = nil
		}
	})
}

func (r *postRepo) SetSummary(ctx context.Context, id uuid.UUID, summary string) (*model.Post, error) {
	return r.update(id, func(p *model.Post) {
		p.Summary = &summary
	})
}

func (r *postRepo) update(id uuid.UUID, f func(p *model.Post)) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}

	f(p)
	p.UpdatedAt = time.Now().UTC()

	return clonePost(p), nil
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID, authorID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id.String()]
	if !ok || !p.IsAuthoredBy(authorID) {
		return 0, repository.ErrNotFound
	}

	delete(r.s.posts, id.String())

	return int64(len(p.Likes)), nil
}

func (r *postRepo) UniqueTags(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	tags := []string{}
	for _, p := range r.s.posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)

	return tags, nil
}

func (r *postRepo) TotalLikesForAuthor(ctx context.Context, authorID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total int64
	for _, p := range r.s.posts {
		if p.IsAuthoredBy(authorID) {
			total += int64(len(p.Likes))
		}
	}

	return total, nil
}

func (r *postRepo) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, p := range r.s.posts {
		if p.IsAuthoredBy(authorID) {
			count++
		}
	}

	return count, nil
}

// Search ranks posts by how many query terms appear in their content or tags.
func (r *postRepo) Search(ctx context.Context, query string, limit int) ([]*model.Post, error) {
	terms := strings.Fields(strings.ToLower(query))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type hit struct {
		post *model.Post
		rank int
	}

	hits := []hit{}
	for _, p := range r.sorted(nil) {
		doc := strings.ToLower(p.Content + " " + strings.Join(p.Tags, " "))
		rank := 0
		for _, t := range terms {
			rank += strings.Count(doc, t)
		}
		if rank > 0 {
			hits = append(hits, hit{post: p, rank: rank})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].rank > hits[j].rank
	})

	posts := []*model.Post{}
	for i := 0; i < len(hits) && i < limit; i++ {
		posts = append(posts, hits[i].post)
	}

	return posts, nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func remove(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
