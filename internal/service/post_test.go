package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	f := newFixture(t, ai.Noop{})

	t.Run("empty content", func(t *testing.T) {
		_, err := f.svc.Post.Create(ctx, dto.CreatePostDto{Content: "   "})
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("returns before enrichment", func(t *testing.T) {
		post, err := f.svc.Post.Create(ctx, dto.CreatePostDto{AuthorID: strPtr("u1"), Content: "Loving #physics"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, post.ID)
		assert.Equal(t, "u1", *post.AuthorID)

		f.svc.Wait()
		stored, err := f.svc.Post.FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"physics"}, stored.Tags)
		assert.EqualValues(t, 1, f.counters(t, "u1").PostsCount)
	})

	t.Run("anonymous post touches no counters", func(t *testing.T) {
		post := f.createPost(t, "", "anonymous thoughts")
		assert.Nil(t, post.AuthorID)
	})
}

func TestPostService_FindByID(t *testing.T) {
	f := newFixture(t, ai.Noop{})

	_, err := f.svc.Post.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_FindAll(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	for i := 0; i < 3; i++ {
		f.createPost(t, "u1", "some content here")
	}

	page, err := f.svc.Post.FindAll(ctx, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Posts, 2)
}

func TestPostService_ToggleLike(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	post := f.createPost(t, "author", "a post worth liking")

	liked, err := f.svc.Post.ToggleLike(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, liked.Likes)
	assert.EqualValues(t, 1, f.counters(t, "author").LikesReceived)

	unliked, err := f.svc.Post.ToggleLike(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
	assert.EqualValues(t, 0, f.counters(t, "author").LikesReceived)

	_, err = f.svc.Post.ToggleLike(ctx, uuid.New(), "u1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_ToggleLikeConcurrent(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	post := f.createPost(t, "author", "a popular post")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Post.ToggleLike(ctx, post.ID, uuid.NewString())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.svc.Post.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Likes, 20)
	assert.EqualValues(t, 20, f.counters(t, "author").LikesReceived)
}

func TestPostService_ToggleSave(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	post := f.createPost(t, "author", "save me for later")

	saved, err := f.svc.Post.ToggleSave(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, saved.SavedBy)

	unsaved, err := f.svc.Post.ToggleSave(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, unsaved.SavedBy)

	// saves never move counters
	assert.Equal(t, int64(0), f.counters(t, "author").LikesReceived)
}

func TestPostService_AddComment(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	post := f.createPost(t, "author", "comment on this")

	updated, err := f.svc.Post.AddComment(ctx, post.ID, "u2", "first")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "u2", updated.Comments[0].UserID)
	assert.Equal(t, "first", updated.Comments[0].Content)
	assert.False(t, updated.Comments[0].CreatedAt.IsZero())

	_, err = f.svc.Post.AddComment(ctx, uuid.New(), "u2", "lost")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_UserQueries(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	p1 := f.createPost(t, "alice", "alice writes #golang")
	p2 := f.createPost(t, "bob", "bob writes #rust")

	_, err := f.svc.Post.ToggleLike(ctx, p1.ID, "carol")
	require.NoError(t, err)
	_, err = f.svc.Post.ToggleSave(ctx, p2.ID, "carol")
	require.NoError(t, err)

	byAlice, err := f.svc.Post.GetPostsByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byAlice, 1)
	assert.Equal(t, p1.ID, byAlice[0].ID)

	liked, err := f.svc.Post.GetLikedPosts(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, p1.ID, liked[0].ID)

	saved, err := f.svc.Post.GetSavedPosts(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, p2.ID, saved[0].ID)

	tags, err := f.svc.Post.GetUniqueTags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"golang", "rust"}, tags)
}

func TestPostService_GetTotalLikesForUser(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	p1 := f.createPost(t, "alice", "first post")
	p2 := f.createPost(t, "alice", "second post")

	for _, u := range []string{"u1", "u2"} {
		_, err := f.svc.Post.ToggleLike(ctx, p1.ID, u)
		require.NoError(t, err)
	}
	_, err := f.svc.Post.ToggleLike(ctx, p2.ID, "u3")
	require.NoError(t, err)

	// drift the cached counter; the total is recomputed from posts
	require.NoError(t, f.repo.User.IncrCounters(ctx, "alice", model.CounterDelta{LikesReceived: 40}))

	total, err := f.svc.Post.GetTotalLikesForUser(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	total, err = f.svc.Post.GetTotalLikesForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPostService_Search(t *testing.T) {
	f := newFixture(t, ai.Noop{})
	f.createPost(t, "u1", "notes about #physics finals")
	f.createPost(t, "u1", "cooking dinner tonight")

	t.Run("blank query skips the store", func(t *testing.T) {
		for _, q := range []string{"", "   "} {
			posts, err := f.svc.Post.Search(ctx, q)
			require.NoError(t, err)
			assert.NotNil(t, posts)
			assert.Empty(t, posts)
		}
		assert.Zero(t, f.posts.searches.Load())
	})

	t.Run("matches content", func(t *testing.T) {
		posts, err := f.svc.Post.Search(ctx, "physics")
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Contains(t, posts[0].Content, "physics")
		assert.EqualValues(t, 1, f.posts.searches.Load())
	})
}

func TestPostService_SummarizePost(t *testing.T) {
	t.Run("stores summary and counts it", func(t *testing.T) {
		f := newFixture(t, &stubEnricher{summary: "A short summary."})
		post := f.createPost(t, "author", "long text to summarize")

		updated, err := f.svc.Post.SummarizePost(ctx, post.ID, "reader", "token")
		require.NoError(t, err)
		require.NotNil(t, updated.Summary)
		assert.Equal(t, "A short summary.", *updated.Summary)
		assert.EqualValues(t, 1, f.counters(t, "reader").AISummariesCount)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		f := newFixture(t, &stubEnricher{summary: "Summary."})
		post := f.createPost(t, "author", "long text to summarize")

		_, err := f.svc.Post.SummarizePost(ctx, post.ID, "", "")
		require.NoError(t, err)
		assert.Zero(t, f.counters(t, "author").AISummariesCount)
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t, &stubEnricher{summaryErr: errors.New("quota exceeded")})
		post := f.createPost(t, "author", "long text to summarize")

		_, err := f.svc.Post.SummarizePost(ctx, post.ID, "reader", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAI)

		var aiErr *AIError
		require.ErrorAs(t, err, &aiErr)
		assert.Equal(t, "AI Error: quota exceeded", aiErr.Error())
		assert.Zero(t, f.counters(t, "reader").AISummariesCount)
	})

	t.Run("missing post", func(t *testing.T) {
		f := newFixture(t, &stubEnricher{summary: "x"})
		_, err := f.svc.Post.SummarizePost(ctx, uuid.New(), "reader", "")
		assert.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("unconfigured capability", func(t *testing.T) {
		f := newFixture(t, ai.Noop{})
		post := f.createPost(t, "author", "long text to summarize")

		updated, err := f.svc.Post.SummarizePost(ctx, post.ID, "", "")
		require.NoError(t, err)
		require.NotNil(t, updated.Summary)
		assert.Empty(t, *updated.Summary)
	})
}

func TestPostService_Delete(t *testing.T) {
	t.Run("author deletes and counters follow", func(t *testing.T) {
		f := newFixture(t, ai.Noop{})
		post := f.createPost(t, "author", "to be deleted")
		for _, u := range []string{"u1", "u2", "u3"} {
			_, err := f.svc.Post.ToggleLike(ctx, post.ID, u)
			require.NoError(t, err)
		}

		before := f.counters(t, "author")
		require.EqualValues(t, 1, before.PostsCount)
		require.EqualValues(t, 3, before.LikesReceived)

		require.NoError(t, f.svc.Post.Delete(ctx, post.ID, "author"))

		after := f.counters(t, "author")
		assert.Equal(t, before.PostsCount-1, after.PostsCount)
		assert.Equal(t, before.LikesReceived-3, after.LikesReceived)

		page, err := f.svc.Post.FindAll(ctx, 10, 0)
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		_, err = f.svc.Post.FindByID(ctx, post.ID)
		assert.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("non-owner is rejected and nothing changes", func(t *testing.T) {
		f := newFixture(t, ai.Noop{})
		post := f.createPost(t, "author", "mine only")
		_, err := f.svc.Post.ToggleLike(ctx, post.ID, "u1")
		require.NoError(t, err)
		before := f.counters(t, "author")

		err = f.svc.Post.Delete(ctx, post.ID, "intruder")
		assert.ErrorIs(t, err, ErrNotPostAuthor)

		stored, err := f.svc.Post.FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, stored.Likes)
		assert.Equal(t, before, f.counters(t, "author"))
	})

	t.Run("ownerless post cannot be deleted", func(t *testing.T) {
		f := newFixture(t, ai.Noop{})
		post := f.createPost(t, "", "nobody owns this")

		err := f.svc.Post.Delete(ctx, post.ID, "someone")
		assert.ErrorIs(t, err, ErrNotPostAuthor)
	})

	t.Run("missing post", func(t *testing.T) {
		f := newFixture(t, ai.Noop{})
		err := f.svc.Post.Delete(ctx, uuid.New(), "author")
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestPostService_CounterFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t, ai.Noop{}, func(r *repository.Repository) {
		r.User = failingUserRepo{User: r.User}
	})

	post, err := f.svc.Post.Create(ctx, dto.CreatePostDto{AuthorID: strPtr("author"), Content: "still created"})
	require.NoError(t, err)

	liked, err := f.svc.Post.ToggleLike(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, liked.Likes)

	require.NoError(t, f.svc.Post.Delete(ctx, post.ID, "author"))
	f.svc.Wait()

	assert.Zero(t, f.counters(t, "author").PostsCount)
}
