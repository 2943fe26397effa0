package service

import (
	"testing"

	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository/redisrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCache_MutationsInvalidate(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, ai.Noop{}, withCache(cache))
	post := f.createPost(t, "author", "cache me #golang")

	_, err := f.svc.Post.FindByID(ctx, post.ID)
	require.NoError(t, err)
	cached, err := redisrepo.Get[model.Post](cache, ctx, redisrepo.PostKey(post.ID.String()))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Empty(t, cached.Likes)

	steps := []struct {
		name   string
		mutate func() error
		check  func(t *testing.T, p *model.Post)
	}{
		{
			name: "like",
			mutate: func() error {
				_, err := f.svc.Post.ToggleLike(ctx, post.ID, "u1")
				return err
			},
			check: func(t *testing.T, p *model.Post) { assert.Equal(t, []string{"u1"}, p.Likes) },
		},
		{
			name: "save",
			mutate: func() error {
				_, err := f.svc.Post.ToggleSave(ctx, post.ID, "u1")
				return err
			},
			check: func(t *testing.T, p *model.Post) { assert.Equal(t, []string{"u1"}, p.SavedBy) },
		},
		{
			name: "comment",
			mutate: func() error {
				_, err := f.svc.Post.AddComment(ctx, post.ID, "u2", "hello")
				return err
			},
			check: func(t *testing.T, p *model.Post) { assert.Len(t, p.Comments, 1) },
		},
		{
			name: "summarize",
			mutate: func() error {
				_, err := f.svc.Post.SummarizePost(ctx, post.ID, "", "")
				return err
			},
			check: func(t *testing.T, p *model.Post) { assert.NotNil(t, p.Summary) },
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			require.NoError(t, step.mutate())

			_, err := cache.Get(ctx, redisrepo.PostKey(post.ID.String())).Result()
			assert.Error(t, err, "mutation must drop the cached post")

			found, err := f.svc.Post.FindByID(ctx, post.ID)
			require.NoError(t, err)
			step.check(t, found)
		})
	}
}

func TestPostCache_DeleteIsTerminal(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, ai.Noop{}, withCache(cache))
	post := f.createPost(t, "author", "gone soon")

	read := make(chan struct{})
	release := make(chan struct{})
	f.posts.holdNextFind(func() {
		close(read)
		<-release
	})

	done := make(chan error, 1)
	go func() {
		// this read loaded the post before the delete and fills the cache after it
		_, err := f.svc.Post.FindByID(ctx, post.ID)
		done <- err
	}()

	<-read
	require.NoError(t, f.svc.Post.Delete(ctx, post.ID, "author"))
	close(release)
	require.NoError(t, <-done)

	_, err := f.svc.Post.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostCache_DeleteAfterCachedRead(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, ai.Noop{}, withCache(cache))
	post := f.createPost(t, "author", "read then delete")

	_, err := f.svc.Post.FindByID(ctx, post.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Post.Delete(ctx, post.ID, "author"))

	_, err = f.svc.Post.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostCache_EnrichmentInvalidates(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, &stubEnricher{summary: "Later."}, withCache(cache))

	post := f.createPost(t, "author", "enrich #later")
	// plant the pre-enrichment snapshot returned by Create
	require.NoError(t, cache.SetJSON(ctx, redisrepo.PostKey(post.ID.String()), post, 0))

	require.NoError(t, f.svc.enrichment.run(ctx, newEnrichmentMsg(dto.CreatePostDto{Content: post.Content}, post.ID)))

	found, err := f.svc.Post.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Summary)
	assert.Equal(t, "Later.", *found.Summary)
	assert.Equal(t, []string{"later"}, found.Tags)
}
