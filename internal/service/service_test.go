package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"github.com/knownet/post-service/internal/repository/memory"
	"github.com/knownet/post-service/internal/repository/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ctx = context.Background()

func strPtr(s string) *string { return &s }

// stubEnricher returns canned results and counts calls.
type stubEnricher struct {
	summary    string
	summaryErr error
	tags       []string
	tagsErr    error
	calls      atomic.Int32
}

func (e *stubEnricher) GenerateSummary(ctx context.Context, in ai.Input) (string, error) {
	e.calls.Add(1)
	return e.summary, e.summaryErr
}

func (e *stubEnricher) GenerateTags(ctx context.Context, in ai.Input, exclude []string) ([]string, error) {
	e.calls.Add(1)
	return ai.ParseTags(strings.Join(e.tags, ","), exclude), e.tagsErr
}

// spyPostRepo counts Search calls and can hold one FindByID after its read.
type spyPostRepo struct {
	repository.Post
	searches atomic.Int32

	mu   sync.Mutex
	hold func()
}

func (r *spyPostRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	post, err := r.Post.FindByID(ctx, id)

	r.mu.Lock()
	hold := r.hold
	r.hold = nil
	r.mu.Unlock()
	if hold != nil {
		hold()
	}

	return post, err
}

func (r *spyPostRepo) holdNextFind(hold func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hold = hold
}

func (r *spyPostRepo) Search(ctx context.Context, query string, limit int) ([]*model.Post, error) {
	r.searches.Add(1)
	return r.Post.Search(ctx, query, limit)
}

// failingUserRepo rejects every counter update.
type failingUserRepo struct {
	repository.User
}

func (failingUserRepo) IncrCounters(ctx context.Context, userID string, delta model.CounterDelta) error {
	return errors.New("counter store unavailable")
}

// mapCache is an in-memory stand-in for redis with the same absent-only semantics.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mapCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(b)
	return nil
}

func (m *mapCache) SetJSONNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = string(b)
	return true, nil
}

func (m *mapCache) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func withCache(cache redisrepo.Default) func(*repository.Repository) {
	return func(r *repository.Repository) {
		r.Redis = &redisrepo.RedisRepository{Default: cache}
	}
}

type fixture struct {
	svc   *Service
	repo  *repository.Repository
	posts *spyPostRepo
}

func newFixture(t *testing.T, enricher ai.Enricher, opts ...func(*repository.Repository)) *fixture {
	t.Helper()

	return newFixtureWithConfig(t, enricher, config.DefaultServiceConfig(), opts...)
}

func newFixtureWithConfig(t *testing.T, enricher ai.Enricher, cfg config.ServiceConfig, opts ...func(*repository.Repository)) *fixture {
	t.Helper()

	postRepo, userRepo := memory.New().Repositories()
	spy := &spyPostRepo{Post: postRepo}
	repo := repository.New(spy, userRepo, redisrepo.NewNop())
	for _, opt := range opts {
		opt(repo)
	}

	cfg.Ledger.UpdateTimeout = time.Second
	cfg.Enrichment.JobTimeout = time.Second

	svc := New(zap.NewNop(), repo, enricher, nil, cfg)
	t.Cleanup(svc.Wait)

	return &fixture{svc: svc, repo: repo, posts: spy}
}

func (f *fixture) createPost(t *testing.T, author string, content string) *model.Post {
	t.Helper()

	input := dto.CreatePostDto{Content: content}
	if author != "" {
		input.AuthorID = strPtr(author)
	}

	post, err := f.svc.Post.Create(ctx, input)
	require.NoError(t, err)
	f.svc.Wait()

	return post
}

func (f *fixture) counters(t *testing.T, userID string) model.UserCounters {
	t.Helper()

	f.svc.Wait()
	counters, err := f.repo.User.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.UserCounters{ID: userID}
	}
	require.NoError(t, err)

	return *counters
}

func fileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["image"][0]
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
