package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/knownet/post-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGemini(t *testing.T, h http.HandlerFunc) *Gemini {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewGemini(config.AIConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
		Timeout: time.Second * 5,
	}, zap.NewNop())
}

func answer(w http.ResponseWriter, text string) {
	resp := geminiResponse{}
	resp.Candidates = append(resp.Candidates, struct {
		Content geminiContent `json:"content"`
	}{Content: geminiContent{Parts: []geminiPart{{Text: text}}}})
	_ = json.NewEncoder(w).Encode(resp)
}

func TestGemini_GenerateSummary(t *testing.T) {
	var got geminiRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		answer(w, "  Students are preparing for finals.  ")
	})

	summary, err := g.GenerateSummary(context.Background(), Input{
		Content: "finals week",
		Image:   &Image{Data: []byte{1, 2, 3}, MimeType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Students are preparing for finals.", summary)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Contains(t, got.Contents[0].Parts[0].Text, "finals week")
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, []byte{1, 2, 3}, got.Contents[0].Parts[1].InlineData.Data)
}

func TestGemini_GenerateSummary_Errors(t *testing.T) {
	t.Run("EmptyResponse", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			answer(w, "   ")
		})

		_, err := g.GenerateSummary(context.Background(), Input{Content: "x"})
		require.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("ProviderError", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
		})

		_, err := g.GenerateSummary(context.Background(), Input{Content: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("NonJSONError", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})

		_, err := g.GenerateSummary(context.Background(), Input{Content: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestGemini_GenerateTags(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		answer(w, "physics, #exams,  , study, physics, campus, library, coffee")
	})

	tags, err := g.GenerateTags(context.Background(), Input{Content: "x"}, []string{"campus"})
	require.NoError(t, err)
	assert.Equal(t, []string{"physics", "exams", "study", "library", "coffee"}, tags)
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		exclude []string
		want    []string
	}{
		{name: "Empty", text: "", want: []string{}},
		{name: "Newlines", text: "ai\ncoding\n", want: []string{"ai", "coding"}},
		{name: "Exclude", text: "ai, coding", exclude: []string{"ai"}, want: []string{"coding"}},
		{name: "Cap", text: "a,b,c,d,e,f,g", want: []string{"a", "b", "c", "d", "e"}},
		{name: "CaseSensitive", text: "Go, go", want: []string{"Go", "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.text, tt.exclude))
		})
	}
}

type failingEnricher struct {
	calls int
}

func (f *failingEnricher) GenerateSummary(ctx context.Context, in Input) (string, error) {
	f.calls++
	return "", errors.New("provider down")
}

func (f *failingEnricher) GenerateTags(ctx context.Context, in Input, exclude []string) ([]string, error) {
	f.calls++
	return nil, errors.New("provider down")
}

func TestWithBreaker_TripsOpen(t *testing.T) {
	next := &failingEnricher{}
	e := WithBreaker(next, "test", config.BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := e.GenerateSummary(context.Background(), Input{Content: "x"})
		require.Error(t, err)
	}

	_, err := e.GenerateTags(context.Background(), Input{Content: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the provider")
}

func TestNew_SelectsNoopWithoutKey(t *testing.T) {
	e := New(config.AIConfig{}, zap.NewNop())
	assert.IsType(t, Noop{}, e)

	summary, err := e.GenerateSummary(context.Background(), Input{Content: "x"})
	require.NoError(t, err)
	assert.Empty(t, summary)
}
