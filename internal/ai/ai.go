// Package ai provides the text enrichment capability: summaries and topical
// tags generated from post content.
package ai

import (
	"context"
	"strings"

	"github.com/knownet/post-service/internal/config"
	"go.uber.org/zap"
)

const (
	minTags = 2
	maxTags = 5
)

type Image struct {
	Data     []byte
	MimeType string
}

type Input struct {
	Content string
	// Image is forwarded for multimodal generation when present.
	Image *Image
	// Credential identifies the caller for quota attribution. It is never required.
	Credential string
}

type Enricher interface {
	GenerateSummary(ctx context.Context, in Input) (string, error)
	GenerateTags(ctx context.Context, in Input, exclude []string) ([]string, error)
}

// New selects the enricher once at startup: Gemini behind a circuit breaker
// when an API key is configured, otherwise the no-op stub.
func New(cfg config.AIConfig, logger *zap.Logger) Enricher {
	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not found, AI enrichment is disabled")
		return Noop{}
	}

	logger.Sugar().Infof("Initializing Gemini enrichment with model %s", cfg.Model)

	return WithBreaker(NewGemini(cfg, logger), "gemini", cfg.Breaker, logger)
}

// Noop never produces enrichment and never fails.
type Noop struct{}

func (Noop) GenerateSummary(ctx context.Context, in Input) (string, error) {
	return "", nil
}

func (Noop) GenerateTags(ctx context.Context, in Input, exclude []string) ([]string, error) {
	return nil, nil
}

// ParseTags turns a comma or newline separated model answer into at most
// maxTags distinct tags, skipping anything listed in exclude.
func ParseTags(text string, exclude []string) []string {
	excluded := make(map[string]struct{}, len(exclude))
	for _, t := range exclude {
		excluded[t] = struct{}{}
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	tags := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tag := strings.TrimSpace(f)
		tag = strings.TrimPrefix(tag, "#")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := excluded[tag]; ok {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	return tags
}
