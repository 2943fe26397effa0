// Package tags derives the tag set of a post from its content using three
// fallback tiers: user hashtags, AI tags, and a keyword heuristic.
package tags

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/knownet/post-service/internal/ai"
	"go.uber.org/zap"
)

const (
	keywordMinLen = 5
	keywordLimit  = 3
)

var (
	hashtagRe     = regexp.MustCompile(`#(\w+)`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)

	stopWords = map[string]struct{}{
		"about":  {},
		"there":  {},
		"their":  {},
		"would":  {},
		"could":  {},
		"should": {},
	}

	DefaultTags = []string{"General", "Community"}
)

type Result struct {
	UserTags []string
	// AITags holds either the AI tier or the keyword fallback, whichever produced tags.
	AITags []string
}

// Tags is the final tag list: user tags first, then derived ones, without duplicates.
func (r Result) Tags() []string {
	return Unique(append(append([]string{}, r.UserTags...), r.AITags...))
}

type Deriver struct {
	logger   *zap.Logger
	enricher ai.Enricher
	// supplement asks the AI tier even when the content already has hashtags.
	supplement bool
}

func NewDeriver(logger *zap.Logger, enricher ai.Enricher, supplement bool) *Deriver {
	return &Deriver{
		logger:     logger,
		enricher:   enricher,
		supplement: supplement,
	}
}

// Derive never fails: an AI error is logged and treated as no AI tags.
func (d *Deriver) Derive(ctx context.Context, in ai.Input) Result {
	res := Result{UserTags: Hashtags(in.Content)}

	if len(res.UserTags) == 0 || d.supplement {
		res.AITags = d.aiTags(ctx, in, res.UserTags)
	}

	if len(res.UserTags) == 0 && len(res.AITags) == 0 {
		res.AITags = Keywords(in.Content)
		if len(res.AITags) == 0 {
			res.AITags = append([]string{}, DefaultTags...)
		}
	}

	return res
}

func (d *Deriver) aiTags(ctx context.Context, in ai.Input, exclude []string) []string {
	generated, err := d.enricher.GenerateTags(ctx, in, exclude)
	if err != nil {
		d.logger.Sugar().Errorf("failed to generate AI tags: %s", err.Error())
		return nil
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, t := range exclude {
		excluded[t] = struct{}{}
	}

	out := make([]string, 0, len(generated))
	for _, t := range generated {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := excluded[t]; ok {
			continue
		}
		out = append(out, t)
	}

	return Unique(out)
}

// Hashtags returns the words following '#' in first-seen order.
func Hashtags(content string) []string {
	matches := hashtagRe.FindAllStringSubmatch(content, -1)

	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}

	return Unique(tags)
}

// Keywords is the heuristic tier: the first few distinct long words that are not stop words.
func Keywords(content string) []string {
	cleaned := punctuationRe.ReplaceAllString(strings.ToLower(content), "")

	words := make([]string, 0, keywordLimit)
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) < keywordMinLen {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
		if len(words) == keywordLimit {
			break
		}
	}

	return words
}

// Unique drops repeated strings, keeping the first occurrence. Matching is case-sensitive.
func Unique(s []string) []string {
	m := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))

	for _, v := range s {
		if _, ok := m[v]; !ok {
			m[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}
