package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/knownet/post-service/internal/config"
	"go.uber.org/zap"
)

var ErrEmptyResponse = errors.New("gemini returned an empty response")

const (
	summaryPrompt = "You are a helpful assistant. Please provide a concise, one-sentence summary of the following content: %s"
	tagsPrompt    = "You are a helpful assistant that extracts tags from text. Return between %d and %d short topical tags as a comma-separated list, e.g. 'tech, ai, coding'. Do not include any other text.%s\n\nContent: %s"
)

type Gemini struct {
	logger     *zap.Logger
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(cfg config.AIConfig, logger *zap.Logger) *Gemini {
	return &Gemini{
		logger:  logger,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) GenerateSummary(ctx context.Context, in Input) (string, error) {
	if in.Credential != "" {
		g.logger.Debug("Generating summary on behalf of an authenticated user")
	} else {
		g.logger.Debug("Generating summary for an anonymous/system request")
	}

	text, err := g.generate(ctx, fmt.Sprintf(summaryPrompt, in.Content), in.Image)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

func (g *Gemini) GenerateTags(ctx context.Context, in Input, exclude []string) ([]string, error) {
	var excludeHint string
	if len(exclude) > 0 {
		excludeHint = fmt.Sprintf(" Do not repeat these existing tags: %s.", strings.Join(exclude, ", "))
	}

	text, err := g.generate(ctx, fmt.Sprintf(tagsPrompt, minTags, maxTags, excludeHint, in.Content), in.Image)
	if err != nil {
		return nil, err
	}

	return ParseTags(text, exclude), nil
}

func (g *Gemini) generate(ctx context.Context, prompt string, image *Image) (string, error) {
	parts := []geminiPart{{Text: prompt}}
	if image != nil && len(image.Data) > 0 {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MimeType: image.MimeType, Data: image.Data},
		})
	}

	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("/v1beta/models/%s:generateContent", g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to do gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response body: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini endpoint(%s) returned status %d", endpoint, resp.StatusCode)
		}
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini endpoint(%s) returned status %d: %s", endpoint, resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini endpoint(%s) returned status %d", endpoint, resp.StatusCode)
	}

	var sb strings.Builder
	for _, c := range parsed.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}

	return sb.String(), nil
}
