package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const geminiDefaultTextModel = "gemini-2.5-flash"

// GeminiVision describes reference images with a text-only model.
type GeminiVision struct {
	models ContentGenerator
	model  string
}

const visionMaxWords = 80

const visionInstruction = "Describe the main character or subject of this image for an illustrator in at most 80 words. " +
	"Mention species or type, colors, clothing, accessories and expression. Output only the description."

func NewGeminiVision(models ContentGenerator, model string) *GeminiVision {
	if strings.TrimSpace(model) == "" {
		model = geminiDefaultTextModel
	}
	return &GeminiVision{models: models, model: model}
}

func (v *GeminiVision) Describe(ctx context.Context, reference string) (string, error) {
	if v == nil || v.models == nil {
		return "", ErrMissingAPIKey
	}
	data, mime, err := DecodeReference(reference)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{
		genai.NewPartFromText(visionInstruction),
		genai.NewPartFromBytes(data, mime),
	}
	resp, err := v.models.GenerateContent(ctx, v.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	text := collectText(resp)
	if text == "" {
		return "", errors.New("gemini vision: empty description")
	}
	return limitWords(text, visionMaxWords), nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String())
}

func limitWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

var _ Describer = (*GeminiVision)(nil)

type describeCacheKey struct{}

type describeCache struct {
	mu      sync.Mutex
	entries map[string]*describeEntry
}

type describeEntry struct {
	once sync.Once
	text string
	err  error
}

// WithDescribeOnce returns a context in which every description of the same
// reference image shares the result of a single Describe call.
func WithDescribeOnce(ctx context.Context) context.Context {
	return context.WithValue(ctx, describeCacheKey{}, &describeCache{entries: make(map[string]*describeEntry)})
}

func describe(ctx context.Context, d Describer, reference string) (string, error) {
	c, ok := ctx.Value(describeCacheKey{}).(*describeCache)
	if !ok {
		return d.Describe(ctx, reference)
	}
	c.mu.Lock()
	e, ok := c.entries[reference]
	if !ok {
		e = &describeEntry{}
		c.entries[reference] = e
	}
	c.mu.Unlock()
	e.once.Do(func() {
		e.text, e.err = d.Describe(ctx, reference)
	})
	return e.text, e.err
}
