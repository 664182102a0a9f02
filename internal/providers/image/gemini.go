package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"bannergen/internal/infra"
)

const (
	geminiDefaultImageModel = "gemini-2.5-flash-image"
	// Anything shorter cannot be a real encoded image.
	minImageBytes = 100
)

// ContentGenerator is the slice of the genai client the providers use.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenAIClient connects to the Gemini API backend.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return client, nil
}

// Gemini generates images through the genai SDK. Every failure is returned
// as an error so that the chain can fall through to the next provider.
type Gemini struct {
	models ContentGenerator
	model  string
	logger *infra.Logger
}

// NewGemini accepts a nil models value; Generate then reports ErrMissingAPIKey.
func NewGemini(models ContentGenerator, opts Options) *Gemini {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultImageModel
	}
	return &Gemini{models: models, model: model, logger: opts.logger()}
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if g.models == nil {
		return nil, ErrMissingAPIKey
	}
	parts := []*genai.Part{genai.NewPartFromText(canvasPrompt(req))}
	if req.ReferenceImage != "" {
		data, mime, err := DecodeReference(req.ReferenceImage)
		if err != nil {
			g.logger.Debug().Err(err).Msg("gemini: reference image ignored")
		} else {
			parts = append(parts, genai.NewPartFromBytes(data, mime))
		}
	}
	seed := int32(req.Seed)
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Seed:               &seed,
	}
	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		if isModalityError(err) {
			return nil, fmt.Errorf("%w: %v", ErrModalityUnsupported, err)
		}
		return nil, fmt.Errorf("gemini: %w", err)
	}
	data, mime, err := extractImage(resp)
	if err != nil {
		return nil, err
	}
	g.logger.Debug().Str("model", g.model).Int("bytes", len(data)).Msg("gemini: image generated")
	return &Image{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIME:     normalizeFormat(mime),
		Seed:     req.Seed,
		Prompt:   req.Prompt,
		Provider: ProviderGemini,
	}, nil
}

// canvasPrompt states the target size in the prompt text, the only place
// the image model reads it from.
func canvasPrompt(req GenerateRequest) string {
	if req.Width <= 0 || req.Height <= 0 {
		return req.Prompt
	}
	return fmt.Sprintf("%s\n\nCompose for a %dx%d canvas.", req.Prompt, req.Width, req.Height)
}

// extractImage returns the first inline image, classifying why there is none.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil {
		return nil, "", ErrEmptyResult
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, "", fmt.Errorf("%w: %s", ErrPromptBlocked, fb.BlockReason)
	}
	sawText := false
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		if cand.FinishReason == genai.FinishReasonSafety {
			return nil, "", ErrSafetyFinish
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil {
				if len(part.InlineData.Data) < minImageBytes {
					return nil, "", fmt.Errorf("%w: %d bytes", ErrMalformedImage, len(part.InlineData.Data))
				}
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
			if strings.TrimSpace(part.Text) != "" {
				sawText = true
			}
		}
	}
	if sawText {
		return nil, "", ErrModalityUnsupported
	}
	return nil, "", ErrEmptyResult
}

func isModalityError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "modalit") || strings.Contains(msg, "only supports text")
}

var _ Generator = (*Gemini)(nil)
