package image

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	stabilityBaseURL      = "https://api.stability.ai"
	stabilityDefaultModel = "stable-diffusion-xl-1024-v1-0"
)

// Stability calls the v1 text-to-image endpoint.
type Stability struct {
	apiKey  string
	engine  string
	baseURL string
	client  *http.Client
}

type stabilityPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts []stabilityPrompt `json:"text_prompts"`
	CfgScale    float64           `json:"cfg_scale"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Steps       int               `json:"steps"`
	Samples     int               `json:"samples"`
	Seed        int               `json:"seed"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int    `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

func NewStability(opts Options) *Stability {
	engine := strings.TrimSpace(opts.Model)
	if engine == "" {
		engine = stabilityDefaultModel
	}
	return &Stability{
		apiKey:  strings.TrimSpace(opts.APIKey),
		engine:  engine,
		baseURL: baseURL(opts.BaseURL, stabilityBaseURL),
		client:  opts.httpClient(),
	}
}

func (s *Stability) Name() string { return ProviderStability }

func (s *Stability) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	body := stabilityRequest{
		TextPrompts: []stabilityPrompt{{Text: req.Prompt, Weight: 1}},
		CfgScale:    7,
		Width:       roundTo64(req.Width),
		Height:      roundTo64(req.Height),
		Steps:       30,
		Samples:     1,
		Seed:        req.Seed,
	}
	header := http.Header{"Authorization": []string{"Bearer " + s.apiKey}}
	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", s.baseURL, s.engine)
	var out stabilityResponse
	if err := doJSON(ctx, s.client, ProviderStability, http.MethodPost, endpoint, header, body, &out); err != nil {
		return nil, err
	}
	if len(out.Artifacts) == 0 {
		return nil, ErrEmptyResult
	}
	art := out.Artifacts[0]
	if art.FinishReason == "CONTENT_FILTERED" {
		return nil, ErrSafetyFinish
	}
	if art.Base64 == "" {
		return nil, ErrEmptyResult
	}
	return &Image{Base64: art.Base64, MIME: "image/png", Seed: req.Seed, Prompt: req.Prompt, Provider: ProviderStability}, nil
}

// roundTo64 snaps a dimension to the nearest multiple of 64, at least 64.
func roundTo64(v int) int {
	r := ((v + 32) / 64) * 64
	if r < 64 {
		return 64
	}
	return r
}

var _ Generator = (*Stability)(nil)
