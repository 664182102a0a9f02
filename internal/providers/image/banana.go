package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const bananaBaseURL = "https://api.banana.dev"

// Banana calls a hosted model synchronously and returns its base64 image.
type Banana struct {
	apiKey   string
	modelKey string
	baseURL  string
	client   *http.Client
}

type bananaRequest struct {
	APIKey      string         `json:"apiKey"`
	ModelKey    string         `json:"modelKey"`
	ModelInputs map[string]any `json:"modelInputs"`
}

type bananaResponse struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	ModelOutputs []struct {
		ImageBase64 string `json:"image_base64"`
	} `json:"modelOutputs"`
}

// NewBanana uses opts.Model as the banana model key.
func NewBanana(opts Options) *Banana {
	return &Banana{
		apiKey:   strings.TrimSpace(opts.APIKey),
		modelKey: strings.TrimSpace(opts.Model),
		baseURL:  baseURL(opts.BaseURL, bananaBaseURL),
		client:   opts.httpClient(),
	}
}

func (b *Banana) Name() string { return ProviderBanana }

func (b *Banana) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if b.apiKey == "" || b.modelKey == "" {
		return nil, ErrMissingAPIKey
	}
	inputs := map[string]any{
		"prompt":              req.Prompt,
		"seed":                req.Seed,
		"width":               req.Width,
		"height":              req.Height,
		"num_inference_steps": 30,
		"guidance_scale":      7.5,
	}
	if req.ReferenceImage != "" {
		_, payload := SplitDataURL(req.ReferenceImage)
		inputs["init_image"] = payload
	}
	var out bananaResponse
	err := doJSON(ctx, b.client, ProviderBanana, http.MethodPost, b.baseURL+"/start/v4/", nil,
		bananaRequest{APIKey: b.apiKey, ModelKey: b.modelKey, ModelInputs: inputs}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.ModelOutputs) == 0 || out.ModelOutputs[0].ImageBase64 == "" {
		if out.Message != "" && !strings.EqualFold(out.Message, "success") {
			return nil, fmt.Errorf("banana: %s", out.Message)
		}
		return nil, errors.Join(ErrEmptyResult, fmt.Errorf("banana call %s", out.ID))
	}
	mime, payload := SplitDataURL(out.ModelOutputs[0].ImageBase64)
	return &Image{Base64: payload, MIME: normalizeFormat(mime), Seed: req.Seed, Prompt: req.Prompt, Provider: ProviderBanana}, nil
}

var _ Generator = (*Banana)(nil)
