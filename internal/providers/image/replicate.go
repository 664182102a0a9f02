package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bannergen/internal/infra"
)

const (
	replicateBaseURL      = "https://api.replicate.com"
	replicateDefaultModel = "black-forest-labs/flux-schnell"
	replicatePollInterval = time.Second
	replicateMaxAttempts  = 60
)

// ReplicateOptions extends Options with the polling bounds.
type ReplicateOptions struct {
	Options
	// Version pins a model version hash. When empty the model's latest
	// version is used through the models endpoint.
	Version      string
	PollInterval time.Duration
	MaxAttempts  int
}

// Replicate submits an async prediction and polls it to completion.
type Replicate struct {
	apiKey       string
	baseURL      string
	model        string
	version      string
	pollInterval time.Duration
	maxAttempts  int
	client       *http.Client
	logger       *infra.Logger
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func NewReplicate(opts ReplicateOptions) *Replicate {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = replicateDefaultModel
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = replicatePollInterval
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = replicateMaxAttempts
	}
	return &Replicate{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL(opts.BaseURL, replicateBaseURL),
		model:        model,
		version:      strings.TrimSpace(opts.Version),
		pollInterval: interval,
		maxAttempts:  attempts,
		client:       opts.httpClient(),
		logger:       opts.logger(),
	}
}

func (r *Replicate) Name() string { return ProviderReplicate }

func (r *Replicate) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if r.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	pred, err := r.create(ctx, req)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("prediction", pred.ID).Str("model", r.model).Msg("replicate: prediction created")

	for attempt := 0; ; attempt++ {
		switch pred.Status {
		case "succeeded":
			out, err := firstOutputURL(pred.Output)
			if err != nil {
				return nil, err
			}
			return &Image{URL: out, MIME: "image/webp", Seed: req.Seed, Prompt: req.Prompt, Provider: ProviderReplicate}, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("replicate prediction %s %s: %s", pred.ID, pred.Status, predictionError(pred.Error))
		}
		if attempt >= r.maxAttempts {
			return nil, fmt.Errorf("replicate prediction %s: %w after %d attempts", pred.ID, ErrTimeout, r.maxAttempts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
		if pred, err = r.get(ctx, pred); err != nil {
			return nil, err
		}
	}
}

func (r *Replicate) create(ctx context.Context, req GenerateRequest) (*replicatePrediction, error) {
	input := map[string]any{
		"prompt":        req.Prompt,
		"seed":          req.Seed,
		"aspect_ratio":  aspectRatio(req.Width, req.Height),
		"output_format": "webp",
	}
	if req.ReferenceImage != "" {
		mime, payload := SplitDataURL(req.ReferenceImage)
		if mime == "" {
			mime = "image/png"
		}
		input["image"] = "data:" + mime + ";base64," + payload
	}
	payload := map[string]any{"input": input}
	endpoint := r.baseURL + "/v1/models/" + r.model + "/predictions"
	if r.version != "" {
		payload["version"] = r.version
		endpoint = r.baseURL + "/v1/predictions"
	}
	var pred replicatePrediction
	if err := doJSON(ctx, r.client, ProviderReplicate, http.MethodPost, endpoint, r.header(), payload, &pred); err != nil {
		return nil, err
	}
	if pred.ID == "" {
		return nil, errors.New("replicate: prediction id missing")
	}
	return &pred, nil
}

func (r *Replicate) get(ctx context.Context, prev *replicatePrediction) (*replicatePrediction, error) {
	endpoint := prev.URLs.Get
	if endpoint == "" {
		endpoint = r.baseURL + "/v1/predictions/" + url.PathEscape(prev.ID)
	}
	var pred replicatePrediction
	if err := doJSON(ctx, r.client, ProviderReplicate, http.MethodGet, endpoint, r.header(), nil, &pred); err != nil {
		return nil, err
	}
	if pred.ID == "" {
		pred.ID = prev.ID
	}
	return &pred, nil
}

func (r *Replicate) header() http.Header {
	return http.Header{"Authorization": []string{"Bearer " + r.apiKey}}
}

func firstOutputURL(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 && many[0] != "" {
		return many[0], nil
	}
	return "", ErrEmptyResult
}

func predictionError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown error"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// aspectRatio maps pixel dimensions onto the ratios flux models accept.
func aspectRatio(w, h int) string {
	if w <= 0 || h <= 0 || w == h {
		return "1:1"
	}
	if w >= 3*h {
		return "21:9"
	}
	if w > h {
		return "16:9"
	}
	return "9:16"
}

var _ Generator = (*Replicate)(nil)
