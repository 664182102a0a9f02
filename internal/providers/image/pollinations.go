package image

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bannergen/internal/infra"
)

const (
	pollinationsBaseURL      = "https://image.pollinations.ai"
	pollinationsDefaultModel = "flux"
)

// Describer turns a reference image into a short text description.
type Describer interface {
	Describe(ctx context.Context, reference string) (string, error)
}

// Pollinations builds a public URL that renders the image on first fetch.
type Pollinations struct {
	baseURL   string
	model     string
	describer Describer
	logger    *infra.Logger
}

// NewPollinations never fails; describer may be nil.
func NewPollinations(opts Options, describer Describer) *Pollinations {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = pollinationsDefaultModel
	}
	return &Pollinations{
		baseURL:   baseURL(opts.BaseURL, pollinationsBaseURL),
		model:     model,
		describer: describer,
		logger:    opts.logger(),
	}
}

func (p *Pollinations) Name() string { return ProviderPollinations }

func (p *Pollinations) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prompt := p.enrich(ctx, req)
	q := url.Values{}
	q.Set("width", strconv.Itoa(req.Width))
	q.Set("height", strconv.Itoa(req.Height))
	q.Set("seed", strconv.Itoa(req.Seed))
	q.Set("nologo", "true")
	q.Set("model", p.model)
	u := fmt.Sprintf("%s/prompt/%s?%s", p.baseURL, url.PathEscape(prompt), q.Encode())
	return &Image{URL: u, MIME: "image/jpeg", Seed: req.Seed, Prompt: prompt, Provider: ProviderPollinations}, nil
}

// enrich prepends a vision description of the reference image. Any failure
// leaves the prompt unchanged.
func (p *Pollinations) enrich(ctx context.Context, req GenerateRequest) string {
	if p.describer == nil || strings.TrimSpace(req.ReferenceImage) == "" {
		return req.Prompt
	}
	desc, err := describe(ctx, p.describer, req.ReferenceImage)
	if err != nil {
		p.logger.Debug().Err(err).Msg("image: vision enrichment skipped")
		return req.Prompt
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return req.Prompt
	}
	return fmt.Sprintf("Reference character: %s. %s", desc, req.Prompt)
}

var _ Generator = (*Pollinations)(nil)
