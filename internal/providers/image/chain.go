package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bannergen/internal/infra"
)

// Attempt records one provider call made by a Chain.
type Attempt struct {
	Provider string
	Err      error
}

// Result is what a Chain returns on success.
type Result struct {
	Image    *Image
	Provider string
	Attempts []Attempt
}

// Chain tries providers in order until one produces an image.
type Chain struct {
	providers []Generator
	logger    *infra.Logger
}

func NewChain(logger *infra.Logger, providers ...Generator) (*Chain, error) {
	var list []Generator
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	if len(list) == 0 {
		return nil, errors.New("image: chain needs at least one provider")
	}
	if logger == nil {
		logger = Options{}.logger()
	}
	return &Chain{providers: list, logger: logger}, nil
}

// Primary is the first configured provider.
func (c *Chain) Primary() string { return c.providers[0].Name() }

// Fallbacks lists the providers after the primary.
func (c *Chain) Fallbacks() []string {
	out := make([]string, 0, len(c.providers)-1)
	for _, p := range c.providers[1:] {
		out = append(out, p.Name())
	}
	return out
}

// Generate returns the first successful image. Context cancellation stops
// the chain; every other error moves on to the next provider. When all fail
// the last provider's error is returned.
func (c *Chain) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	res := &Result{}
	var lastErr error
	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		img, err := p.Generate(ctx, req)
		if err == nil && img == nil {
			err = ErrEmptyResult
		}
		res.Attempts = append(res.Attempts, Attempt{Provider: p.Name(), Err: err})
		if err == nil {
			if img.Provider == "" {
				img.Provider = p.Name()
			}
			res.Image = img
			res.Provider = p.Name()
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		lastErr = err
		if i < len(c.providers)-1 {
			c.logger.Warn().Err(err).
				Str("provider", p.Name()).
				Str("next", c.providers[i+1].Name()).
				Msg("image: provider failed, falling back")
		}
	}
	return res, lastErr
}

// Summary renders attempts for logs and error details.
func (r *Result) Summary() string {
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if a.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
		} else {
			parts = append(parts, a.Provider+": ok")
		}
	}
	return strings.Join(parts, "; ")
}
