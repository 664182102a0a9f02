package image

import (
	"fmt"
	"strings"
	"time"

	"bannergen/internal/infra"
)

// Config selects and configures providers once per process.
type Config struct {
	Primary   string
	Fallbacks []string

	PollinationsModel string

	ReplicateAPIKey  string
	ReplicateModel   string
	ReplicateVersion string

	BananaAPIKey   string
	BananaModelKey string

	StabilityAPIKey string
	StabilityEngine string

	GeminiModel       string
	GeminiVisionModel string

	MockDelay time.Duration
}

// ProviderNames lists every backend the registry can build.
func ProviderNames() []string {
	return []string{ProviderPollinations, ProviderReplicate, ProviderBanana, ProviderStability, ProviderGemini, ProviderMock}
}

// Order returns the provider sequence: the primary, then explicit
// fallbacks, or pollinations alone behind a gemini primary. Duplicates are dropped.
func (c Config) Order() []string {
	primary := strings.ToLower(strings.TrimSpace(c.Primary))
	if primary == "" {
		primary = ProviderPollinations
	}
	fallbacks := c.Fallbacks
	if len(fallbacks) == 0 && primary == ProviderGemini {
		fallbacks = []string{ProviderPollinations}
	}
	seen := map[string]bool{primary: true}
	order := []string{primary}
	for _, f := range fallbacks {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		order = append(order, f)
	}
	return order
}

// BuildChain constructs the configured providers. models may be nil when no
// Gemini key is configured.
func BuildChain(cfg Config, models ContentGenerator, logger *infra.Logger) (*Chain, error) {
	var vision Describer
	if models != nil {
		vision = NewGeminiVision(models, cfg.GeminiVisionModel)
	}
	var providers []Generator
	for _, name := range cfg.Order() {
		g, err := build(name, cfg, models, vision, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}
	return NewChain(logger, providers...)
}

func build(name string, cfg Config, models ContentGenerator, vision Describer, logger *infra.Logger) (Generator, error) {
	base := Options{Logger: logger}
	switch name {
	case ProviderPollinations:
		o := base
		o.Model = cfg.PollinationsModel
		return NewPollinations(o, vision), nil
	case ProviderReplicate:
		o := base
		o.APIKey, o.Model = cfg.ReplicateAPIKey, cfg.ReplicateModel
		return NewReplicate(ReplicateOptions{Options: o, Version: cfg.ReplicateVersion}), nil
	case ProviderBanana:
		o := base
		o.APIKey, o.Model = cfg.BananaAPIKey, cfg.BananaModelKey
		return NewBanana(o), nil
	case ProviderStability:
		o := base
		o.APIKey, o.Model = cfg.StabilityAPIKey, cfg.StabilityEngine
		return NewStability(o), nil
	case ProviderGemini:
		o := base
		o.Model = cfg.GeminiModel
		return NewGemini(models, o), nil
	case ProviderMock:
		return NewMock(cfg.MockDelay), nil
	default:
		return nil, fmt.Errorf("image: unknown provider %q, want one of %s", name, strings.Join(ProviderNames(), ", "))
	}
}
