// Package generation runs a banner request end to end: access gating,
// validation, the per-variant fan-out to the provider chain, and hand-off of
// finished assets to the archive.
package generation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bannergen/internal/archive"
	"bannergen/internal/chain"
	"bannergen/internal/domain"
	"bannergen/internal/infra"
	"bannergen/internal/prompt"
	"bannergen/internal/providers/image"
	"bannergen/internal/style"
	"bannergen/internal/usage"
)

// ImageSource produces one image for a prompt. *image.Chain implements it.
type ImageSource interface {
	Generate(ctx context.Context, req image.GenerateRequest) (*image.Result, error)
}

// Submitter accepts finished assets for persistence. *archive.Archiver
// implements it.
type Submitter interface {
	Submit(job archive.Job) bool
}

// Options wires a Service.
type Options struct {
	Images   ImageSource
	Balances chain.BalanceReader
	Ledger   *usage.Ledger
	Archive  Submitter
	// FreeAccess reports whether gating is suspended at the given instant.
	FreeAccess func(time.Time) bool
	Logger     *infra.Logger
	Now        func() time.Time
	// Seed draws a variant seed in [0, domain.MaxSeed].
	Seed  func() int
	NewID func() string
}

// Meta carries request facts that are not part of the JSON body.
type Meta struct {
	Country   string
	RequestID string
}

// Service is safe for concurrent use.
type Service struct {
	images     ImageSource
	balances   chain.BalanceReader
	ledger     *usage.Ledger
	archive    Submitter
	freeAccess func(time.Time) bool
	logger     *infra.Logger
	now        func() time.Time
	seed       func() int
	newID      func() string
}

func NewService(opts Options) *Service {
	s := &Service{
		images:     opts.Images,
		balances:   opts.Balances,
		ledger:     opts.Ledger,
		archive:    opts.Archive,
		freeAccess: opts.FreeAccess,
		logger:     opts.Logger,
		now:        opts.Now,
		seed:       opts.Seed,
		newID:      opts.NewID,
	}
	if s.freeAccess == nil {
		s.freeAccess = func(time.Time) bool { return false }
	}
	if s.logger == nil {
		nop := zerolog.Nop()
		s.logger = &nop
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.seed == nil {
		s.seed = func() int { return rand.IntN(domain.MaxSeed + 1) }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Generate admits, validates and fulfils one request. Assets come back in
// variant order with each primary directly followed by its companion.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest, meta Meta) ([]domain.GeneratedAsset, error) {
	now := s.now()
	if !s.freeAccess(now) {
		if err := s.admit(ctx, req.WalletAddress); err != nil {
			return nil, err
		}
	}

	job, err := normalize(req)
	if err != nil {
		return nil, err
	}
	job.country = meta.Country

	variants := domain.ClampVariantCount(req.VariantCount)
	results := make([][]domain.GeneratedAsset, variants)

	g, gctx := errgroup.WithContext(image.WithDescribeOnce(ctx))
	for i := 0; i < variants; i++ {
		seed := s.seed()
		g.Go(func() error {
			assets, err := s.runVariant(gctx, job, seed)
			if err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			results[i] = assets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", meta.RequestID).
			Str("token", job.tokenName).
			Msg("generation: request failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	out := make([]domain.GeneratedAsset, 0, variants*2)
	for _, r := range results {
		out = append(out, r...)
	}
	s.logger.Info().
		Str("request_id", meta.RequestID).
		Str("style", string(job.style)).
		Str("output_type", string(job.outputType)).
		Int("variants", variants).
		Int("assets", len(out)).
		Msg("generation: completed")
	return out, nil
}

// admit enforces the wallet, tier and daily quota rules and consumes one
// unit of quota. Consumed quota is not returned when generation later fails.
func (s *Service) admit(ctx context.Context, wallet string) error {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return &domain.GateError{
			Err:     domain.ErrWalletRequired,
			Message: "Connect a wallet holding the token to generate banners",
		}
	}
	balance := decimal.Zero
	if s.balances != nil {
		balance = s.balances.Balance(ctx, wallet)
	}
	tier := domain.TierFromBalance(balance)
	if tier.IsNone() {
		return &domain.GateError{
			Err:        domain.ErrInsufficientTier,
			Message:    fmt.Sprintf("Hold at least %s tokens to generate banners", domain.Tiers()[0].MinBalance.String()),
			Tier:       tier.Name,
			Balance:    balance.String(),
			DailyLimit: tier.DailyLimit,
		}
	}
	if s.ledger == nil {
		return nil
	}
	res, err := s.ledger.Reserve(ctx, wallet, tier)
	if err != nil {
		// Usage store outages admit the request.
		s.logger.Warn().Err(err).Str("wallet", wallet).Msg("generation: usage store unavailable, admitting")
		return nil
	}
	if !res.Allowed {
		retry := res.ResetAt.Sub(s.now())
		if retry < time.Second {
			retry = time.Second
		}
		return &domain.GateError{
			Err:        domain.ErrQuotaExceeded,
			Message:    fmt.Sprintf("Daily limit of %d generations reached for the %s tier", tier.DailyLimit, tier.Name),
			Tier:       tier.Name,
			Balance:    balance.String(),
			Usage:      res.Usage,
			DailyLimit: tier.DailyLimit,
			RetryAfter: retry,
		}
	}
	s.logger.Debug().
		Str("wallet", wallet).
		Str("tier", tier.Name).
		Int("usage", res.Usage).
		Msg("generation: admitted")
	return nil
}

// runVariant generates the primary asset and, when asked, its companion with
// the same seed. The primary is handed to the archive before the companion
// is requested.
func (s *Service) runVariant(ctx context.Context, job request, seed int) ([]domain.GeneratedAsset, error) {
	types := []domain.OutputType{job.outputType}
	if job.companion {
		types = append(types, job.outputType.Companion())
	}
	assets := make([]domain.GeneratedAsset, 0, len(types))
	for _, ot := range types {
		asset, err := s.generateOne(ctx, job, seed, ot)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *Service) generateOne(ctx context.Context, job request, seed int, ot domain.OutputType) (domain.GeneratedAsset, error) {
	recipe := style.Select(job.style, job.recipeID, &seed)
	cfg := prompt.NewMatrixConfig(recipe, job.chaosLevel, job.context())
	text := prompt.Build(prompt.Input{
		TokenName:      job.tokenName,
		Ticker:         job.ticker,
		Tagline:        job.tagline,
		CreativePrompt: job.creativePrompt,
		Style:          job.style,
		Config:         cfg,
		Seed:           seed,
		OutputType:     ot,
	})
	width, height := ot.Dimensions()

	res, err := s.images.Generate(ctx, image.GenerateRequest{
		Prompt:         text,
		Seed:           seed,
		Width:          width,
		Height:         height,
		ReferenceImage: job.referenceImage,
	})
	if err != nil {
		return domain.GeneratedAsset{}, fmt.Errorf("%s: %w", ot, err)
	}
	if res == nil || res.Image == nil {
		return domain.GeneratedAsset{}, fmt.Errorf("%s: %w", ot, image.ErrEmptyResult)
	}

	asset := domain.GeneratedAsset{
		ID:         s.newID(),
		ImageURL:   res.Image.Src(),
		Seed:       seed,
		Prompt:     text,
		Style:      job.style,
		OutputType: ot,
		RecipeID:   recipe.ID,
		Provider:   res.Provider,
	}
	if len(res.Attempts) > 1 {
		s.logger.Info().
			Str("asset_id", asset.ID).
			Str("attempts", res.Summary()).
			Msg("generation: served by fallback provider")
	}
	s.submit(job, asset)
	return asset, nil
}

func (s *Service) submit(job request, asset domain.GeneratedAsset) {
	if s.archive == nil {
		return
	}
	s.archive.Submit(archive.Job{
		Record: domain.BannerRecord{
			ID:            asset.ID,
			WalletAddress: job.wallet,
			TokenName:     job.tokenName,
			Ticker:        job.ticker,
			Style:         asset.Style,
			OutputType:    asset.OutputType,
			RecipeID:      asset.RecipeID,
			Seed:          asset.Seed,
			Prompt:        asset.Prompt,
			Provider:      asset.Provider,
			Country:       job.country,
			CreatedAt:     s.now().UTC(),
		},
		Image: asset.ImageURL,
	})
}
