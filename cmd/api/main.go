package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/archive"
	"bannergen/internal/chain"
	"bannergen/internal/domain"
	"bannergen/internal/generation"
	"bannergen/internal/http/handlers"
	httpapi "bannergen/internal/http/httpapi"
	"bannergen/internal/infra"
	"bannergen/internal/infra/geoip"
	"bannergen/internal/middleware"
	"bannergen/internal/providers/image"
	"bannergen/internal/quota"
	"bannergen/internal/storage"
	"bannergen/internal/usage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Counters back both the usage ledger and the IP rate limiter.
	var counter quota.Counter
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		counter = quota.NewRedis(rdb, "bannergen:")
		logger.Info().Msg("counters: redis")
	} else {
		counter = quota.NewMemory(time.Now)
		logger.Warn().Msg("counters: in-memory, limits are per instance")
	}

	var balances chain.BalanceReader = chain.MockReader{}
	if cfg.TokenMintAddress != "" {
		rpc, err := chain.NewRPCReader(chain.Options{
			Endpoint: cfg.SolanaRPCURL,
			Mint:     cfg.TokenMintAddress,
			Logger:   infra.Component(logger, "chain"),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure balance reader")
		}
		balances = rpc
	} else {
		logger.Warn().Msg("TOKEN_MINT_ADDRESS not set, using mock balances")
	}

	// An untyped nil keeps Gemini reporting a missing key per call.
	var models image.ContentGenerator
	if cfg.GeminiAPIKey != "" {
		client, err := image.NewGenAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure gemini client")
		}
		models = client.Models
	}
	images, err := image.BuildChain(image.Config{
		Primary:           cfg.ImageProvider,
		Fallbacks:         cfg.ImageProviderFallbacks,
		PollinationsModel: cfg.PollinationsModel,
		ReplicateAPIKey:   cfg.ReplicateAPIKey,
		ReplicateModel:    cfg.ReplicateModel,
		ReplicateVersion:  cfg.ReplicateVersion,
		BananaAPIKey:      cfg.BananaAPIKey,
		BananaModelKey:    cfg.BananaModelKey,
		StabilityAPIKey:   cfg.StabilityAPIKey,
		StabilityEngine:   cfg.StabilityEngine,
		GeminiModel:       cfg.GeminiImageModel,
		GeminiVisionModel: cfg.GeminiVisionModel,
		MockDelay:         cfg.MockDelay,
	}, models, infra.Component(logger, "image"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image providers")
	}
	logger.Info().
		Str("provider", images.Primary()).
		Strs("fallbacks", images.Fallbacks()).
		Msg("image providers ready")

	history, blobs, staticDir := openStores(ctx, cfg, logger)
	var records archive.RecordStore
	if history != nil {
		records = history
	}
	if !cfg.IsProduction() {
		blobs, records = nil, nil
	}
	archiver := archive.New(archive.Options{
		Blobs:     blobs,
		Records:   records,
		Loader:    archive.NewFetcher(nil, cfg.ImageSourceAllowlist),
		Workers:   cfg.ArchiveWorkers,
		QueueSize: cfg.ArchiveQueueSize,
		Logger:    infra.Component(logger, "archive"),
	})
	if !archiver.Enabled() {
		logger.Info().Bool("production", cfg.IsProduction()).Msg("archive disabled")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	service := generation.NewService(generation.Options{
		Images:     images,
		Balances:   balances,
		Ledger:     usage.NewLedger(counter),
		Archive:    archiver,
		FreeAccess: cfg.FreeAccessActive,
		Logger:     infra.Component(logger, "generation"),
	})

	app := &handlers.App{
		Generator: service,
		Archive:   archiver,
		Provider:  images.Primary(),
		Fallbacks: images.Fallbacks(),
		Version:   cfg.Version,
		Logger:    infra.Component(logger, "http"),
	}
	if history != nil {
		app.History = history
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		Limiter:        middleware.NewLimiter(counter, cfg.RateLimitPerWindow, cfg.RateLimitWindow),
		Country:        resolver.Lookup(),
		TrustedProxies: proxies,
		StaticDir:      staticDir,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := archiver.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("archive queue not drained")
	}
	logger.Info().
		Int64("archived", archiver.Stored()).
		Int64("archive_failures", archiver.Failures()).
		Msg("server stopped")
}

// openStores connects the optional record and blob stores. Postgres wins over
// Supabase for records and S3 wins over the local filesystem for blobs.
// staticDir is set when the filesystem store is in use.
func openStores(ctx context.Context, cfg *infra.Config, logger infra.Logger) (history domain.BannerRepository, blobs archive.BlobStore, staticDir string) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		pg := repo.NewBannerRepository(infra.NewSQLRunner(pool, logger))
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure banners table")
		}
		history = pg
	case cfg.SupabaseURL != "" && cfg.SupabaseKey != "":
		sb, err := archive.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTable)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure supabase")
		}
		history = sb
	}

	switch {
	case cfg.S3Endpoint != "":
		s3, err := archive.NewMinIOStore(ctx, archive.MinIOConfig{
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure object storage")
		}
		blobs = s3
	case cfg.StoragePath != "":
		path := cfg.StoragePath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		fs, err := storage.NewFileStore(path, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure storage")
		}
		blobs = fs
		staticDir = path
	}
	return history, blobs, staticDir
}
