package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
	"bannergen/internal/generation"
	"bannergen/internal/infra"
)

// Generator runs one generation request. *generation.Service implements it.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest, meta generation.Meta) ([]domain.GeneratedAsset, error)
}

// ArchiveStatus exposes archive health. *archive.Archiver implements it.
type ArchiveStatus interface {
	Enabled() bool
	Failures() int64
}

// App holds the dependencies shared by every handler.
type App struct {
	Generator Generator
	// History is nil when no record store is configured.
	History   domain.BannerRepository
	Archive   ArchiveStatus
	Provider  string
	Fallbacks []string
	Version   string
	Logger    *infra.Logger
}

func (a *App) log() *infra.Logger {
	if a.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return a.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorResponse{Success: false, Error: message})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
