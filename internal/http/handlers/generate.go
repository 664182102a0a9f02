package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"bannergen/internal/domain"
	"bannergen/internal/generation"
	"bannergen/internal/middleware"
)

// maxGenerateBody bounds the request body; reference images arrive inline.
const maxGenerateBody = 12 << 20

type generateResponse struct {
	Success bool                    `json:"success"`
	Banners []domain.GeneratedAsset `json:"banners"`
}

// generateError is the failure body. Gating fields are only set for access errors.
type generateError struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	Field            string `json:"field,omitempty"`
	RequiresWallet   bool   `json:"requiresWallet,omitempty"`
	InsufficientTier bool   `json:"insufficientTier,omitempty"`
	QuotaExceeded    bool   `json:"quotaExceeded,omitempty"`
	Tier             string `json:"tier,omitempty"`
	Balance          string `json:"balance,omitempty"`
	Usage            *int   `json:"usage,omitempty"`
	DailyLimit       *int   `json:"dailyLimit,omitempty"`
	RetryAfter       int    `json:"retryAfter,omitempty"`
	Details          string `json:"details,omitempty"`
}

type archiveInfo struct {
	Enabled  bool  `json:"enabled"`
	Failures int64 `json:"failures"`
}

type generateInfo struct {
	Status    string      `json:"status"`
	Provider  string      `json:"provider"`
	Fallbacks []string    `json:"fallbacks"`
	Version   string      `json:"version"`
	Archive   archiveInfo `json:"archive"`
}

// GenerateInfo answers GET /generate.
func (a *App) GenerateInfo(w http.ResponseWriter, r *http.Request) {
	info := generateInfo{
		Status:    "ok",
		Provider:  a.Provider,
		Fallbacks: a.Fallbacks,
		Version:   a.Version,
	}
	if info.Fallbacks == nil {
		info.Fallbacks = []string{}
	}
	if a.Archive != nil {
		info.Archive = archiveInfo{Enabled: a.Archive.Enabled(), Failures: a.Archive.Failures()}
	}
	a.json(w, http.StatusOK, info)
}

// Generate answers POST /generate.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody))
	if err := dec.Decode(&req); err != nil {
		a.json(w, http.StatusBadRequest, generateError{Error: "Invalid JSON body"})
		return
	}

	meta := generation.Meta{
		Country:   middleware.CountryFromContext(r.Context()),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}
	assets, err := a.Generator.Generate(r.Context(), req, meta)
	if err != nil {
		a.generateFailed(w, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{Success: true, Banners: assets})
}

func (a *App) generateFailed(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		a.json(w, http.StatusBadRequest, generateError{Error: verr.Message, Field: verr.Field})
		return
	}

	var gate *domain.GateError
	if errors.As(err, &gate) {
		body := generateError{Error: gate.Error(), Tier: gate.Tier, Balance: gate.Balance}
		status := http.StatusForbidden
		switch {
		case errors.Is(err, domain.ErrWalletRequired):
			status = http.StatusUnauthorized
			body.RequiresWallet = true
		case errors.Is(err, domain.ErrInsufficientTier):
			body.InsufficientTier = true
			body.DailyLimit = intPtr(gate.DailyLimit)
		case errors.Is(err, domain.ErrQuotaExceeded):
			status = http.StatusTooManyRequests
			body.QuotaExceeded = true
			body.Usage = intPtr(gate.Usage)
			body.DailyLimit = intPtr(gate.DailyLimit)
			body.RetryAfter = int(math.Ceil(gate.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
		}
		a.json(w, status, body)
		return
	}

	a.log().Error().Err(err).Msg("generate: failed")
	a.json(w, http.StatusInternalServerError, generateError{
		Error:   rootMessage(err),
		Details: err.Error(),
	})
}

// rootMessage returns the innermost error text, which is the provider's own
// message for upstream failures.
func rootMessage(err error) string {
	for {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			if errs := u.Unwrap(); len(errs) > 0 {
				next = errs[len(errs)-1]
			}
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		}
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func intPtr(v int) *int { return &v }
