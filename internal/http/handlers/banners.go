package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/domain"
)

type bannersResponse struct {
	Success bool                  `json:"success"`
	Banners []domain.BannerRecord `json:"banners"`
}

// Banners lists archived banners for ?wallet=, newest first.
func (a *App) Banners(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "Banner history is not enabled")
		return
	}
	wallet := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if wallet == "" {
		a.error(w, http.StatusBadRequest, "wallet is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}
	records, err := a.History.ListByWallet(r.Context(), wallet, repo.ClampLimit(limit))
	if err != nil {
		a.log().Error().Err(err).Str("wallet", wallet).Msg("banners: list failed")
		a.error(w, http.StatusInternalServerError, "Failed to load banners")
		return
	}
	if records == nil {
		records = []domain.BannerRecord{}
	}
	a.json(w, http.StatusOK, bannersResponse{Success: true, Banners: records})
}
