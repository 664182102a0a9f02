package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bannergen/internal/domain"
	"bannergen/internal/infra"
	"bannergen/internal/sqlinline"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// BannerRepositoryPG stores generated banners in PostgreSQL.
type BannerRepositoryPG struct {
	db infra.SQLExecutor
}

func NewBannerRepository(db infra.SQLExecutor) *BannerRepositoryPG {
	return &BannerRepositoryPG{db: db}
}

// EnsureSchema creates the banners table when missing.
func (r *BannerRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QEnsureBannersTable); err != nil {
		return fmt.Errorf("ensure banners schema: %w", err)
	}
	return nil
}

// Create inserts a record. Re-inserting the same id is a no-op.
func (r *BannerRepositoryPG) Create(ctx context.Context, b domain.BannerRecord) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertBanner,
		b.ID, b.WalletAddress, b.TokenName, b.Ticker, b.Style, b.OutputType, b.RecipeID,
		b.Seed, b.Prompt, b.ImageURL, b.StorageKey, b.Provider, b.Country, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert banner %s: %w", b.ID, err)
	}
	return nil
}

// ListByWallet returns the newest records for wallet.
func (r *BannerRepositoryPG) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.BannerRecord, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, domain.ErrWalletRequired
	}
	rows, err := r.db.Query(ctx, sqlinline.QListBannersByWallet, wallet, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	var out []domain.BannerRecord
	for rows.Next() {
		var b domain.BannerRecord
		if err := rows.Scan(&b.ID, &b.WalletAddress, &b.TokenName, &b.Ticker, &b.Style, &b.OutputType, &b.RecipeID,
			&b.Seed, &b.Prompt, &b.ImageURL, &b.StorageKey, &b.Provider, &b.Country, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan banner: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByWallet returns how many banners a wallet has stored.
func (r *BannerRepositoryPG) CountByWallet(ctx context.Context, wallet string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sqlinline.QCountBannersByWallet, wallet).Scan(&n); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count banners: %w", err)
	}
	return n, nil
}

// ClampLimit bounds page sizes for history queries.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

var _ domain.BannerRepository = (*BannerRepositoryPG)(nil)
