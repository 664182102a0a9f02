package domain

import "context"

// BannerRepository persists archived generations.
type BannerRepository interface {
	Create(ctx context.Context, record BannerRecord) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]BannerRecord, error)
}
