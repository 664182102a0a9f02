package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"bannergen/internal/domain"
)

// SupabaseStore writes banner rows through the Supabase REST API.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

// NewSupabaseStore builds a store for the given table using a service key.
func NewSupabaseStore(url, serviceKey, table string) (*SupabaseStore, error) {
	url = strings.TrimSpace(url)
	serviceKey = strings.TrimSpace(serviceKey)
	if url == "" || serviceKey == "" {
		return nil, errors.New("archive: supabase url and key are required")
	}
	if table == "" {
		table = "banners"
	}
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("archive: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client, table: table}, nil
}

// Create inserts one record.
func (s *SupabaseStore) Create(ctx context.Context, record domain.BannerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(s.table).
		Insert(record, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("supabase insert %s: %w", record.ID, err)
	}
	return nil
}

// ListByWallet returns the newest records for a wallet.
func (s *SupabaseStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.BannerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("wallet_address", wallet).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("supabase select: %w", err)
	}
	return decodeRecords(data, limit)
}

func decodeRecords(data []byte, limit int) ([]domain.BannerRecord, error) {
	var records []domain.BannerRecord
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode banner rows: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ domain.BannerRepository = (*SupabaseStore)(nil)
