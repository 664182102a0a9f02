package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bannergen/internal/domain"
	"bannergen/internal/quota"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newLedger(start time.Time) (*Ledger, *clock) {
	c := &clock{now: start}
	return NewLedger(quota.NewMemory(c.Now), WithClock(c.Now)), c
}

func TestKeyAndReset(t *testing.T) {
	at := time.Date(2026, 5, 9, 22, 30, 0, 0, time.FixedZone("X", -3*3600))
	if got := Key("wallet1", at); got != "usage:wallet1:2026-05-10" {
		t.Fatalf("Key = %q", got)
	}
	want := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	if got := NextReset(at); !got.Equal(want) {
		t.Fatalf("NextReset = %v, want %v", got, want)
	}
}

func TestCanGenerateByTier(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	tests := []struct {
		name    string
		balance int64
		used    int
		want    bool
	}{
		{name: "below bronze", balance: 999, used: 0, want: false},
		{name: "bronze fresh", balance: 1000, used: 0, want: true},
		{name: "bronze exhausted", balance: 5000, used: 3, want: false},
		{name: "silver remaining", balance: 10_000, used: 9, want: true},
		{name: "whale never capped", balance: 2_000_000, used: 500, want: true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := string(rune('a' + i))
			for j := 0; j < tt.used; j++ {
				if _, err := l.Increment(ctx, wallet); err != nil {
					t.Fatalf("Increment: %v", err)
				}
			}
			got, err := l.CanGenerate(ctx, wallet, decimal.NewFromInt(tt.balance))
			if err != nil {
				t.Fatalf("CanGenerate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanGenerate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReserveStopsAtLimit(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	bronze := domain.TierFromBalance(decimal.NewFromInt(1000))
	for i := 1; i <= bronze.DailyLimit; i++ {
		res, err := l.Reserve(ctx, "w", bronze)
		if err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		if !res.Allowed || res.Usage != i {
			t.Fatalf("reservation %d = %+v", i, res)
		}
	}
	res, err := l.Reserve(ctx, "w", bronze)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.Allowed {
		t.Fatalf("reservation past limit admitted: %+v", res)
	}
	if res.Usage != bronze.DailyLimit {
		t.Fatalf("usage = %d, want %d", res.Usage, bronze.DailyLimit)
	}
	if want := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC); !res.ResetAt.Equal(want) {
		t.Fatalf("ResetAt = %v, want %v", res.ResetAt, want)
	}
}

func TestReserveConcurrentNeverExceedsLimit(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	silver := domain.TierFromBalance(decimal.NewFromInt(10_000))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Reserve(ctx, "w", silver)
			if err == nil && res.Allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != silver.DailyLimit {
		t.Fatalf("granted = %d, want %d", granted, silver.DailyLimit)
	}
}

func TestReserveNoneTierDoesNotCount(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	res, err := l.Reserve(ctx, "w", domain.TierNone)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.Allowed {
		t.Fatalf("tier none admitted")
	}
	if n, _ := l.Usage(ctx, "w"); n != 0 {
		t.Fatalf("usage = %d, want 0", n)
	}
}

func TestUsageResetsAtUTCMidnight(t *testing.T) {
	l, c := newLedger(time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC))
	ctx := context.Background()
	bronze := domain.TierFromBalance(decimal.NewFromInt(1000))
	for i := 0; i < bronze.DailyLimit; i++ {
		l.Reserve(ctx, "w", bronze)
	}
	if ok, _ := l.CanGenerate(ctx, "w", decimal.NewFromInt(1000)); ok {
		t.Fatalf("expected quota exhausted before midnight")
	}
	c.Set(time.Date(2026, 1, 2, 0, 0, 1, 0, time.UTC))
	if n, _ := l.Usage(ctx, "w"); n != 0 {
		t.Fatalf("usage after midnight = %d, want 0", n)
	}
	if ok, _ := l.CanGenerate(ctx, "w", decimal.NewFromInt(1000)); !ok {
		t.Fatalf("expected quota restored after midnight")
	}
}

// A reservation counts as used even if the generation it admitted later fails.
func TestReservationIsNotRolledBack(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	gold := domain.TierFromBalance(decimal.NewFromInt(100_000))
	if _, err := l.Reserve(ctx, "w", gold); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if n, _ := l.Usage(ctx, "w"); n != 1 {
		t.Fatalf("usage = %d, want 1", n)
	}
}

func TestResetClearsToday(t *testing.T) {
	l, _ := newLedger(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	l.Increment(ctx, "w")
	l.Increment(ctx, "w")
	if err := l.Reset(ctx, "w"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := l.Usage(ctx, "w"); n != 0 {
		t.Fatalf("usage after reset = %d", n)
	}
}
