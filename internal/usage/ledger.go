// Package usage tracks per-wallet daily generation counts.
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bannergen/internal/domain"
	"bannergen/internal/quota"
)

const keyPrefix = "usage:"

// Reservation is the outcome of an atomic quota check.
type Reservation struct {
	Allowed bool
	Tier    domain.Tier
	// Usage is the count after the reservation, or the current count when rejected.
	Usage   int
	ResetAt time.Time
}

// Ledger counts generation attempts per wallet per UTC day. Counts are
// incremented when a request is admitted and never rolled back.
type Ledger struct {
	counter quota.Counter
	now     func() time.Time
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(counter quota.Counter, opts ...Option) *Ledger {
	l := &Ledger{counter: counter, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the counter key for a wallet on the given day.
func Key(wallet string, day time.Time) string {
	return keyPrefix + strings.TrimSpace(wallet) + ":" + day.UTC().Format("2006-01-02")
}

// NextReset returns the next UTC midnight after t.
func NextReset(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// Usage returns today's count for wallet.
func (l *Ledger) Usage(ctx context.Context, wallet string) (int, error) {
	e, err := l.counter.Get(ctx, Key(wallet, l.now()))
	if err != nil {
		return 0, fmt.Errorf("usage: read %s: %w", wallet, err)
	}
	return int(e.Count), nil
}

// Increment records one attempt and returns the new count.
func (l *Ledger) Increment(ctx context.Context, wallet string) (int, error) {
	now := l.now()
	e, err := l.counter.Incr(ctx, Key(wallet, now), NextReset(now))
	if err != nil {
		return 0, fmt.Errorf("usage: increment %s: %w", wallet, err)
	}
	return int(e.Count), nil
}

// CanGenerate reports whether a wallet holding balance may generate now.
// It does not consume quota.
func (l *Ledger) CanGenerate(ctx context.Context, wallet string, balance decimal.Decimal) (bool, error) {
	tier := domain.TierFromBalance(balance)
	if tier.IsNone() {
		return false, nil
	}
	if tier.Unbounded() {
		return true, nil
	}
	n, err := l.Usage(ctx, wallet)
	if err != nil {
		return false, err
	}
	return n < tier.DailyLimit, nil
}

// Reserve checks the tier's daily limit and records the attempt in a single
// atomic step. Unlimited tiers are still counted.
func (l *Ledger) Reserve(ctx context.Context, wallet string, tier domain.Tier) (Reservation, error) {
	now := l.now()
	res := Reservation{Tier: tier, ResetAt: NextReset(now)}
	if tier.IsNone() {
		n, err := l.Usage(ctx, wallet)
		res.Usage = n
		return res, err
	}
	limit := int64(tier.DailyLimit)
	if tier.Unbounded() {
		limit = quota.NoLimit
	}
	e, ok, err := l.counter.IncrBelow(ctx, Key(wallet, now), limit, res.ResetAt)
	if err != nil {
		return res, fmt.Errorf("usage: reserve %s: %w", wallet, err)
	}
	res.Allowed = ok
	res.Usage = int(e.Count)
	return res, nil
}

// Reset clears today's count for wallet.
func (l *Ledger) Reset(ctx context.Context, wallet string) error {
	if err := l.counter.Delete(ctx, Key(wallet, l.now())); err != nil {
		return fmt.Errorf("usage: reset %s: %w", wallet, err)
	}
	return nil
}
