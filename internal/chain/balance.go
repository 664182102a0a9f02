// Package chain reads SPL token balances used for tier gating.
package chain

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceReader returns a wallet's holdings of the gating token. Readers
// never fail: anything they cannot determine is reported as zero.
type BalanceReader interface {
	Balance(ctx context.Context, wallet string) decimal.Decimal
}

// mockLadder is indexed by the wallet's byte sum so that test wallets land
// on every tier.
var mockLadder = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.NewFromInt(1_500),
	decimal.NewFromInt(25_000),
	decimal.NewFromInt(250_000),
	decimal.NewFromInt(2_000_000),
}

// MockReader derives a stable balance from the address bytes.
type MockReader struct{}

func (MockReader) Balance(_ context.Context, wallet string) decimal.Decimal {
	if wallet == "" {
		return decimal.Zero
	}
	sum := 0
	for i := 0; i < len(wallet); i++ {
		sum += int(wallet[i])
	}
	base := mockLadder[sum%len(mockLadder)]
	if base.IsZero() {
		return base
	}
	return base.Add(decimal.NewFromInt(int64(sum % 1000)))
}

var _ BalanceReader = MockReader{}
