package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bannergen/internal/infra"
)

const defaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

// Options configures the JSON-RPC reader.
type Options struct {
	Endpoint   string
	Mint       string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// RPCReader sums a wallet's token accounts for one mint over Solana JSON-RPC.
type RPCReader struct {
	endpoint   string
	mint       string
	httpClient *http.Client
	logger     *infra.Logger
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tokenAccountsResponse struct {
	Result *struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								UIAmountString string `json:"uiAmountString"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

func NewRPCReader(opts Options) (*RPCReader, error) {
	mint := strings.TrimSpace(opts.Mint)
	if mint == "" {
		return nil, fmt.Errorf("chain: mint address is required")
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultRPCEndpoint
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return &RPCReader{endpoint: endpoint, mint: mint, httpClient: client, logger: logger}, nil
}

// Balance returns the summed UI amount, or zero on any failure.
func (r *RPCReader) Balance(ctx context.Context, wallet string) decimal.Decimal {
	if strings.TrimSpace(wallet) == "" {
		return decimal.Zero
	}
	total, err := r.fetch(ctx, wallet)
	if err != nil {
		r.logger.Warn().Err(err).Str("wallet", wallet).Msg("chain: balance lookup failed")
		return decimal.Zero
	}
	return total
}

func (r *RPCReader) fetch(ctx context.Context, wallet string) (decimal.Decimal, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTokenAccountsByOwner",
		Params: []any{
			wallet,
			map[string]string{"mint": r.mint},
			map[string]string{"encoding": "jsonParsed"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return decimal.Zero, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invoke rpc: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("rpc status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out tokenAccountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode rpc response: %w", err)
	}
	if out.Error != nil {
		return decimal.Zero, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return decimal.Zero, fmt.Errorf("rpc response missing result")
	}

	total := decimal.Zero
	for _, acc := range out.Result.Value {
		raw := acc.Account.Data.Parsed.Info.TokenAmount.UIAmountString
		if raw == "" {
			continue
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}

	r.logger.Debug().Str("wallet", wallet).Str("balance", total.String()).Msg("chain: balance resolved")
	return total, nil
}

var _ BalanceReader = (*RPCReader)(nil)
