package chainclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// HTTPPriceOracleClient serves daily PSP/native exchange-rate points
// per spec.md §6.
type HTTPPriceOracleClient struct {
	baseURL   string
	transport *guardedTransport
}

func NewHTTPPriceOracleClient(baseURL string, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *HTTPPriceOracleClient {
	return &HTTPPriceOracleClient{
		baseURL:   baseURL,
		transport: newGuardedTransport("price-oracle", timeout, rps, burst, logger),
	}
}

type dailyRatesRequest struct {
	ChainID   int64 `json:"chainId"`
	FromUnix  int64 `json:"from"`
	ToUnix    int64 `json:"to"`
}

type ratePoint struct {
	Timestamp        int64  `json:"timestamp"`
	PSPPriceUSD      string `json:"pspPriceUsd"`
	ChainPriceUSD    string `json:"chainPriceUsd"`
	PSPPerNativeRate string `json:"pspPerNativeRate"`
}

type dailyRatesResponse struct {
	Points []ratePoint `json:"points"`
}

func (c *HTTPPriceOracleClient) DailyRates(ctx context.Context, chainID model.ChainID, from, to time.Time) ([]model.PricePoint, error) {
	req := dailyRatesRequest{ChainID: int64(chainID), FromUnix: from.Unix(), ToUnix: to.Unix()}
	var resp dailyRatesResponse
	if err := c.transport.postJSON(ctx, c.baseURL+"/rates", req, &resp); err != nil {
		return nil, fmt.Errorf("price oracle daily rates: %w", err)
	}

	out := make([]model.PricePoint, 0, len(resp.Points))
	for _, p := range resp.Points {
		pspUSD, err := decimal.NewFromString(p.PSPPriceUSD)
		if err != nil {
			return nil, fmt.Errorf("parse pspPriceUsd %q: %w", p.PSPPriceUSD, err)
		}
		chainUSD, err := decimal.NewFromString(p.ChainPriceUSD)
		if err != nil {
			return nil, fmt.Errorf("parse chainPriceUsd %q: %w", p.ChainPriceUSD, err)
		}
		pspPerNative, err := decimal.NewFromString(p.PSPPerNativeRate)
		if err != nil {
			return nil, fmt.Errorf("parse pspPerNativeRate %q: %w", p.PSPPerNativeRate, err)
		}
		out = append(out, model.PricePoint{
			ChainID:          chainID,
			Timestamp:        time.Unix(p.Timestamp, 0).UTC(),
			PSPPriceUSD:      pspUSD,
			ChainPriceUSD:    chainUSD,
			PSPPerNativeRate: pspPerNative,
		})
	}
	return out, nil
}

// HTTPStakeSourceClient exposes an address's staked PSP balance from one
// stake source (SPSP or safety module), backing internal/stake.Source.
type HTTPStakeSourceClient struct {
	baseURL   string
	transport *guardedTransport
}

func NewHTTPStakeSourceClient(baseURL string, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *HTTPStakeSourceClient {
	return &HTTPStakeSourceClient{
		baseURL:   baseURL,
		transport: newGuardedTransport("stake-source", timeout, rps, burst, logger),
	}
}

type balanceBatchRequestItem struct {
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
}

type balanceBatchRequest struct {
	Requests []balanceBatchRequestItem `json:"requests"`
}

type balanceBatchResponse struct {
	// Balances is keyed by StakeBalanceKey(address, timestamp).
	Balances map[string]string `json:"balances"`
}

// BatchBalanceAt fetches every requested address/timestamp point in one
// HTTP round trip, so a preload covering an entire ingestion slice costs
// exactly one collaborator call instead of one per swap.
func (c *HTTPStakeSourceClient) BatchBalanceAt(ctx context.Context, requests []StakeBalanceRequest) (map[string]string, error) {
	if len(requests) == 0 {
		return map[string]string{}, nil
	}

	req := balanceBatchRequest{Requests: make([]balanceBatchRequestItem, len(requests))}
	for i, r := range requests {
		req.Requests[i] = balanceBatchRequestItem{Address: r.Address, Timestamp: r.Timestamp.Unix()}
	}

	var resp balanceBatchResponse
	if err := c.transport.postJSON(ctx, c.baseURL+"/balance/batch", req, &resp); err != nil {
		return nil, fmt.Errorf("batch stake source balance lookup for %d addresses: %w", len(requests), err)
	}
	return resp.Balances, nil
}
