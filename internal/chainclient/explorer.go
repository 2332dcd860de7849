package chainclient

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// HTTPExplorerClient resolves the gas actually spent by a transaction
// through the chain's block-explorer API (Etherscan-family JSON
// endpoints).
type HTTPExplorerClient struct {
	endpoints ChainEndpoints
	transport *guardedTransport
}

func NewHTTPExplorerClient(endpoints ChainEndpoints, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *HTTPExplorerClient {
	return &HTTPExplorerClient{
		endpoints: endpoints,
		transport: newGuardedTransport("explorer", timeout, rps, burst, logger),
	}
}

type explorerReceiptRequest struct {
	Module string `json:"module"`
	Action string `json:"action"`
	TxHash string `json:"txhash"`
}

type explorerReceiptResponse struct {
	Result struct {
		GasUsed string `json:"gasUsed"`
	} `json:"result"`
}

func (c *HTTPExplorerClient) TransactionGasUsed(ctx context.Context, chainID model.ChainID, txHash string) (*big.Int, error) {
	url, err := c.endpoints.For(chainID)
	if err != nil {
		return nil, err
	}

	req := explorerReceiptRequest{Module: "transaction", Action: "gettxreceiptstatus", TxHash: txHash}
	var resp explorerReceiptResponse
	if err := c.transport.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("explorer gas lookup for %s: %w", txHash, err)
	}

	gasUsed, ok := new(big.Int).SetString(resp.Result.GasUsed, 0)
	if !ok {
		return nil, fmt.Errorf("explorer returned unparseable gasUsed %q for %s", resp.Result.GasUsed, txHash)
	}
	return gasUsed, nil
}

// HTTPBlockInfoClient resolves the first block at or after a timestamp
// using the same explorer deployment (Etherscan's getblocknobytime
// endpoint shape).
type HTTPBlockInfoClient struct {
	endpoints ChainEndpoints
	transport *guardedTransport
}

func NewHTTPBlockInfoClient(endpoints ChainEndpoints, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *HTTPBlockInfoClient {
	return &HTTPBlockInfoClient{
		endpoints: endpoints,
		transport: newGuardedTransport("block-info", timeout, rps, burst, logger),
	}
}

type blockAfterRequest struct {
	Module    string `json:"module"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Closest   string `json:"closest"`
}

type blockAfterResponse struct {
	Result string `json:"result"`
}

func (c *HTTPBlockInfoClient) BlockAfterTimestamp(ctx context.Context, chainID model.ChainID, ts time.Time) (int64, error) {
	url, err := c.endpoints.For(chainID)
	if err != nil {
		return 0, err
	}

	req := blockAfterRequest{Module: "block", Action: "getblocknobytime", Timestamp: ts.Unix(), Closest: "after"}
	var resp blockAfterResponse
	if err := c.transport.postJSON(ctx, url, req, &resp); err != nil {
		return 0, fmt.Errorf("block-after-timestamp lookup: %w", err)
	}

	blockNum, err := parseInt64(resp.Result)
	if err != nil {
		return 0, fmt.Errorf("parse block number %q: %w", resp.Result, err)
	}
	return blockNum, nil
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscan(s, &n)
	return n, err
}
