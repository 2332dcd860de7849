package chainclient

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// HTTPSubgraphClient queries the deployed swaps subgraph over plain
// HTTP+JSON. No GraphQL client library exists anywhere in the
// reference set, so the request body is a hand-built JSON object
// carrying a query string, the same shape any GraphQL-over-HTTP
// endpoint accepts.
type HTTPSubgraphClient struct {
	endpoints ChainEndpoints
	transport *guardedTransport
}

func NewHTTPSubgraphClient(endpoints ChainEndpoints, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *HTTPSubgraphClient {
	return &HTTPSubgraphClient{
		endpoints: endpoints,
		transport: newGuardedTransport("subgraph", timeout, rps, burst, logger),
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type subgraphSwap struct {
	TxHash      string `json:"txHash"`
	BlockNumber string `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	Timestamp   string `json:"timestamp"`
	Initiator   string `json:"initiator"`
	TxOrigin    string `json:"txOrigin"`
	TxGasPrice  string `json:"txGasPrice"`
	Contract    string `json:"contract"`
}

type subgraphSwapsResponse struct {
	Data struct {
		Swaps []subgraphSwap `json:"swaps"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const swapsQuery = `query Swaps($fromBlock: Int!, $toBlock: Int!) {
  swaps(where: { blockNumber_gte: $fromBlock, blockNumber_lte: $toBlock }, orderBy: blockNumber, orderDirection: asc) {
    txHash
    blockNumber
    blockHash
    timestamp
    initiator
    txOrigin
    txGasPrice
    contract
  }
}`

func (c *HTTPSubgraphClient) SwapsInRange(ctx context.Context, chainID model.ChainID, fromBlock, toBlock int64) ([]RawSwap, error) {
	url, err := c.endpoints.For(chainID)
	if err != nil {
		return nil, err
	}

	req := graphqlRequest{
		Query: swapsQuery,
		Variables: map[string]interface{}{
			"fromBlock": fromBlock,
			"toBlock":   toBlock,
		},
	}

	var resp subgraphSwapsResponse
	if err := c.transport.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("subgraph swaps query: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("subgraph returned errors: %s", resp.Errors[0].Message)
	}

	out := make([]RawSwap, 0, len(resp.Data.Swaps))
	for _, s := range resp.Data.Swaps {
		blockNum, err := parseInt64(s.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("parse blockNumber %q: %w", s.BlockNumber, err)
		}
		unixTs, err := parseInt64(s.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", s.Timestamp, err)
		}
		gasPrice, ok := new(big.Int).SetString(s.TxGasPrice, 0)
		if !ok {
			return nil, fmt.Errorf("parse txGasPrice %q: %w", s.TxGasPrice, err)
		}
		out = append(out, RawSwap{
			TxHash:      s.TxHash,
			BlockNumber: blockNum,
			BlockHash:   s.BlockHash,
			Timestamp:   time.Unix(unixTs, 0).UTC(),
			Initiator:   s.Initiator,
			TxOrigin:    s.TxOrigin,
			TxGasPrice:  gasPrice,
			Contract:    s.Contract,
		})
	}
	return out, nil
}
