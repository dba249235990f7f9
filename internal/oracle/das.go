package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Solstice-Labs/HolderPerks/internal/utils"
)

// DASClient counts a wallet's holdings in one collection through a DAS
// (Digital Asset Standard) indexer endpoint.
//
// Every transport, HTTP or parse failure degrades to a zero count. The
// ledger always receives a best-effort integer; an indexer outage shows up
// as "holds nothing", not as an error. The degradation is logged so
// operators can tell the two apart.
type DASClient struct {
	endpoint   string
	collection string
	httpClient *http.Client
}

func NewDASClient(endpoint, collection string) *DASClient {
	return &DASClient{
		endpoint:   endpoint,
		collection: collection,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type searchAssetsRequest struct {
	Jsonrpc string             `json:"jsonrpc"`
	ID      int                `json:"id"`
	Method  string             `json:"method"`
	Params  searchAssetsParams `json:"params"`
}

type searchAssetsParams struct {
	OwnerAddress string   `json:"ownerAddress"`
	Grouping     []string `json:"grouping"`
	Page         int      `json:"page"`
	Limit        int      `json:"limit"`
}

type searchAssetsResponse struct {
	Result struct {
		Total int `json:"total"`
	} `json:"result"`
}

// QualifyingAssets implements ledger.Oracle.
func (c *DASClient) QualifyingAssets(ctx context.Context, wallet string) int {
	logger := utils.GetLogger()

	body, err := json.Marshal(searchAssetsRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "searchAssets",
		Params: searchAssetsParams{
			OwnerAddress: wallet,
			Grouping:     []string{"collection", c.collection},
			Page:         1,
			Limit:        1000,
		},
	})
	if err != nil {
		logger.WithField("wallet", wallet).Warnf("oracle request marshal failed: %v", err)
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.WithField("wallet", wallet).Warnf("oracle request build failed: %v", err)
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithField("wallet", wallet).Warnf("oracle unreachable, counting zero: %v", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("wallet", wallet).Warnf("oracle returned status %d, counting zero", resp.StatusCode)
		return 0
	}

	var parsed searchAssetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		logger.WithField("wallet", wallet).Warnf("oracle response parse failed, counting zero: %v", err)
		return 0
	}

	if parsed.Result.Total < 0 {
		return 0
	}
	return parsed.Result.Total
}
