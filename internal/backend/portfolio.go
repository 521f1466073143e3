package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// DustThresholdUSD is the value at or below which tokens are hidden.
const DustThresholdUSD = 0.01

// DefaultHistoryLimit is the page size used when History is called with 0.
const DefaultHistoryLimit = 25

// Token is one wallet holding.
type Token struct {
	TokenAddress        string  `json:"token_address"`
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name"`
	Logo                string  `json:"logo,omitempty"`
	Thumbnail           string  `json:"thumbnail,omitempty"`
	Decimals            int     `json:"decimals"`
	Balance             string  `json:"balance"`
	PossibleSpam        bool    `json:"possible_spam"`
	VerifiedContract    bool    `json:"verified_contract"`
	BalanceFormatted    string  `json:"balance_formatted"`
	USDPrice            float64 `json:"usd_price"`
	USDValue            float64 `json:"usd_value"`
	NativeToken         bool    `json:"native_token"`
	PortfolioPercentage float64 `json:"portfolio_percentage"`
}

// TokenResponse is a page of holdings.
type TokenResponse struct {
	Cursor      string  `json:"cursor"`
	Page        int     `json:"page"`
	PageSize    int     `json:"page_size"`
	BlockNumber string  `json:"block_number"`
	Result      []Token `json:"result"`
}

// Transfer is a token movement inside a history entry.
type Transfer struct {
	TokenName        string `json:"token_name,omitempty"`
	TokenSymbol      string `json:"token_symbol,omitempty"`
	Address          string `json:"address,omitempty"`
	FromAddress      string `json:"from_address"`
	ToAddress        string `json:"to_address"`
	Value            string `json:"value"`
	ValueFormatted   string `json:"value_formatted"`
	Direction        string `json:"direction,omitempty"`
	InternalTransfer bool   `json:"internal_transaction,omitempty"`
}

// HistoryEntry is one wallet transaction.
type HistoryEntry struct {
	Hash            string     `json:"hash"`
	FromAddress     string     `json:"from_address"`
	ToAddress       string     `json:"to_address"`
	Value           string     `json:"value"`
	BlockTimestamp  string     `json:"block_timestamp"`
	MethodLabel     string     `json:"method_label,omitempty"`
	Summary         string     `json:"summary"`
	Category        string     `json:"category"`
	ERC20Transfers  []Transfer `json:"erc20_transfers"`
	NativeTransfers []Transfer `json:"native_transfers"`
}

// HistoryResponse is a page of wallet history.
type HistoryResponse struct {
	Cursor   string         `json:"cursor"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Limit    string         `json:"limit"`
	Result   []HistoryEntry `json:"result"`
}

// PortfolioClient reads wallet holdings and history.
type PortfolioClient struct {
	http *httpClient
}

// NewPortfolioClient creates a portfolio client. apiKey is sent as X-API-Key.
func NewPortfolioClient(baseURL, apiKey string, opts *Options) *PortfolioClient {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	headers := make(map[string]string, len(o.Headers)+1)
	for k, v := range o.Headers {
		headers[k] = v
	}
	headers["X-API-Key"] = apiKey
	o.Headers = headers

	return &PortfolioClient{http: newHTTPClient(ServicePortfolio, baseURL, &o)}
}

// Tokens returns the holdings of address on chain worth more than
// DustThresholdUSD.
func (c *PortfolioClient) Tokens(ctx context.Context, address, chain string) (*TokenResponse, error) {
	if err := checkAddress(address); err != nil {
		return nil, err
	}

	var resp TokenResponse
	path := "/wallets/" + url.PathEscape(address) + "/tokens"
	if err := c.http.getJSON(ctx, path, url.Values{"chain": {chain}}, &resp); err != nil {
		return nil, err
	}

	kept := resp.Result[:0]
	for _, t := range resp.Result {
		if t.USDValue > DustThresholdUSD {
			kept = append(kept, t)
		}
	}
	resp.Result = kept
	return &resp, nil
}

// History returns up to limit recent transactions of address on chain.
func (c *PortfolioClient) History(ctx context.Context, address, chain string, limit int) (*HistoryResponse, error) {
	if err := checkAddress(address); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := url.Values{
		"chain": {chain},
		"limit": {strconv.Itoa(limit)},
		"order": {"DESC"},
	}

	var resp HistoryResponse
	if err := c.http.getJSON(ctx, "/wallets/"+url.PathEscape(address)+"/history", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func checkAddress(address string) error {
	if !common.IsHexAddress(address) {
		return deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{
			"field": "address",
			"value": address,
		})
	}
	return nil
}
