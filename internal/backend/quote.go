package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/swapdesk/internal/intent"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// NativeTokenAddress is the placeholder used for a chain's native coin.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// QuoteTool names the router that produced a quote.
const QuoteTool = "0x"

// QuoteParams selects a swap to price.
type QuoteParams struct {
	ChainID          string
	SellToken        string
	BuyToken         string
	SellAmount       string
	Taker            string
	SwapFeeRecipient string
	SwapFeeBps       string
	SwapFeeToken     string
}

func (p QuoteParams) values() url.Values {
	v := url.Values{
		"chainId":    {p.ChainID},
		"sellToken":  {p.SellToken},
		"buyToken":   {p.BuyToken},
		"sellAmount": {p.SellAmount},
		"taker":      {p.Taker},
		// Surplus goes back to the taker.
		"tradeSurplusRecipient": {p.Taker},
	}
	for k, val := range map[string]string{
		"swapFeeRecipient": p.SwapFeeRecipient,
		"swapFeeBps":       p.SwapFeeBps,
		"swapFeeToken":     p.SwapFeeToken,
	} {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

func (p QuoteParams) validate() error {
	for _, f := range [...]struct{ name, addr string }{
		{"sellToken", p.SellToken},
		{"buyToken", p.BuyToken},
		{"taker", p.Taker},
	} {
		if !common.IsHexAddress(f.addr) {
			return deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"field": f.name, "value": f.addr})
		}
	}
	if p.ChainID == "" {
		return deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"field": "chainId"})
	}
	if n, ok := intent.Quantity(p.SellAmount).Big(); !ok || n.Sign() == 0 {
		return deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"field": "sellAmount", "value": p.SellAmount})
	}
	return nil
}

// QuoteTransaction is the call that executes a quote.
type QuoteTransaction struct {
	To       string          `json:"to"`
	Data     string          `json:"data"`
	Gas      intent.Quantity `json:"gas"`
	GasPrice intent.Quantity `json:"gasPrice"`
	Value    intent.Quantity `json:"value"`
}

// QuotePermit2 carries the typed data to sign for a Permit2 route.
type QuotePermit2 struct {
	Type   string          `json:"type,omitempty"`
	Hash   string          `json:"hash,omitempty"`
	EIP712 json.RawMessage `json:"eip712"`
}

// QuoteAllowance reports that spender must be approved before the swap.
type QuoteAllowance struct {
	Actual  intent.Quantity `json:"actual"`
	Spender string          `json:"spender"`
}

// QuoteIssues lists preconditions the taker has not met.
type QuoteIssues struct {
	Allowance *QuoteAllowance `json:"allowance"`
	Balance   json.RawMessage `json:"balance,omitempty"`
}

// TokenTax is the buy and sell tax of a token in basis points.
type TokenTax struct {
	BuyTaxBps  string `json:"buyTaxBps"`
	SellTaxBps string `json:"sellTaxBps"`
}

// TokenMetadata carries per-token tax information.
type TokenMetadata struct {
	BuyToken  TokenTax `json:"buyToken"`
	SellToken TokenTax `json:"sellToken"`
}

// Quote is a priced, executable swap.
type Quote struct {
	ChainID            intent.Quantity  `json:"chainId"`
	LiquidityAvailable bool             `json:"liquidityAvailable"`
	SellToken          string           `json:"sellToken"`
	BuyToken           string           `json:"buyToken"`
	SellAmount         intent.Quantity  `json:"sellAmount"`
	BuyAmount          intent.Quantity  `json:"buyAmount"`
	MinBuyAmount       intent.Quantity  `json:"minBuyAmount"`
	Transaction        QuoteTransaction `json:"transaction"`
	Permit2            *QuotePermit2    `json:"permit2,omitempty"`
	Issues             QuoteIssues      `json:"issues"`
	TokenMetadata      TokenMetadata    `json:"tokenMetadata"`
}

// IsNativeSell reports whether the quote sells the native coin.
func (q *Quote) IsNativeSell() bool {
	return strings.EqualFold(q.SellToken, NativeTokenAddress)
}

// Intent converts the quote into a transaction intent for from.
func (q *Quote) Intent(from string) *intent.Intent {
	req := intent.TransactionRequest{
		Value:         q.Transaction.Value,
		To:            q.Transaction.To,
		From:          from,
		Data:          q.Transaction.Data,
		ChainID:       q.ChainID,
		GasPrice:      q.Transaction.GasPrice,
		GasLimit:      q.Transaction.Gas,
		IsNativeToken: q.IsNativeSell(),
	}
	if !req.IsNativeToken {
		req.FromTokenInfo = &intent.TokenInfo{Contract: q.SellToken}
	}
	if req.Value.IsEmpty() {
		req.Value = "0"
	}

	in := &intent.Intent{
		TransactionRequest: req,
		FromToken:          q.SellToken,
		ToToken:            q.BuyToken,
		Tool:               QuoteTool,
		Estimate: intent.Estimate{
			Tool:        QuoteTool,
			FromAmount:  q.SellAmount,
			ToAmount:    q.BuyAmount,
			ToAmountMin: q.MinBuyAmount,
		},
		Action: &intent.Action{FromAmount: q.SellAmount},
	}
	if q.Issues.Allowance != nil && !req.IsNativeToken {
		in.Estimate.ApprovalAddress = q.Issues.Allowance.Spender
	}
	if q.Permit2 != nil && len(q.Permit2.EIP712) > 0 {
		in.Permit2 = &intent.Permit2{EIP712: q.Permit2.EIP712}
	}
	return in
}

// QuoteClient prices swaps.
type QuoteClient struct {
	http *httpClient
}

// NewQuoteClient creates a quote client for baseURL.
func NewQuoteClient(baseURL string, opts *Options) *QuoteClient {
	return &QuoteClient{http: newHTTPClient(ServiceQuote, baseURL, opts)}
}

// Quote fetches an executable quote for p.
func (c *QuoteClient) Quote(ctx context.Context, p QuoteParams) (*Quote, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var q Quote
	if err := c.http.getJSON(ctx, "/api/quote", p.values(), &q); err != nil {
		return nil, err
	}
	if !q.LiquidityAvailable && q.Transaction.To == "" {
		return nil, deskerr.WithDetails(deskerr.ErrBackendRequest, map[string]string{
			"service": ServiceQuote,
			"reason":  "no liquidity for pair",
		})
	}
	return &q, nil
}
