// Package intent models the aggregator-priced transaction templates that
// the backend proposes and the submission pipeline consumes.
package intent

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethmath "github.com/ethereum/go-ethereum/common/math"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Quantity is an integer amount that may arrive as a JSON number, a decimal
// string, or a 0x-hex string. The raw text is kept as received.
type Quantity string

// UnmarshalJSON accepts numbers, strings, and null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// IsEmpty reports whether no value was supplied. "0x" counts as empty.
func (q Quantity) IsEmpty() bool {
	return q == "" || strings.EqualFold(string(q), "0x")
}

// Big parses the quantity. Integral exponent forms such as 1e+21 are
// accepted; negative amounts are not.
func (q Quantity) Big() (*big.Int, bool) {
	if q.IsEmpty() {
		return nil, false
	}
	if n, ok := gethmath.ParseBig256(string(q)); ok {
		if n.Sign() < 0 {
			return nil, false
		}
		return n, true
	}

	f, _, err := big.ParseFloat(string(q), 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() || f.Sign() < 0 {
		return nil, false
	}
	n, _ := f.Int(nil)
	return n, true
}

// Hex returns the quantity as a 0x-hex string, or "" when it is empty or invalid.
func (q Quantity) Hex() string {
	n, ok := q.Big()
	if !ok {
		return ""
	}
	return hexutil.EncodeBig(n)
}

// TokenInfo describes the source token contract.
type TokenInfo struct {
	Contract string `json:"contract"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
}

// TransactionRequest holds the ready-to-sign fields issued by the aggregator.
type TransactionRequest struct {
	Value         Quantity   `json:"value"`
	To            string     `json:"to"`
	From          string     `json:"from"`
	Data          string     `json:"data,omitempty"`
	ChainID       Quantity   `json:"chainId,omitempty"`
	GasPrice      Quantity   `json:"gasPrice,omitempty"`
	GasLimit      Quantity   `json:"gasLimit,omitempty"`
	IsNativeToken bool       `json:"isNativeToken"`
	FromTokenInfo *TokenInfo `json:"fromTokenInfo,omitempty"`
}

// Estimate is the aggregator's pricing for the route.
type Estimate struct {
	Tool              string            `json:"tool"`
	ApprovalAddress   string            `json:"approvalAddress"`
	ToAmountMin       Quantity          `json:"toAmountMin"`
	ToAmount          Quantity          `json:"toAmount"`
	FromAmount        Quantity          `json:"fromAmount"`
	FeeCosts          []json.RawMessage `json:"feeCosts,omitempty"`
	GasCosts          []json.RawMessage `json:"gasCosts,omitempty"`
	ExecutionDuration json.Number       `json:"executionDuration,omitempty"`
	FromAmountUSD     json.Number       `json:"fromAmountUSD,omitempty"`
	ToAmountUSD       json.Number       `json:"toAmountUSD,omitempty"`
}

// Action carries the user-facing amount of the proposed action.
type Action struct {
	FromAmount Quantity `json:"fromAmount"`
}

// Permit2 carries the EIP-712 payload for the priced-permit flow.
type Permit2 struct {
	EIP712 json.RawMessage `json:"eip712,omitempty"`
}

// Intent is a priced description of a swap or transfer.
type Intent struct {
	TransactionRequest TransactionRequest `json:"transactionRequest"`
	FromToken          string             `json:"fromToken"`
	ToToken            string             `json:"toToken"`
	Tool               string             `json:"tool"`
	Estimate           Estimate           `json:"estimate"`
	Action             *Action            `json:"action,omitempty"`
	Permit2            *Permit2           `json:"permit2,omitempty"`
}

// Parse decodes and validates an intent document.
func Parse(data []byte) (*Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, deskerr.WithCause(deskerr.ErrInvalidIntent, err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate checks the fields every submission path needs.
func (in *Intent) Validate() error {
	if in == nil {
		return deskerr.WithDetails(deskerr.ErrInvalidIntent, map[string]string{"reason": "empty intent"})
	}

	tx := in.TransactionRequest
	if !common.IsHexAddress(tx.From) {
		return deskerr.WithDetails(deskerr.ErrInvalidIntent, map[string]string{
			"field": "transactionRequest.from",
			"value": tx.From,
		})
	}
	if tx.Data != "" {
		if _, err := hexutil.Decode(normalizeHex(tx.Data)); err != nil {
			return deskerr.WithDetails(deskerr.WithCause(deskerr.ErrInvalidIntent, err), map[string]string{
				"field": "transactionRequest.data",
			})
		}
	}
	quantities := []struct {
		field string
		q     Quantity
	}{
		{"transactionRequest.value", tx.Value},
		{"transactionRequest.gasPrice", tx.GasPrice},
		{"transactionRequest.gasLimit", tx.GasLimit},
		{"transactionRequest.chainId", tx.ChainID},
	}
	for _, f := range quantities {
		if f.q.IsEmpty() {
			continue
		}
		if _, ok := f.q.Big(); !ok {
			return deskerr.WithDetails(deskerr.ErrInvalidIntent, map[string]string{
				"field": f.field,
				"value": string(f.q),
			})
		}
	}
	return nil
}

// HasData reports whether the intent carries calldata.
func (in *Intent) HasData() bool {
	d := in.TransactionRequest.Data
	return d != "" && !strings.EqualFold(d, "0x")
}

// Calldata returns the decoded calldata. Validate guarantees it decodes.
func (in *Intent) Calldata() []byte {
	if !in.HasData() {
		return nil
	}
	b, err := hexutil.Decode(normalizeHex(in.TransactionRequest.Data))
	if err != nil {
		return nil
	}
	return b
}

// ChainIDHex returns the intent's chain id in 0x-hex, or "" if absent.
func (in *Intent) ChainIDHex() string {
	return in.TransactionRequest.ChainID.Hex()
}

// TokenContract returns the source token contract, or "" if absent.
func (in *Intent) TokenContract() string {
	if in.TransactionRequest.FromTokenInfo == nil {
		return ""
	}
	return strings.TrimSpace(in.TransactionRequest.FromTokenInfo.Contract)
}

// HasPermit reports whether a typed-data permit must be signed.
func (in *Intent) HasPermit() bool {
	if in.Permit2 == nil {
		return false
	}
	raw := bytes.TrimSpace(in.Permit2.EIP712)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func normalizeHex(s string) string {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "0x" + s
	}
	return "0x" + s[2:]
}
