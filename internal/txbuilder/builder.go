// Package txbuilder shapes wallet-facing transaction requests from intents.
// Building is deterministic and never touches the network.
package txbuilder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/swapdesk/internal/intent"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

const (
	// DefaultGasLimit is used when an intent omits its gas limit.
	DefaultGasLimit uint64 = 10_000_000

	// ApprovalGasLimit bounds the allowance call sent ahead of a routed swap.
	ApprovalGasLimit uint64 = 100_000

	// signatureLengthSize is the width of the big-endian length prefix.
	signatureLengthSize = 32
)

// Request is the eth_sendTransaction parameter object.
type Request struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Value    *hexutil.Big   `json:"value,omitempty"`
	Data     hexutil.Bytes  `json:"data"`
	Gas      hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big   `json:"gasPrice,omitempty"`
}

// Kind names the submission path chosen for an intent.
type Kind string

// Submission paths.
const (
	KindNative        Kind = "native"
	KindRoutedSwap    Kind = "routed_swap"
	KindPlainTransfer Kind = "transfer"
)

// Plan is the ordered set of requests for one intent.
type Plan struct {
	Kind     Kind
	Approval *Request
	Main     *Request
}

// Steps returns the requests in submission order.
func (p *Plan) Steps() []*Request {
	if p.Approval != nil {
		return []*Request{p.Approval, p.Main}
	}
	return []*Request{p.Main}
}

// NewPlan selects the submission path using isNativeToken alone and builds
// every request up front so malformed intents fail before any wallet call.
func NewPlan(in *intent.Intent, gasPrice *big.Int) (*Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.TransactionRequest.IsNativeToken {
		main, err := BuildNative(in, gasPrice)
		if err != nil {
			return nil, err
		}
		return &Plan{Kind: KindNative, Main: main}, nil
	}

	if !in.HasData() {
		main, err := BuildPlainTransfer(in, gasPrice)
		if err != nil {
			return nil, err
		}
		return &Plan{Kind: KindPlainTransfer, Main: main}, nil
	}

	plan := &Plan{Kind: KindRoutedSwap}
	if RequiresApproval(in) {
		approval, err := BuildApproval(in, gasPrice)
		if err != nil {
			return nil, err
		}
		plan.Approval = approval
	}

	main, err := BuildRoutedSwap(in, gasPrice)
	if err != nil {
		return nil, err
	}
	plan.Main = main
	return plan, nil
}

// Validate reports whether an intent can be planned.
func Validate(in *intent.Intent) error {
	_, err := NewPlan(in, nil)
	return err
}

// BuildNative copies to, from, value, and data from the intent.
func BuildNative(in *intent.Intent, gasPrice *big.Int) (*Request, error) {
	tx := in.TransactionRequest
	if !common.IsHexAddress(tx.To) {
		return nil, invalidField("transactionRequest.to", tx.To)
	}

	gas, err := gasLimit(tx.GasLimit)
	if err != nil {
		return nil, err
	}

	return &Request{
		From:     tx.From,
		To:       tx.To,
		Value:    quantity(tx.Value),
		Data:     in.Calldata(),
		Gas:      hexutil.Uint64(gas),
		GasPrice: bigOrNil(gasPrice),
	}, nil
}

// RequiresApproval reports whether a token intent needs an allowance call
// before its routed swap.
func RequiresApproval(in *intent.Intent) bool {
	return !in.TransactionRequest.IsNativeToken && in.HasData() && in.Estimate.ApprovalAddress != ""
}

// BuildApproval builds approve(approvalAddress, estimate.fromAmount) against
// the source token contract.
func BuildApproval(in *intent.Intent, gasPrice *big.Int) (*Request, error) {
	contract, err := tokenContract(in)
	if err != nil {
		return nil, err
	}

	spender := in.Estimate.ApprovalAddress
	if !common.IsHexAddress(spender) {
		return nil, invalidField("estimate.approvalAddress", spender)
	}
	amount, ok := in.Estimate.FromAmount.Big()
	if !ok {
		return nil, invalidField("estimate.fromAmount", string(in.Estimate.FromAmount))
	}

	data, err := EncodeApprove(common.HexToAddress(spender), amount)
	if err != nil {
		return nil, deskerr.WithCause(deskerr.ErrInvalidIntent, err)
	}

	return &Request{
		From:     in.TransactionRequest.From,
		To:       contract,
		Value:    (*hexutil.Big)(new(big.Int)),
		Data:     data,
		Gas:      hexutil.Uint64(ApprovalGasLimit),
		GasPrice: bigOrNil(gasPrice),
	}, nil
}

// BuildRoutedSwap submits the aggregator's to, value, and data verbatim.
func BuildRoutedSwap(in *intent.Intent, gasPrice *big.Int) (*Request, error) {
	tx := in.TransactionRequest
	if !common.IsHexAddress(tx.To) {
		return nil, invalidField("transactionRequest.to", tx.To)
	}

	gas, err := gasLimit(tx.GasLimit)
	if err != nil {
		return nil, err
	}

	return &Request{
		From:     tx.From,
		To:       tx.To,
		Value:    quantity(tx.Value),
		Data:     in.Calldata(),
		Gas:      hexutil.Uint64(gas),
		GasPrice: bigOrNil(gasPrice),
	}, nil
}

// BuildPlainTransfer builds transfer(to, value) against the source token
// contract. The intent's to is the recipient, not the call target.
func BuildPlainTransfer(in *intent.Intent, gasPrice *big.Int) (*Request, error) {
	tx := in.TransactionRequest
	if tx.To == "" {
		return nil, invalidTransfer("to", "recipient is required")
	}
	if !common.IsHexAddress(tx.To) {
		return nil, invalidTransfer("to", "recipient is not an address")
	}
	amount, ok := tx.Value.Big()
	if !ok {
		return nil, invalidTransfer("value", "amount is required")
	}

	contract, err := tokenContract(in)
	if err != nil {
		return nil, err
	}

	data, err := EncodeTransfer(common.HexToAddress(tx.To), amount)
	if err != nil {
		return nil, deskerr.WithCause(deskerr.ErrInvalidTransferParameters, err)
	}

	gas, err := gasLimit(tx.GasLimit)
	if err != nil {
		return nil, err
	}

	return &Request{
		From:     tx.From,
		To:       contract,
		Value:    (*hexutil.Big)(new(big.Int)),
		Data:     data,
		Gas:      hexutil.Uint64(gas),
		GasPrice: bigOrNil(gasPrice),
	}, nil
}

// SpliceSignature appends a 32-byte big-endian signature length and the
// signature to calldata. data is not modified.
func SpliceSignature(data, sig []byte) []byte {
	length := common.LeftPadBytes(big.NewInt(int64(len(sig))).Bytes(), signatureLengthSize)

	out := make([]byte, 0, len(data)+len(length)+len(sig))
	out = append(out, data...)
	out = append(out, length...)
	return append(out, sig...)
}

func tokenContract(in *intent.Intent) (string, error) {
	contract := in.TokenContract()
	if contract == "" {
		return "", deskerr.WithDetails(deskerr.ErrMissingTokenContract, map[string]string{
			"token": in.FromToken,
		})
	}
	if !common.IsHexAddress(contract) {
		return "", deskerr.WithDetails(deskerr.ErrMissingTokenContract, map[string]string{
			"token":    in.FromToken,
			"contract": contract,
		})
	}
	return contract, nil
}

func gasLimit(q intent.Quantity) (uint64, error) {
	if q.IsEmpty() {
		return DefaultGasLimit, nil
	}
	n, ok := q.Big()
	if !ok || !n.IsUint64() || n.Sign() == 0 {
		return 0, invalidField("transactionRequest.gasLimit", string(q))
	}
	return n.Uint64(), nil
}

func quantity(q intent.Quantity) *hexutil.Big {
	n, ok := q.Big()
	if !ok {
		n = new(big.Int)
	}
	return (*hexutil.Big)(n)
}

func bigOrNil(n *big.Int) *hexutil.Big {
	if n == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(n))
}

func invalidField(field, value string) error {
	return deskerr.WithDetails(deskerr.ErrInvalidIntent, map[string]string{
		"field": field,
		"value": value,
	})
}

func invalidTransfer(field, reason string) error {
	return deskerr.WithDetails(deskerr.ErrInvalidTransferParameters, map[string]string{
		"field":  field,
		"reason": reason,
	})
}
