package pipeline

import (
	"context"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/swapdesk/internal/intent"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/txbuilder"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Fields the wallet fills in or that are fixed for eth_signTransaction.
const (
	signPriorityFee = 10
	signNonce       = 0
)

// Status is the observed outcome of a submitted transaction.
type Status string

// Transaction statuses.
const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

//nolint:gochecknoglobals // compiled once
var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// SignRequest is the eth_signTransaction parameter object.
type SignRequest struct {
	From                 string         `json:"from"`
	To                   string         `json:"to"`
	Value                *hexutil.Big   `json:"value"`
	GasLimit             hexutil.Uint64 `json:"gasLimit"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	Nonce                hexutil.Uint64 `json:"nonce"`
	Data                 hexutil.Bytes  `json:"data"`
}

// NewSignRequest shapes an intent for signing without broadcast. The
// resolved gas price becomes maxFeePerGas.
func NewSignRequest(in *intent.Intent, gasPrice *big.Int) (*SignRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx := in.TransactionRequest
	value, ok := tx.Value.Big()
	if !ok {
		value = new(big.Int)
	}
	gas := txbuilder.DefaultGasLimit
	if limit, ok := tx.GasLimit.Big(); ok && limit.IsUint64() {
		gas = limit.Uint64()
	}
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}

	return &SignRequest{
		From:                 tx.From,
		To:                   tx.To,
		Value:                (*hexutil.Big)(value),
		GasLimit:             hexutil.Uint64(gas),
		MaxFeePerGas:         (*hexutil.Big)(new(big.Int).Set(gasPrice)),
		MaxPriorityFeePerGas: (*hexutil.Big)(big.NewInt(signPriorityFee)),
		Nonce:                hexutil.Uint64(signNonce),
		Data:                 in.Calldata(),
	}, nil
}

// Sign asks the wallet to sign the intent's transaction without sending it
// and returns the raw signed payload.
func (p *Pipeline) Sign(ctx context.Context, in *intent.Intent) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	wallet, err := p.wallet.Get()
	if err != nil {
		return "", err
	}

	req, err := NewSignRequest(in, p.resolveGas(ctx, in))
	if err != nil {
		return "", err
	}

	signed, err := provider.SignTransaction(ctx, wallet, req)
	if err != nil {
		return "", deskerr.WithDetails(deskerr.WithCause(deskerr.ErrSignatureFailed, err), map[string]string{
			"method": provider.MethodSignTransaction,
		})
	}
	return signed, nil
}

// Status looks up hash's receipt once.
func (p *Pipeline) Status(ctx context.Context, hash string) (Status, error) {
	if !txHashPattern.MatchString(hash) {
		return "", deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"hash": hash})
	}

	wallet, err := p.wallet.Get()
	if err != nil {
		return "", err
	}

	receipt, err := provider.TransactionReceipt(ctx, wallet, hash)
	if err != nil {
		return "", err
	}
	switch {
	case receipt == nil:
		return StatusPending, nil
	case receipt.Succeeded():
		return StatusSuccess, nil
	default:
		return StatusFailed, nil
	}
}
