package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

var (
	// ErrNilResult indicates the wallet answered with a null result.
	ErrNilResult = &deskerr.DeskError{
		Code:     "PROVIDER_NIL_RESULT",
		Message:  "wallet returned an empty result",
		ExitCode: deskerr.ExitGeneral,
	}

	// ErrNoBaseFee indicates the latest block carries no base fee (pre-London chain).
	ErrNoBaseFee = &deskerr.DeskError{
		Code:     "PROVIDER_NO_BASE_FEE",
		Message:  "latest block has no base fee",
		ExitCode: deskerr.ExitGeneral,
	}
)

// Receipt is the subset of a transaction receipt swapdesk reads.
type Receipt struct {
	TransactionHash   string         `json:"transactionHash"`
	Status            hexutil.Uint64 `json:"status"`
	BlockNumber       *hexutil.Big   `json:"blockNumber"`
	GasUsed           hexutil.Uint64 `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice,omitempty"`
}

// Succeeded reports whether the receipt status is 0x1.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// RequestAccounts asks the wallet to connect and returns the exposed accounts.
func RequestAccounts(ctx context.Context, p WalletProvider) ([]string, error) {
	return accountList(ctx, p, MethodRequestAccounts)
}

// Accounts returns the accounts currently exposed without prompting.
func Accounts(ctx context.Context, p WalletProvider) ([]string, error) {
	return accountList(ctx, p, MethodAccounts)
}

func accountList(ctx context.Context, p WalletProvider, method string) ([]string, error) {
	result, err := p.Request(ctx, method)
	if err != nil {
		return nil, err
	}

	var accounts []string
	if isNull(result) {
		return accounts, nil
	}
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("parsing accounts: %w", err)
	}
	return accounts, nil
}

// ChainID returns the wallet's current chain id as a 0x-hex string.
func ChainID(ctx context.Context, p WalletProvider) (string, error) {
	return stringResult(ctx, p, MethodChainID)
}

// SendTransaction submits tx for signing and broadcast and returns the hash.
func SendTransaction(ctx context.Context, p WalletProvider, tx any) (string, error) {
	return stringResult(ctx, p, MethodSendTransaction, tx)
}

// SignTransaction signs tx without broadcasting and returns the raw signed payload.
func SignTransaction(ctx context.Context, p WalletProvider, tx any) (string, error) {
	return stringResult(ctx, p, MethodSignTransaction, tx)
}

// SignTypedData signs an EIP-712 payload with eth_signTypedData_v4.
func SignTypedData(ctx context.Context, p WalletProvider, from, typedDataJSON string) (string, error) {
	return stringResult(ctx, p, MethodSignTypedDataV4, from, typedDataJSON)
}

// TransactionReceipt returns the receipt, or nil while the transaction is pending.
func TransactionReceipt(ctx context.Context, p WalletProvider, hash string) (*Receipt, error) {
	result, err := p.Request(ctx, MethodTransactionReceipt, hash)
	if err != nil {
		return nil, err
	}
	if isNull(result) {
		return nil, nil //nolint:nilnil // pending transactions have no receipt yet
	}

	var receipt Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	return &receipt, nil
}

// GasPrice returns eth_gasPrice in wei.
func GasPrice(ctx context.Context, p WalletProvider) (*big.Int, error) {
	return bigResult(ctx, p, MethodGasPrice)
}

// MaxPriorityFeePerGas returns eth_maxPriorityFeePerGas in wei.
func MaxPriorityFeePerGas(ctx context.Context, p WalletProvider) (*big.Int, error) {
	return bigResult(ctx, p, MethodMaxPriorityFeePerGas)
}

// LatestBaseFee returns baseFeePerGas of the latest block.
func LatestBaseFee(ctx context.Context, p WalletProvider) (*big.Int, error) {
	result, err := p.Request(ctx, MethodGetBlockByNumber, "latest", false)
	if err != nil {
		return nil, err
	}
	if isNull(result) {
		return nil, ErrNilResult
	}

	var block struct {
		BaseFeePerGas *hexutil.Big `json:"baseFeePerGas"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("parsing block: %w", err)
	}
	if block.BaseFeePerGas == nil {
		return nil, ErrNoBaseFee
	}
	return block.BaseFeePerGas.ToInt(), nil
}

func stringResult(ctx context.Context, p WalletProvider, method string, params ...any) (string, error) {
	result, err := p.Request(ctx, method, params...)
	if err != nil {
		return "", err
	}
	if isNull(result) {
		return "", deskerr.Wrap(ErrNilResult, "%s", method)
	}

	var s string
	if err := json.Unmarshal(result, &s); err != nil {
		return "", fmt.Errorf("parsing %s result: %w", method, err)
	}
	return s, nil
}

func bigResult(ctx context.Context, p WalletProvider, method string) (*big.Int, error) {
	result, err := p.Request(ctx, method)
	if err != nil {
		return nil, err
	}
	if isNull(result) {
		return nil, deskerr.Wrap(ErrNilResult, "%s", method)
	}

	var v hexutil.Big
	if err := json.Unmarshal(result, &v); err != nil {
		return nil, fmt.Errorf("parsing %s result: %w", method, err)
	}
	return v.ToInt(), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
