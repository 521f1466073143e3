// Package provider defines the wallet capability used across swapdesk and
// the accessor that hands it out.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Wallet request methods.
const (
	MethodRequestAccounts      = "eth_requestAccounts"
	MethodAccounts             = "eth_accounts"
	MethodChainID              = "eth_chainId"
	MethodSwitchChain          = "wallet_switchEthereumChain"
	MethodAddChain             = "wallet_addEthereumChain"
	MethodSendTransaction      = "eth_sendTransaction"
	MethodSignTransaction      = "eth_signTransaction"
	MethodSignTypedDataV4      = "eth_signTypedData_v4"
	MethodTransactionReceipt   = "eth_getTransactionReceipt"
	MethodGasPrice             = "eth_gasPrice"
	MethodGetBlockByNumber     = "eth_getBlockByNumber"
	MethodMaxPriorityFeePerGas = "eth_maxPriorityFeePerGas"
)

// Wallet event names.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnect      = "disconnect"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// WalletProvider is the capability a wallet exposes: a request channel plus
// event subscriptions.
type WalletProvider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	On(event string, h Handler) ListenerID
	RemoveListener(event string, id ListenerID)
}

// Event is delivered to handlers registered with On.
type Event struct {
	Name     string
	Accounts []string // accountsChanged
	ChainID  string   // chainChanged
	Err      error    // disconnect
}

// Handler receives wallet events.
type Handler func(Event)

// ListenerID identifies a registered handler for removal.
type ListenerID uint64

// ProviderError is an error object returned by the wallet.
//
//nolint:revive // ProviderError reads better at call sites than provider.Error
type ProviderError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// AsProviderError finds a ProviderError in err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCode reports whether err carries a ProviderError with the given code.
func IsCode(err error, code int) bool {
	pe, ok := AsProviderError(err)
	return ok && pe.Code == code
}

// IsUserRejected reports whether the user declined the request in the wallet.
func IsUserRejected(err error) bool {
	return IsCode(err, CodeUserRejected)
}
