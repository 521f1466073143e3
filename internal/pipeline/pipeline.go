// Package pipeline submits transaction intents through the wallet: it puts
// the wallet on the right chain, resolves gas, signs permits, sends any
// approval, and sends the main transaction.
package pipeline

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mrz1836/swapdesk/internal/intent"
	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/transport"
	"github.com/mrz1836/swapdesk/internal/txbuilder"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Default timings.
const (
	DefaultApprovalTimeout     = 5 * time.Minute
	DefaultReceiptPollInterval = 2 * time.Second

	// maxPollMultiple caps receipt poll backoff relative to the base interval.
	maxPollMultiple = 8
)

// State is a submission state.
type State string

// Submission states in order.
const (
	StateIdle           State = "idle"
	StateNetworkChecked State = "network_checked"
	StateGasResolved    State = "gas_resolved"
	StatePermitSigned   State = "permit_signed"
	StateSubmitted      State = "submitted"
	StateConfirmed      State = "confirmed"
	StateFailed         State = "failed"
)

// Transition is one recorded state change.
type Transition struct {
	State  State     `json:"state"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Result describes a submitted intent.
type Result struct {
	Hash         string            `json:"hash"`
	ApprovalHash string            `json:"approvalHash,omitempty"`
	Network      string            `json:"network"`
	Kind         txbuilder.Kind    `json:"kind"`
	GasPrice     *big.Int          `json:"gasPrice"`
	State        State             `json:"state"`
	Trace        []Transition      `json:"trace"`
	Receipt      *provider.Receipt `json:"receipt,omitempty"`
}

func (r *Result) advance(s State, detail string) {
	r.State = s
	r.Trace = append(r.Trace, Transition{State: s, At: time.Now().UTC(), Detail: detail})
}

// WalletSource hands out the wallet provider.
type WalletSource interface {
	Get() (provider.WalletProvider, error)
}

// NetworkSwitcher moves the wallet to a registry network.
type NetworkSwitcher interface {
	Switch(ctx context.Context, id string) (network.Network, error)
	Active() network.Network
	Registry() *network.Registry
}

// GasPricer resolves a gas price. It must not fail.
type GasPricer interface {
	GasPrice(ctx context.Context) *big.Int
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds pipeline dependencies.
type Config struct {
	Wallet              WalletSource
	Networks            NetworkSwitcher
	Gas                 GasPricer
	Metrics             *metrics.Metrics
	Logger              LogWriter
	ApprovalTimeout     time.Duration
	ReceiptPollInterval time.Duration
}

// Pipeline submits intents. Callers serialize submissions; a Pipeline does
// not guard against concurrent Submit calls for the same wallet.
type Pipeline struct {
	wallet          WalletSource
	networks        NetworkSwitcher
	gas             GasPricer
	metrics         *metrics.Metrics
	logger          LogWriter
	approvalTimeout time.Duration
	pollInterval    time.Duration
}

// New creates a pipeline.
func New(cfg *Config) *Pipeline {
	p := &Pipeline{
		wallet:          cfg.Wallet,
		networks:        cfg.Networks,
		gas:             cfg.Gas,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		approvalTimeout: cfg.ApprovalTimeout,
		pollInterval:    cfg.ReceiptPollInterval,
	}
	if p.metrics == nil {
		p.metrics = metrics.Global
	}
	if p.approvalTimeout <= 0 {
		p.approvalTimeout = DefaultApprovalTimeout
	}
	if p.pollInterval <= 0 {
		p.pollInterval = DefaultReceiptPollInterval
	}
	return p
}

// Submit runs an intent to the Submitted state and returns its hash. Every
// check that needs no wallet runs first, so a malformed intent never reaches
// the wallet. An approval that was mined before a later failure is reported
// in the error's approval_hash detail; it is not rolled back.
func (p *Pipeline) Submit(ctx context.Context, in *intent.Intent) (*Result, error) {
	res := &Result{}
	res.advance(StateIdle, "")

	if err := preflight(in); err != nil {
		p.fail(res, err)
		return res, err
	}

	wallet, err := p.wallet.Get()
	if err != nil {
		p.fail(res, err)
		return res, err
	}

	// Idle -> NetworkChecked
	target := p.targetNetwork(in)
	n, err := p.networks.Switch(ctx, target.ID)
	if err != nil {
		p.fail(res, err)
		return res, err
	}
	res.Network = n.ID
	p.advance(res, StateNetworkChecked, n.ID)

	// NetworkChecked -> GasResolved
	res.GasPrice = p.resolveGas(ctx, in)
	p.advance(res, StateGasResolved, res.GasPrice.String())

	// GasResolved -> PermitSigned
	work := *in
	if in.HasPermit() {
		data, err := p.signPermit(ctx, wallet, in)
		if err != nil {
			p.fail(res, err)
			return res, err
		}
		work.TransactionRequest.Data = hexutil.Encode(data)
		p.advance(res, StatePermitSigned, "")
	}

	plan, err := txbuilder.NewPlan(&work, res.GasPrice)
	if err != nil {
		p.fail(res, err)
		return res, err
	}
	res.Kind = plan.Kind

	if plan.Approval != nil {
		hash, err := p.approve(ctx, wallet, plan.Approval)
		res.ApprovalHash = hash
		if err != nil {
			p.fail(res, err)
			return res, err
		}
	}

	// -> Submitted
	hash, err := provider.SendTransaction(ctx, wallet, plan.Main)
	if err != nil {
		err = rejected(err, "main", res.ApprovalHash)
		p.fail(res, err)
		return res, err
	}
	res.Hash = hash
	p.advance(res, StateSubmitted, hash)
	p.metrics.RecordSubmission(string(StateSubmitted))
	return res, nil
}

// Await waits for res's receipt and moves it to Confirmed or Failed.
func (p *Pipeline) Await(ctx context.Context, res *Result) error {
	wallet, err := p.wallet.Get()
	if err != nil {
		return err
	}

	receipt, err := p.waitForReceipt(ctx, wallet, res.Hash)
	if err != nil {
		return err
	}
	res.Receipt = receipt

	if receipt.Succeeded() {
		p.advance(res, StateConfirmed, receipt.TransactionHash)
		p.metrics.RecordSubmission(string(StateConfirmed))
		return nil
	}

	err = deskerr.WithDetails(deskerr.ErrSubmissionRejected, map[string]string{
		"hash":   res.Hash,
		"reason": "transaction reverted",
	})
	p.fail(res, err)
	return err
}

// WaitForReceipt polls for hash's receipt with backoff until it is mined or
// ctx is done.
func (p *Pipeline) WaitForReceipt(ctx context.Context, hash string) (*provider.Receipt, error) {
	wallet, err := p.wallet.Get()
	if err != nil {
		return nil, err
	}
	return p.waitForReceipt(ctx, wallet, hash)
}

func (p *Pipeline) targetNetwork(in *intent.Intent) network.Network {
	if id := in.ChainIDHex(); id != "" {
		if n, ok := p.networks.Registry().ByChainID(id); ok {
			return n
		}
		p.debug("intent chain %s is not a known network, using the active network", id)
	}
	return p.networks.Active()
}

func (p *Pipeline) resolveGas(ctx context.Context, in *intent.Intent) *big.Int {
	if price, ok := in.TransactionRequest.GasPrice.Big(); ok {
		p.debug("using intent gas price %s", price)
		return price
	}
	return p.gas.GasPrice(ctx)
}

func (p *Pipeline) signPermit(ctx context.Context, wallet provider.WalletProvider, in *intent.Intent) ([]byte, error) {
	from := in.TransactionRequest.From
	p.debug("requesting permit signature from %s", from)

	sig, err := provider.SignTypedData(ctx, wallet, from, string(in.Permit2.EIP712))
	if err != nil {
		return nil, deskerr.WithCause(deskerr.ErrSignatureFailed, err)
	}
	if sig == "" {
		return nil, deskerr.WithDetails(deskerr.ErrSignatureFailed, map[string]string{
			"reason": "wallet returned no signature",
		})
	}

	raw, err := hexutil.Decode(sig)
	if err != nil || len(raw) == 0 {
		return nil, deskerr.WithDetails(deskerr.ErrSignatureFailed, map[string]string{
			"reason": "wallet returned a malformed signature",
		})
	}

	return txbuilder.SpliceSignature(in.Calldata(), raw), nil
}

func (p *Pipeline) approve(ctx context.Context, wallet provider.WalletProvider, req *txbuilder.Request) (string, error) {
	hash, err := provider.SendTransaction(ctx, wallet, req)
	if err != nil {
		return "", rejected(err, "approval", "")
	}
	p.debug("approval sent: %s", hash)

	waitCtx, cancel := context.WithTimeout(ctx, p.approvalTimeout)
	defer cancel()

	receipt, err := p.waitForReceipt(waitCtx, wallet, hash)
	if err != nil {
		return hash, deskerr.WithDetails(deskerr.WithCause(deskerr.ErrSubmissionRejected, err), map[string]string{
			"stage":         "approval",
			"approval_hash": hash,
			"reason":        "approval was not confirmed",
		})
	}
	if !receipt.Succeeded() {
		return hash, deskerr.WithDetails(deskerr.ErrSubmissionRejected, map[string]string{
			"stage":         "approval",
			"approval_hash": hash,
			"reason":        "approval reverted",
		})
	}
	return hash, nil
}

func (p *Pipeline) waitForReceipt(ctx context.Context, wallet provider.WalletProvider, hash string) (*provider.Receipt, error) {
	maxDelay := p.pollInterval * maxPollMultiple
	for attempt := 0; ; attempt++ {
		receipt, err := provider.TransactionReceipt(ctx, wallet, hash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if _, ok := provider.AsProviderError(err); ok {
				return nil, err
			}
			p.debug("receipt lookup for %s failed, retrying: %v", hash, err)
		}

		if err := transport.Sleep(ctx, transport.Backoff(attempt, p.pollInterval, maxDelay)); err != nil {
			return nil, err
		}
	}
}

func (p *Pipeline) advance(res *Result, s State, detail string) {
	res.advance(s, detail)
	p.debug("submission %s %s", s, detail)
}

func (p *Pipeline) fail(res *Result, err error) {
	res.advance(StateFailed, err.Error())
	p.metrics.RecordSubmission(string(StateFailed))
	if p.logger != nil {
		p.logger.Error("submission failed: %v", err)
	}
}

func (p *Pipeline) debug(format string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(format, args...)
	}
}

// preflight runs every check that needs no wallet.
func preflight(in *intent.Intent) error {
	if err := txbuilder.Validate(in); err != nil {
		return err
	}
	if !in.HasPermit() {
		return nil
	}
	if !in.HasData() {
		return deskerr.WithDetails(deskerr.ErrSignatureFailed, map[string]string{
			"reason": "no calldata to carry signature",
		})
	}
	return validateTypedData(in.Permit2.EIP712)
}

func validateTypedData(raw json.RawMessage) error {
	var td apitypes.TypedData
	if err := json.Unmarshal(raw, &td); err != nil {
		return deskerr.WithDetails(deskerr.WithCause(deskerr.ErrInvalidIntent, err), map[string]string{
			"field": "permit2.eip712",
		})
	}
	if _, _, err := apitypes.TypedDataAndHash(td); err != nil {
		return deskerr.WithDetails(deskerr.WithCause(deskerr.ErrInvalidIntent, err), map[string]string{
			"field": "permit2.eip712",
		})
	}
	return nil
}

func rejected(err error, stage, approvalHash string) error {
	details := map[string]string{"stage": stage}
	if approvalHash != "" {
		details["approval_hash"] = approvalHash
	}
	return deskerr.WithDetails(deskerr.WithCause(deskerr.ErrSubmissionRejected, err), details)
}
