// Package gas resolves the gas price used for wallet submissions.
package gas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/provider"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Speed represents the transaction speed preference.
type Speed string

const (
	// SpeedSlow uses a lower gas price for cheaper, slower transactions.
	SpeedSlow Speed = "slow"
	// SpeedMedium uses the discovered gas price unchanged.
	SpeedMedium Speed = "medium"
	// SpeedFast uses a higher gas price for faster confirmation.
	SpeedFast Speed = "fast"

	// Speed adjustments as percentages of the discovered price.
	slowPercent = 80
	fastPercent = 120
)

// Source identifies where a gas price came from.
type Source string

// Gas price sources.
const (
	SourceLegacy   Source = "legacy"
	SourceDynamic  Source = "eip1559"
	SourceFallback Source = "fallback"
)

// FallbackGasPrice is used when the wallet reports no fee data: 20 gwei.
//
//nolint:gochecknoglobals // read-only constant expressed as big.Int
var FallbackGasPrice = new(big.Int).Mul(big.NewInt(20), big.NewInt(params.GWei))

// ErrInvalidGasSpeed indicates an unknown speed name.
var ErrInvalidGasSpeed = &deskerr.DeskError{
	Code:     "INVALID_GAS_SPEED",
	Message:  "invalid gas speed",
	ExitCode: deskerr.ExitInput,
}

// ParseSpeed parses a string into a Speed. Empty means medium.
func ParseSpeed(s string) (Speed, error) {
	switch s {
	case "slow":
		return SpeedSlow, nil
	case "", "medium":
		return SpeedMedium, nil
	case "fast":
		return SpeedFast, nil
	default:
		return "", deskerr.WithDetails(ErrInvalidGasSpeed, map[string]string{
			"speed":   s,
			"allowed": "slow, medium, or fast",
		})
	}
}

// Quote is a resolved gas price and where it came from.
type Quote struct {
	Price  *big.Int
	Source Source
}

// WalletSource hands out the wallet provider.
type WalletSource interface {
	Get() (provider.WalletProvider, error)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Oracle discovers gas prices from the wallet.
type Oracle struct {
	wallet  WalletSource
	speed   Speed
	metrics *metrics.Metrics
	logger  LogWriter
}

// Options configures an Oracle.
type Options struct {
	Speed   Speed
	Metrics *metrics.Metrics
	Logger  LogWriter
}

// NewOracle creates an oracle.
func NewOracle(wallet WalletSource, opts *Options) *Oracle {
	if opts == nil {
		opts = &Options{}
	}
	speed := opts.Speed
	if speed == "" {
		speed = SpeedMedium
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Global
	}
	return &Oracle{wallet: wallet, speed: speed, metrics: m, logger: opts.Logger}
}

// GasPrice returns the gas price in wei. It never fails.
func (o *Oracle) GasPrice(ctx context.Context) *big.Int {
	return o.Quote(ctx).Price
}

// Quote prefers eth_gasPrice, then maxFeePerGas as 2*baseFee + priority
// fee, then FallbackGasPrice. The speed multiplier applies to discovered
// prices only.
func (o *Oracle) Quote(ctx context.Context) Quote {
	q := o.discover(ctx)
	o.metrics.RecordGasSource(string(q.Source))

	if q.Source != SourceFallback {
		q.Price = applySpeed(q.Price, o.speed)
	}
	o.debug("gas price %s from %s (speed %s)", FormatGwei(q.Price), q.Source, o.speed)
	return q
}

func (o *Oracle) discover(ctx context.Context) Quote {
	fallback := Quote{Price: new(big.Int).Set(FallbackGasPrice), Source: SourceFallback}

	p, err := o.wallet.Get()
	if err != nil {
		o.debug("gas oracle has no wallet: %v", err)
		return fallback
	}

	price, err := provider.GasPrice(ctx, p)
	if err == nil && price.Sign() > 0 {
		return Quote{Price: price, Source: SourceLegacy}
	}
	o.debug("eth_gasPrice unavailable: %v", err)

	maxFee, err := maxFeePerGas(ctx, p)
	if err == nil {
		return Quote{Price: maxFee, Source: SourceDynamic}
	}
	o.debug("maxFeePerGas unavailable: %v", err)

	return fallback
}

func maxFeePerGas(ctx context.Context, p provider.WalletProvider) (*big.Int, error) {
	baseFee, err := provider.LatestBaseFee(ctx, p)
	if err != nil {
		return nil, err
	}
	tip, err := provider.MaxPriorityFeePerGas(ctx, p)
	if err != nil {
		return nil, err
	}

	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	if maxFee.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive max fee %s", maxFee)
	}
	return maxFee, nil
}

func applySpeed(price *big.Int, speed Speed) *big.Int {
	switch speed {
	case SpeedSlow:
		return scalePercent(price, slowPercent)
	case SpeedFast:
		return scalePercent(price, fastPercent)
	default:
		return price
	}
}

// FormatGwei formats a wei amount as a Gwei string with two decimals.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0 Gwei"
	}

	gwei := new(big.Float).SetInt(wei)
	gwei.Quo(gwei, new(big.Float).SetInt64(params.GWei))

	return fmt.Sprintf("%.2f Gwei", gwei)
}

func scalePercent(n *big.Int, percent int64) *big.Int {
	scaled := new(big.Int).Mul(n, big.NewInt(percent))
	return scaled.Quo(scaled, big.NewInt(100))
}

func (o *Oracle) debug(format string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(format, args...)
	}
}
