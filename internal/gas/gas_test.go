package gas

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/provider/providertest"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestParseSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Speed
		wantErr bool
	}{
		{"slow", SpeedSlow, false},
		{"medium", SpeedMedium, false},
		{"", SpeedMedium, false},
		{"fast", SpeedFast, false},
		{"ludicrous", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSpeed(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidGasSpeed)
				assert.Equal(t, deskerr.ExitInput, deskerr.ExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOracle_Sources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(f *providertest.Fake)
		want   *big.Int
		source Source
	}{
		{
			name: "legacy gas price preferred",
			setup: func(f *providertest.Fake) {
				f.Respond(provider.MethodGasPrice, "0x4a817c800")
				f.Respond(provider.MethodGetBlockByNumber, map[string]string{"baseFeePerGas": "0x1"})
				f.Respond(provider.MethodMaxPriorityFeePerGas, "0x1")
			},
			want:   gwei(20),
			source: SourceLegacy,
		},
		{
			name: "max fee when gas price unavailable",
			setup: func(f *providertest.Fake) {
				f.Reject(provider.MethodGasPrice, provider.CodeUnsupportedMethod, "unsupported")
				f.Respond(provider.MethodGetBlockByNumber, map[string]string{"baseFeePerGas": "0x77359400"}) // 2 gwei
				f.Respond(provider.MethodMaxPriorityFeePerGas, "0x3b9aca00")                                // 1 gwei
			},
			want:   gwei(5),
			source: SourceDynamic,
		},
		{
			name: "zero gas price falls through to max fee",
			setup: func(f *providertest.Fake) {
				f.Respond(provider.MethodGasPrice, "0x0")
				f.Respond(provider.MethodGetBlockByNumber, map[string]string{"baseFeePerGas": "0x3b9aca00"})
				f.Respond(provider.MethodMaxPriorityFeePerGas, "0x0")
			},
			want:   gwei(2),
			source: SourceDynamic,
		},
		{
			name:   "fallback when nothing is available",
			setup:  func(*providertest.Fake) {},
			want:   gwei(20),
			source: SourceFallback,
		},
		{
			name: "fallback when block has no base fee",
			setup: func(f *providertest.Fake) {
				f.Respond(provider.MethodGetBlockByNumber, map[string]string{"number": "0x1"})
				f.Respond(provider.MethodMaxPriorityFeePerGas, "0x1")
			},
			want:   gwei(20),
			source: SourceFallback,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := providertest.New()
			tc.setup(fake)
			m := metrics.New()

			q := NewOracle(provider.NewAccessor(fake), &Options{Metrics: m}).Quote(context.Background())
			assert.Equal(t, tc.want, q.Price)
			assert.Equal(t, tc.source, q.Source)
			assert.InDelta(t, 1, m.GasSources(string(tc.source)), 0)
		})
	}
}

func TestOracle_NoWallet(t *testing.T) {
	t.Parallel()

	o := NewOracle(provider.NewAccessor(nil), &Options{Metrics: metrics.New()})
	price := o.GasPrice(context.Background())
	assert.Equal(t, FallbackGasPrice, price)

	// Returned value must not alias the package fallback
	price.SetInt64(1)
	assert.Equal(t, gwei(20), FallbackGasPrice)
}

func TestOracle_Speed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		speed Speed
		want  *big.Int
	}{
		{SpeedSlow, gwei(16)},
		{SpeedMedium, gwei(20)},
		{SpeedFast, gwei(24)},
	}

	for _, tc := range tests {
		t.Run(string(tc.speed), func(t *testing.T) {
			t.Parallel()
			fake := providertest.New().Respond(provider.MethodGasPrice, "0x4a817c800")
			o := NewOracle(provider.NewAccessor(fake), &Options{Speed: tc.speed, Metrics: metrics.New()})
			assert.Equal(t, tc.want, o.GasPrice(context.Background()))
		})
	}

	// Fallback is never scaled
	o := NewOracle(provider.NewAccessor(providertest.New()), &Options{Speed: SpeedFast, Metrics: metrics.New()})
	assert.Equal(t, gwei(20), o.GasPrice(context.Background()))
}

func TestFormatGwei(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 Gwei", FormatGwei(nil))
	assert.Equal(t, "20.00 Gwei", FormatGwei(gwei(20)))
	assert.Equal(t, "1.50 Gwei", FormatGwei(big.NewInt(1_500_000_000)))
}
