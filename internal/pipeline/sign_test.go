package pipeline_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/swapdesk/internal/pipeline"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/txbuilder"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

func TestNewSignRequest(t *testing.T) {
	t.Parallel()

	in := nativeIntent()
	in.TransactionRequest.Data = "0xdead"

	req, err := pipeline.NewSignRequest(in, big.NewInt(20_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, sender, req.From)
	assert.Equal(t, recipient, req.To)
	assert.Equal(t, "0xde0b6b3a7640000", req.Value.String())
	assert.Equal(t, hexutil.Uint64(txbuilder.DefaultGasLimit), req.GasLimit)
	assert.Equal(t, "0x4a817c800", req.MaxFeePerGas.String())
	assert.Equal(t, "0xa", req.MaxPriorityFeePerGas.String())
	assert.Equal(t, hexutil.Uint64(0), req.Nonce)
	assert.Equal(t, hexutil.Bytes{0xde, 0xad}, req.Data)
}

func TestSign(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fake.Respond(provider.MethodSignTransaction, "0xf86c0a8502540be400")

	signed, err := h.pipeline.Sign(context.Background(), nativeIntent())
	require.NoError(t, err)
	assert.Equal(t, "0xf86c0a8502540be400", signed)
	assert.Equal(t, []string{provider.MethodSignTransaction}, h.fake.Methods())
	assert.Equal(t, 0, h.gas.count())

	calls := h.fake.CallsTo(provider.MethodSignTransaction)
	req, ok := calls[0].Params[0].(*pipeline.SignRequest)
	require.True(t, ok)
	assert.Equal(t, "0x4a817c800", req.MaxFeePerGas.String())
}

func TestSign_Rejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.fake.Reject(provider.MethodSignTransaction, provider.CodeUserRejected, "User rejected the request.")

	_, err := h.pipeline.Sign(context.Background(), nativeIntent())
	require.ErrorIs(t, err, deskerr.ErrSignatureFailed)
	assert.True(t, provider.IsUserRejected(err))
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result any
		want   pipeline.Status
	}{
		{"pending", nil, pipeline.StatusPending},
		{"success", receipt(mainHash, "0x1"), pipeline.StatusSuccess},
		{"failed", receipt(mainHash, "0x0"), pipeline.StatusFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.fake.Respond(provider.MethodTransactionReceipt, tc.result)

			got, err := h.pipeline.Status(context.Background(), mainHash)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			calls := h.fake.CallsTo(provider.MethodTransactionReceipt)
			require.Len(t, calls, 1)
			assert.Equal(t, []any{mainHash}, calls[0].Params)
		})
	}
}

func TestStatus_InvalidHash(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, hash := range []string{"", "0x1234", "1f2b7c9d0b2f4f4b8c9e1a3d5f7b9c1e3a5d7f9b1c3e5a7d9f1b3c5e7a9d1f3b"} {
		_, err := h.pipeline.Status(context.Background(), hash)
		require.ErrorIs(t, err, deskerr.ErrInvalidInput, hash)
	}
	assert.Empty(t, h.fake.Calls())
}
