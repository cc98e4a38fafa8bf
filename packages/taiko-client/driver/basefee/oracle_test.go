package basefee

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	headers map[uint64]*types.Header
}

func (m *mockBackend) L2Head(ctx context.Context) (*types.Block, error) { return nil, nil }
func (m *mockBackend) L2BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	return nil, nil
}
func (m *mockBackend) L2HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	h, ok := m.headers[number]
	if !ok {
		return nil, errNotFound
	}
	return h, nil
}
func (m *mockBackend) L1HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	return nil, nil
}
func (m *mockBackend) L2ChainID(ctx context.Context) (uint64, error) { return 0, nil }
func (m *mockBackend) L2SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	return nil, nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

var errNotFound = notFoundErr{}

func TestNextBlockBaseFeeGenesis(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(0)}
	fee, err := NextBlockBaseFee(context.Background(), &mockBackend{}, Config{}, parent)
	require.NoError(t, err)
	require.Equal(t, ShastaInitialBaseFee, fee)
}

func TestNextBlockBaseFeeAtTarget(t *testing.T) {
	grandparent := &types.Header{Number: big.NewInt(0), Time: 0}
	parent := &types.Header{
		Number:   big.NewInt(1),
		Time:     2,
		BaseFee:  big.NewInt(1_000_000_000),
		GasUsed:  15_000_000,
		GasLimit: 30_000_000,
	}
	backend := &mockBackend{headers: map[uint64]*types.Header{0: grandparent}}

	fee, err := NextBlockBaseFee(context.Background(), backend, Config{}, parent)
	require.NoError(t, err)
	require.Equal(t, parent.BaseFee.Uint64(), fee.Uint64())
}

func TestNextBlockBaseFeeAboveTargetIncreases(t *testing.T) {
	grandparent := &types.Header{Number: big.NewInt(0), Time: 0}
	parent := &types.Header{
		Number:   big.NewInt(1),
		Time:     1,
		BaseFee:  big.NewInt(1_000_000_000),
		GasUsed:  30_000_000,
		GasLimit: 30_000_000,
	}
	backend := &mockBackend{headers: map[uint64]*types.Header{0: grandparent}}

	fee, err := NextBlockBaseFee(context.Background(), backend, Config{}, parent)
	require.NoError(t, err)
	require.Greater(t, fee.Uint64(), parent.BaseFee.Uint64())
}

func TestNextBlockBaseFeeMissingGrandparent(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(5), Time: 10, BaseFee: big.NewInt(1)}
	_, err := NextBlockBaseFee(context.Background(), &mockBackend{}, Config{}, parent)
	require.Error(t, err)
}
