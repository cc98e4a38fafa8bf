package preconfengine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/anchor"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/whitelist"
)

type mockBackend struct {
	head      *types.Block
	l2Headers map[uint64]*types.Header
	l2Blocks  map[uint64]*types.Block
	l1Headers map[uint64]*types.Header
	chainID   uint64
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		l2Headers: map[uint64]*types.Header{},
		l2Blocks:  map[uint64]*types.Block{},
		l1Headers: map[uint64]*types.Header{},
		chainID:   167000,
	}
}

func (m *mockBackend) L2Head(ctx context.Context) (*types.Block, error) { return m.head, nil }

func (m *mockBackend) L2BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	b, ok := m.l2Blocks[number]
	if !ok {
		return nil, errMockNotFound
	}
	return b, nil
}

func (m *mockBackend) L2HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	h, ok := m.l2Headers[number]
	if !ok {
		return nil, errMockNotFound
	}
	return h, nil
}

func (m *mockBackend) L1HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	h, ok := m.l1Headers[number]
	if !ok {
		return nil, errMockNotFound
	}
	return h, nil
}

func (m *mockBackend) L2ChainID(ctx context.Context) (uint64, error) { return m.chainID, nil }

func (m *mockBackend) L2SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	return nil, nil
}

type mockNotFoundErr struct{}

func (mockNotFoundErr) Error() string { return "mock: not found" }

var errMockNotFound = mockNotFoundErr{}

type mockAnchorBuilder struct {
	calls []anchor.Input
}

func (m *mockAnchorBuilder) BuildAnchorV4Tx(ctx context.Context, parentHash common.Hash, in anchor.Input) (*types.Transaction, error) {
	m.calls = append(m.calls, in)
	return types.NewTransaction(in.L2Height, common.Address{}, big.NewInt(0), 21000, big.NewInt(1), nil), nil
}

type mockApplier struct {
	applyCalls []struct {
		payload    *PayloadAttributes
		parentHash common.Hash
	}
	nextBlockNumber uint64
	err             *SubmissionError
}

func (m *mockApplier) ApplyPayload(
	ctx context.Context,
	payload *PayloadAttributes,
	parentHash common.Hash,
	finalizedHash *common.Hash,
) (*AppliedPayload, *SubmissionError) {
	m.applyCalls = append(m.applyCalls, struct {
		payload    *PayloadAttributes
		parentHash common.Hash
	}{payload, parentHash})

	if m.err != nil {
		return nil, m.err
	}

	header := &types.Header{Number: new(big.Int).SetUint64(payload.L1Origin.BlockID)}
	block := types.NewBlockWithHeader(header)

	return &AppliedPayload{Block: block, PayloadID: [8]byte(payload.L1Origin.BuildPayloadArgsID)}, nil
}

// mockSignerAdmission is a SignerAdmission that allows a fixed set of
// addresses, recording every signer it was asked about.
type mockSignerAdmission struct {
	allowed map[common.Address]bool
	checked []common.Address
	err     error
}

func allowAllSigners() *mockSignerAdmission {
	return &mockSignerAdmission{}
}

func allowOnlySigner(addr common.Address) *mockSignerAdmission {
	return &mockSignerAdmission{allowed: map[common.Address]bool{addr: true}}
}

func (m *mockSignerAdmission) EnsureSignerAllowed(ctx context.Context, signer common.Address, now time.Time) error {
	m.checked = append(m.checked, signer)
	if m.err != nil {
		return m.err
	}
	if m.allowed == nil {
		return nil
	}
	if m.allowed[signer] {
		return nil
	}
	return &whitelist.Error{Kind: whitelist.KindInvalidSignature, Msg: "signer is not the whitelisted sequencer"}
}

func (m *mockApplier) AttributesToBlocks(
	ctx context.Context,
	payloads []*PayloadAttributes,
) ([]EngineBlockOutcome, *SubmissionError) {
	outcomes := make([]EngineBlockOutcome, 0, len(payloads))
	for _, p := range payloads {
		applied, err := m.ApplyPayload(ctx, p, common.Hash{}, nil)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, EngineBlockOutcome{Block: applied.Block, PayloadID: applied.PayloadID})
	}
	return outcomes, nil
}
