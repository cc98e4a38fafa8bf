package preconfengine

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/bindings/encoding"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/basefee"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/whitelist"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/preconfirmation"
)

func buildTestEngine(
	t *testing.T,
	backend *mockBackend,
	anchorBuilder *mockAnchorBuilder,
	applier *mockApplier,
	signerAdmission SignerAdmission,
) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), backend, anchorBuilder, applier, signerAdmission, DefaultConfig(), basefee.Config{}, 0)
	require.NoError(t, err)
	return e
}

// testSignerKey is a fixed key used to sign test commitments; every test
// that expects a commitment to pass admission allows this key's address.
func testSignerKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA("49f6c3a96e0bba90a0e3f03f3b8b3ab26c2c83e93d4c2a89c0b5b8f3a1c1e1e1")
	require.NoError(t, err)
	return key
}

// signCommitment computes c's signing hash and sets c.Signature to a
// signature over it by key, as a real sequencer would.
func signCommitment(t *testing.T, c *preconfirmation.SignedCommitment, key *ecdsa.PrivateKey) {
	t.Helper()
	hash, err := c.SigningHash()
	require.NoError(t, err)
	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	c.Signature = sig
}

func sampleTxlist(t *testing.T) (compressed []byte, hash common.Hash) {
	t.Helper()

	tx := types.NewTransaction(0, common.HexToAddress("0x01"), big.NewInt(0), 21000, big.NewInt(1), nil)
	raw, err := encoding.EncodeTransactions(types.Transactions{tx})
	require.NoError(t, err)

	compressed, err = encoding.CompressTxList(raw)
	require.NoError(t, err)

	return compressed, crypto.Keccak256Hash(compressed)
}

func TestApplyCommitmentEOPShortCircuit(t *testing.T) {
	backend := newMockBackend()
	anchorBuilder := &mockAnchorBuilder{}
	applier := &mockApplier{}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		BlockNumber: big.NewInt(9),
		EOP:         true,
	}
	signCommitment(t, commitment, key)

	signerAdmission := allowOnlySigner(crypto.PubkeyToAddress(key.PublicKey))
	e := buildTestEngine(t, backend, anchorBuilder, applier, signerAdmission)

	outcome, err := e.ApplyCommitment(context.Background(), commitment, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(9), outcome.BlockNumber)
	require.Equal(t, common.Hash{}, outcome.BlockHash)

	require.Empty(t, anchorBuilder.calls)
	require.Empty(t, applier.applyCalls)
	require.Len(t, signerAdmission.checked, 1)
}

func TestApplyCommitmentRejectsDisallowedSigner(t *testing.T) {
	backend := newMockBackend()
	anchorBuilder := &mockAnchorBuilder{}
	applier := &mockApplier{}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		BlockNumber: big.NewInt(9),
		EOP:         true,
	}
	signCommitment(t, commitment, key)

	// Nothing is allowed, so the recovered signer is rejected.
	signerAdmission := allowOnlySigner(common.HexToAddress("0xdead"))
	e := buildTestEngine(t, backend, anchorBuilder, applier, signerAdmission)

	_, err := e.ApplyCommitment(context.Background(), commitment, nil)
	require.Error(t, err)

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	require.Equal(t, KindRejected, engineErr.Kind)

	require.Empty(t, anchorBuilder.calls)
	require.Empty(t, applier.applyCalls)
}

func TestApplyCommitmentMapsWhitelistLookupFailure(t *testing.T) {
	backend := newMockBackend()
	anchorBuilder := &mockAnchorBuilder{}
	applier := &mockApplier{}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		BlockNumber: big.NewInt(9),
		EOP:         true,
	}
	signCommitment(t, commitment, key)

	signerAdmission := allowAllSigners()
	signerAdmission.err = &whitelist.Error{Kind: whitelist.KindLookup, Msg: "snapshot fetch failed"}
	e := buildTestEngine(t, backend, anchorBuilder, applier, signerAdmission)

	_, err := e.ApplyCommitment(context.Background(), commitment, nil)
	require.Error(t, err)

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	require.Equal(t, KindUnavailable, engineErr.Kind)
}

func TestApplyCommitmentBuildsAndSubmits(t *testing.T) {
	backend := newMockBackend()
	parentHeader := &types.Header{Number: big.NewInt(0), GasLimit: 30_000_000}
	backend.l2Headers[0] = parentHeader

	anchorL1Header := &types.Header{Number: big.NewInt(7), Root: common.HexToHash("0xaa")}
	backend.l1Headers[7] = anchorL1Header

	txlist, hash := sampleTxlist(t)

	anchorBuilder := &mockAnchorBuilder{}
	applier := &mockApplier{}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		ProposalID:        big.NewInt(1),
		BlockNumber:       big.NewInt(1),
		Timestamp:         big.NewInt(100),
		GasLimit:          big.NewInt(1_000_000),
		Coinbase:          common.HexToAddress("0xbb"),
		AnchorBlockNumber: big.NewInt(7),
		RawTxListHash:     hash,
		ProverAuth:        []byte{0xde, 0xad, 0xbe, 0xef},
	}
	signCommitment(t, commitment, key)

	e := buildTestEngine(t, backend, anchorBuilder, applier, allowOnlySigner(crypto.PubkeyToAddress(key.PublicKey)))

	outcome, err := e.ApplyCommitment(context.Background(), commitment, txlist)
	require.NoError(t, err)
	require.Equal(t, uint64(1), outcome.BlockNumber)

	require.Len(t, anchorBuilder.calls, 1)
	require.Equal(t, uint64(7), anchorBuilder.calls[0].AnchorBlockNumber)
	require.Equal(t, uint64(1), anchorBuilder.calls[0].L2Height)

	require.Len(t, applier.applyCalls, 1)
	submittedTxs, err := encoding.DecodeTransactions(applier.applyCalls[0].payload.TxListRLP)
	require.NoError(t, err)
	require.Len(t, submittedTxs, 2) // anchor tx + the one supplied tx
}

func TestApplyCommitmentRejectsTxListHashMismatch(t *testing.T) {
	backend := newMockBackend()
	backend.l2Headers[0] = &types.Header{Number: big.NewInt(0)}
	backend.l1Headers[7] = &types.Header{Number: big.NewInt(7)}

	txlist, _ := sampleTxlist(t)

	anchorBuilder := &mockAnchorBuilder{}
	applier := &mockApplier{}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		ProposalID:        big.NewInt(1),
		BlockNumber:       big.NewInt(1),
		Timestamp:         big.NewInt(100),
		GasLimit:          big.NewInt(1_000_000),
		Coinbase:          common.HexToAddress("0xbb"),
		AnchorBlockNumber: big.NewInt(7),
		RawTxListHash:     common.HexToHash("0xdeadbeef"),
	}
	signCommitment(t, commitment, key)

	e := buildTestEngine(t, backend, anchorBuilder, applier, allowOnlySigner(crypto.PubkeyToAddress(key.PublicKey)))

	_, err := e.ApplyCommitment(context.Background(), commitment, txlist)
	require.Error(t, err)

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	require.Equal(t, KindRejected, engineErr.Kind)

	// The hash check happens before the anchor L1 header is fetched, so
	// neither the anchor builder nor the payload applier should run.
	require.Empty(t, anchorBuilder.calls)
	require.Empty(t, applier.applyCalls)
}

func TestApplyCommitmentMapsSubmissionError(t *testing.T) {
	backend := newMockBackend()
	backend.l2Headers[0] = &types.Header{Number: big.NewInt(0)}
	backend.l1Headers[7] = &types.Header{Number: big.NewInt(7)}

	txlist, hash := sampleTxlist(t)

	applier := &mockApplier{err: &SubmissionError{Kind: SubmissionEngineSyncing, BlockNumber: 1}}
	key := testSignerKey(t)

	commitment := &preconfirmation.SignedCommitment{
		ProposalID:        big.NewInt(1),
		BlockNumber:       big.NewInt(1),
		Timestamp:         big.NewInt(100),
		GasLimit:          big.NewInt(1_000_000),
		Coinbase:          common.HexToAddress("0xbb"),
		AnchorBlockNumber: big.NewInt(7),
		RawTxListHash:     hash,
	}
	signCommitment(t, commitment, key)

	e := buildTestEngine(t, backend, &mockAnchorBuilder{}, applier, allowOnlySigner(crypto.PubkeyToAddress(key.PublicKey)))

	_, err := e.ApplyCommitment(context.Background(), commitment, txlist)
	require.Error(t, err)

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	require.Equal(t, KindRejected, engineErr.Kind)
}

func TestHandleReorgIsNoOp(t *testing.T) {
	e := buildTestEngine(t, newMockBackend(), &mockAnchorBuilder{}, &mockApplier{}, allowAllSigners())
	require.NoError(t, e.HandleReorg(context.Background(), 42))
}
