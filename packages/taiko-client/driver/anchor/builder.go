// Package anchor builds the anchor transaction every Taiko L2 block carries
// at transaction index 0, the same role the teacher's
// `blocks_inserter.BlocksInserterPacaya` fills via `AssembleAnchorV3Tx`,
// generalized one fork forward to Shasta's anchor v4 call and to
// preconfirmation-specific inputs (a prover authorization blob rather than a
// settled proof).
package anchor

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// goldenTouchPrivateKeyHex is the Taiko protocol's well-known deterministic
// system-transaction signing key: every anchor transaction on every Taiko L2
// is signed with it, and the L2 execution client grants the resulting
// address gas-free system-call privileges. It is not a secret.
const goldenTouchPrivateKeyHex = "92954368afd3caa1f3ce3ead0069c1af414054aefe1ef9aeacc1bf426222ce38"

// Input carries the fields specific to one anchor transaction.
type Input struct {
	ProposalID        uint64
	AnchorBlockNumber uint64
	L2Height          uint64
	Proposer          common.Address
	ProverAuth        []byte
	AnchorBlockHash   common.Hash
	AnchorStateRoot   common.Hash
	ParentGasUsed     uint64
	BaseFee           *uint256.Int
}

// Builder constructs the anchor transaction for one L2 block.
type Builder interface {
	BuildAnchorV4Tx(ctx context.Context, parentHash common.Hash, in Input) (*types.Transaction, error)
}

// GoldenTouchBuilder signs anchor transactions with the protocol's fixed
// golden-touch key, using a nonce derived from the target L2 height so that
// repeated calls for the same height are deterministic.
type GoldenTouchBuilder struct {
	chainID *uint256.Int
	key     *ecdsa.PrivateKey
}

var _ Builder = (*GoldenTouchBuilder)(nil)

// NewGoldenTouchBuilder constructs a Builder bound to the given L2 chain id.
func NewGoldenTouchBuilder(chainID *uint256.Int) (*GoldenTouchBuilder, error) {
	key, err := crypto.HexToECDSA(goldenTouchPrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load golden touch key: %w", err)
	}

	return &GoldenTouchBuilder{chainID: chainID, key: key}, nil
}

// BuildAnchorV4Tx assembles and signs the anchor v4 transaction for the
// given parent block.
func (b *GoldenTouchBuilder) BuildAnchorV4Tx(
	_ context.Context,
	parentHash common.Hash,
	in Input,
) (*types.Transaction, error) {
	data, err := packAnchorV4Input(parentHash, in)
	if err != nil {
		return nil, fmt.Errorf("failed to pack anchor v4 input: %w", err)
	}

	if in.BaseFee == nil {
		return nil, fmt.Errorf("anchor transaction requires a base fee")
	}

	txData := &types.DynamicFeeTx{
		ChainID:   b.chainID.ToBig(),
		Nonce:     in.L2Height,
		GasTipCap: common.Big0,
		GasFeeCap: in.BaseFee.ToBig(),
		Gas:       anchorGasLimit,
		To:        &taikoAnchorAddress,
		Value:     common.Big0,
		Data:      data,
	}

	signer := types.NewLondonSigner(b.chainID.ToBig())

	signedTx, err := types.SignNewTx(b.key, signer, txData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign anchor v4 tx: %w", err)
	}

	return signedTx, nil
}

// anchorGasLimit is the fixed gas allotment every anchor transaction is
// budgeted, regardless of its actual execution cost.
const anchorGasLimit = 1_000_000

// taikoAnchorAddress is the predeployed L2 system contract the anchor
// transaction calls.
var taikoAnchorAddress = common.HexToAddress("0x1670000000000000000000000000000000001")
