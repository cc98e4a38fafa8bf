package preconfengine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/bindings/encoding"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/anchor"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/basefee"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/preconfirmation"
)

// anchorGasLimit is added on top of a commitment's own gas limit to budget
// for the anchor transaction's execution, saturating rather than
// overflowing if a commitment already asks for close to the u64 ceiling.
const anchorGasLimit = 1_000_000

func saturatingAddUint64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// buildPreconfPayload implements the mandatory, ordered construction steps:
// range-check every integer field, require a tx list unless this is the
// empty terminator, verify the tx list's hash before attempting to
// decompress it, decompress and RLP-decode it, fetch the parent block,
// compute the base fee and difficulty, fetch the anchor L1 block, build and
// prepend the anchor transaction, encode the combined tx list and extra
// data, compute the payload-build-args id, and zero-pad the prover
// authorization into the (fake) L1Origin signature field.
func (e *Engine) buildPreconfPayload(
	ctx context.Context,
	commitment *preconfirmation.SignedCommitment,
	txlist []byte,
) (*PayloadAttributes, common.Hash, *Error) {
	blockNumber, err := preconfirmation.ToUint64(commitment.BlockNumber)
	if err != nil {
		return nil, common.Hash{}, Other("invalid block number", err)
	}

	timestamp, err := preconfirmation.ToUint64(commitment.Timestamp)
	if err != nil {
		return nil, common.Hash{}, Other("invalid timestamp", err)
	}

	gasLimit, err := preconfirmation.ToUint64(commitment.GasLimit)
	if err != nil {
		return nil, common.Hash{}, Other("invalid gas limit", err)
	}

	anchorBlockNumber, err := preconfirmation.ToUint64(commitment.AnchorBlockNumber)
	if err != nil {
		return nil, common.Hash{}, Other("invalid anchor block number", err)
	}

	proposalID, err := preconfirmation.ToUint64(commitment.ProposalID)
	if err != nil {
		return nil, common.Hash{}, Other("invalid proposal id", err)
	}

	if len(txlist) == 0 && !commitment.IsRawTxListHashZero() {
		return nil, common.Hash{}, Other("missing txlist", nil)
	}

	if err := ensureTxListHashMatches(txlist, commitment.RawTxListHash); err != nil {
		return nil, common.Hash{}, Rejected("txlist hash mismatch", err)
	}

	decompressed, err := encoding.DecompressTxList(txlist)
	if err != nil {
		return nil, common.Hash{}, Rejected("txlist decompression failed", err)
	}

	txs, err := encoding.DecodeTransactions(decompressed)
	if err != nil {
		return nil, common.Hash{}, Rejected("txlist decode failed", err)
	}

	if blockNumber == 0 {
		return nil, common.Hash{}, Other("missing parent block", fmt.Errorf("block number must be greater than zero"))
	}

	parent, err := e.backend.L2HeaderByNumber(ctx, blockNumber-1)
	if err != nil {
		return nil, common.Hash{}, Other("missing parent block", err)
	}

	baseFee, err := basefee.NextBlockBaseFee(ctx, e.backend, e.baseFeeConfig, parent)
	if err != nil {
		return nil, common.Hash{}, Other("failed to compute base fee", err)
	}

	difficulty, err := encoding.CalculateShastaDifficulty(parent.MixDigest, blockNumber)
	if err != nil {
		return nil, common.Hash{}, Other("failed to compute difficulty", err)
	}

	anchorBlock, err := e.backend.L1HeaderByNumber(ctx, anchorBlockNumber)
	if err != nil {
		return nil, common.Hash{}, Other(fmt.Sprintf("missing l1 block %d", anchorBlockNumber), err)
	}

	anchorTx, err := e.anchorBuilder.BuildAnchorV4Tx(ctx, parent.Hash(), anchor.Input{
		ProposalID:        proposalID,
		AnchorBlockNumber: anchorBlockNumber,
		L2Height:          blockNumber,
		Proposer:          commitment.Coinbase,
		ProverAuth:        commitment.ProverAuth,
		AnchorBlockHash:   anchorBlock.Hash(),
		AnchorStateRoot:   anchorBlock.Root,
		ParentGasUsed:     parent.GasUsed,
		BaseFee:           baseFee,
	})
	if err != nil {
		return nil, common.Hash{}, Other("failed to build anchor transaction", err)
	}

	combined := make(types.Transactions, 0, len(txs)+1)
	combined = append(combined, anchorTx)
	combined = append(combined, txs...)

	txListRLP, err := encoding.EncodeTransactions(combined)
	if err != nil {
		return nil, common.Hash{}, Other("failed to re-encode tx list", err)
	}

	extraData := encoding.EncodeExtraData(e.config.BasefeeSharingPctg, e.config.IsLowBondProposal)

	argsID, err := encoding.ComputeBuildPayloadArgsID(
		parent.Hash(), timestamp, difficulty, commitment.Coinbase, nil, txListRLP,
	)
	if err != nil {
		return nil, common.Hash{}, Other("failed to compute build payload args id", err)
	}

	payload := &PayloadAttributes{
		Attributes: &engine.PayloadAttributes{
			Timestamp:             timestamp,
			Random:                difficulty,
			SuggestedFeeRecipient: commitment.Coinbase,
			Withdrawals:           types.Withdrawals{},
		},
		L1Origin: L1Origin{
			BlockID:            blockNumber,
			L2BlockHash:        common.Hash{},
			L1BlockHeight:      anchorBlockNumber,
			L1BlockHash:        anchorBlock.Hash(),
			BuildPayloadArgsID: argsID,
			ForcedInclusion:    false,
			Signature:          signatureFromProverAuth(commitment.ProverAuth),
		},
		Beneficiary: commitment.Coinbase,
		GasLimit:    saturatingAddUint64(gasLimit, anchorGasLimit),
		Timestamp:   timestamp,
		MixHash:     difficulty,
		ExtraData:   extraData[:],
		TxListRLP:   txListRLP,
	}

	return payload, parent.Hash(), nil
}

// signatureFromProverAuth zero-pads (or truncates) the prover authorization
// blob into the fixed 65-byte signature field. This is not a real ECDSA
// signature and is preserved exactly as the upstream driver constructs it:
// the field exists for wire-format compatibility, not for verification.
func signatureFromProverAuth(proverAuth []byte) [65]byte {
	var sig [65]byte
	n := len(proverAuth)
	if n > len(sig) {
		n = len(sig)
	}
	copy(sig[:n], proverAuth[:n])
	return sig
}

// ensureTxListHashMatches verifies a tx list's hash before any decompression
// is attempted, so a corrupted or mismatched blob never reaches the zlib
// reader.
func ensureTxListHashMatches(txlist []byte, want common.Hash) error {
	got := crypto.Keccak256Hash(txlist)
	if got != want {
		return fmt.Errorf("txlist hash mismatch: want %s got %s", want, got)
	}
	return nil
}
