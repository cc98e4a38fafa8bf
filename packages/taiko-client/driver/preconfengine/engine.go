package preconfengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/basefee"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/whitelist"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/preconfirmation"
)

// compile-time assertion that the whitelist cache satisfies the admission
// dependency this package injects into Engine.
var _ SignerAdmission = (*whitelist.Cache)(nil)

// Engine is the preconfirmation engine façade: it owns the backend, anchor
// builder and payload applier capabilities it was constructed with, and
// presents the four operations a caller driving preconfirmation admission
// needs. Every dependency is injected at construction time; there is no
// global registry to wire up.
type Engine struct {
	backend         Backend
	anchorBuilder   AnchorBuilder
	applier         PayloadApplier
	signerAdmission SignerAdmission
	config          Config
	baseFeeConfig   basefee.Config

	// chainID and shastaForkTimestamp are read once at construction and
	// never mutated afterward.
	chainID             uint64
	shastaForkTimestamp uint64
}

// NewEngine constructs a preconfirmation engine bound to the given
// capabilities. The L2 chain id is fetched once from the backend.
// signerAdmission gates every commitment through the whitelist check before
// its payload is built; pass a *whitelist.Cache in production.
func NewEngine(
	ctx context.Context,
	backend Backend,
	anchorBuilder AnchorBuilder,
	applier PayloadApplier,
	signerAdmission SignerAdmission,
	cfg Config,
	baseFeeConfig basefee.Config,
	shastaForkTimestamp uint64,
) (*Engine, error) {
	chainID, err := backend.L2ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L2 chain id: %w", err)
	}

	return &Engine{
		backend:             backend,
		anchorBuilder:       anchorBuilder,
		applier:             applier,
		signerAdmission:     signerAdmission,
		config:              cfg,
		baseFeeConfig:       baseFeeConfig,
		chainID:             chainID,
		shastaForkTimestamp: shastaForkTimestamp,
	}, nil
}

// EngineHead returns the engine's current canonical L2 head.
func (e *Engine) EngineHead(ctx context.Context) (EngineHead, error) {
	block, err := e.backend.L2Head(ctx)
	if err != nil {
		return EngineHead{}, Unavailable("failed to fetch engine head", err).asError()
	}

	return EngineHead{BlockNumber: block.NumberU64(), BlockHash: block.Hash()}, nil
}

// IsSynced reports whether the engine believes it is caught up with its
// peers.
func (e *Engine) IsSynced(ctx context.Context) (bool, error) {
	progress, err := e.backend.L2SyncProgress(ctx)
	if err != nil {
		return false, Unavailable("failed to fetch sync progress", err).asError()
	}

	return progress == nil, nil
}

// ApplyCommitment verifies a signed commitment's signer against the
// whitelist, then builds an L2 block from the commitment and submits it to
// the engine, short-circuiting the end-of-preconfirming terminator (EOP set,
// no tx list, and an all-zero raw tx list hash) without touching the
// backend, anchor builder, or engine at all. The whitelist check runs ahead
// of that short-circuit: an EOP terminator is still a signed commitment and
// still needs its signer verified.
func (e *Engine) ApplyCommitment(
	ctx context.Context,
	commitment *preconfirmation.SignedCommitment,
	txlist []byte,
) (EngineApplyOutcome, error) {
	signer, err := commitment.RecoverSigner()
	if err != nil {
		return EngineApplyOutcome{}, Rejected("invalid commitment signature", err)
	}

	if err := e.signerAdmission.EnsureSignerAllowed(ctx, signer, time.Now()); err != nil {
		return EngineApplyOutcome{}, MapWhitelistError(err)
	}

	if commitment.EOP && len(txlist) == 0 && commitment.IsRawTxListHashZero() {
		blockNumber, err := preconfirmation.ToUint64(commitment.BlockNumber)
		if err != nil {
			return EngineApplyOutcome{}, Other("invalid block number", err)
		}
		return EngineApplyOutcome{BlockNumber: blockNumber, BlockHash: common.Hash{}}, nil
	}

	payload, parentHash, buildErr := e.buildPreconfPayload(ctx, commitment, txlist)
	if buildErr != nil {
		return EngineApplyOutcome{}, buildErr
	}

	applied, submitErr := e.applier.ApplyPayload(ctx, payload, parentHash, nil)
	if submitErr != nil {
		return EngineApplyOutcome{}, MapSubmissionError(submitErr)
	}

	if mismatch := payload.L1Origin.BuildPayloadArgsID != [8]byte(applied.PayloadID); mismatch {
		log.Warn(
			"Preconf payload build args id does not match engine-assigned payload id",
			"blockNumber", payload.L1Origin.BlockID,
			"wantArgsID", payload.L1Origin.BuildPayloadArgsID,
			"enginePayloadID", applied.PayloadID,
		)
	}

	log.Info(
		"Preconf commitment applied",
		"blockNumber", applied.Block.NumberU64(),
		"blockHash", applied.Block.Hash(),
	)

	return EngineApplyOutcome{BlockNumber: applied.Block.NumberU64(), BlockHash: applied.Block.Hash()}, nil
}

// HandleReorg is intentionally a no-op. Nothing in this core's state needs
// invalidating on an L1 reorg: the engine is re-primed from scratch on the
// next commitment regardless, and this method exists only so the façade
// interface mirrors the upstream driver's.
func (e *Engine) HandleReorg(ctx context.Context, anchorBlockNumber uint64) error {
	return nil
}

func (e *Error) asError() error { return e }
