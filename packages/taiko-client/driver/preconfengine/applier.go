package preconfengine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/rpc"
)

// RPCPayloadApplier drives the Engine API's four-step protocol against a
// live engine over JSON-RPC: prime with forkchoiceUpdated, retrieve with
// getPayload, submit with newPayload, and promote with a second
// forkchoiceUpdated. All four calls happen inside one ApplyPayload
// invocation with nothing else interleaved between them.
type RPCPayloadApplier struct {
	engine  *rpc.EngineClient
	backend Backend
}

var _ PayloadApplier = (*RPCPayloadApplier)(nil)

// NewRPCPayloadApplier constructs a PayloadApplier bound to the given Engine
// API client and backend.
func NewRPCPayloadApplier(engineClient *rpc.EngineClient, backend Backend) *RPCPayloadApplier {
	return &RPCPayloadApplier{engine: engineClient, backend: backend}
}

func (a *RPCPayloadApplier) ApplyPayload(
	ctx context.Context,
	payload *PayloadAttributes,
	parentHash common.Hash,
	finalizedHash *common.Hash,
) (*AppliedPayload, *SubmissionError) {
	finalized := common.Hash{}
	if finalizedHash != nil {
		finalized = *finalizedHash
	}

	primeState := &engine.ForkchoiceStateV1{
		HeadBlockHash:      parentHash,
		SafeBlockHash:      parentHash,
		FinalizedBlockHash: finalized,
	}

	fcResp, err := a.engine.ForkchoiceUpdated(ctx, primeState, payload.Attributes)
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	if fcResp.PayloadID == nil {
		return nil, &SubmissionError{Kind: SubmissionMissingPayloadID}
	}

	envelope, err := a.engine.GetPayload(ctx, *fcResp.PayloadID)
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	executable := envelope.ExecutionPayload

	status, err := a.engine.NewPayload(ctx, executable)
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	if err := ensureValidPayloadStatus(executable.Number, status); err != nil {
		return nil, err
	}

	promoteState := &engine.ForkchoiceStateV1{
		HeadBlockHash:      executable.BlockHash,
		SafeBlockHash:      finalized,
		FinalizedBlockHash: finalized,
	}

	if _, err := a.engine.ForkchoiceUpdated(ctx, promoteState, nil); err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	block, fetchErr := a.backend.L2BlockByNumber(ctx, executable.Number)
	if fetchErr != nil || block == nil || block.Hash() != executable.BlockHash {
		return nil, &SubmissionError{Kind: SubmissionMissingInsertedBlock, BlockNumber: executable.Number}
	}

	return &AppliedPayload{Block: block, PayloadID: *fcResp.PayloadID}, nil
}

func (a *RPCPayloadApplier) AttributesToBlocks(
	ctx context.Context,
	payloads []*PayloadAttributes,
) ([]EngineBlockOutcome, *SubmissionError) {
	head, err := a.backend.L2Head(ctx)
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionProvider, Err: err}
	}

	parentHash := head.Hash()
	outcomes := make([]EngineBlockOutcome, 0, len(payloads))

	for _, payload := range payloads {
		applied, submitErr := a.ApplyPayload(ctx, payload, parentHash, nil)
		if submitErr != nil {
			return nil, submitErr
		}

		outcomes = append(outcomes, EngineBlockOutcome{Block: applied.Block, PayloadID: applied.PayloadID})
		parentHash = applied.Block.Hash()
	}

	return outcomes, nil
}

// ensureValidPayloadStatus classifies the engine's newPayload response:
// Valid/Accepted proceed, Syncing is a transient rejection carrying the
// block number that timed out, and Invalid is a terminal rejection carrying
// the engine's own validation error string.
func ensureValidPayloadStatus(blockNumber uint64, status *engine.PayloadStatusV1) *SubmissionError {
	switch status.Status {
	case engine.VALID, engine.ACCEPTED:
		return nil
	case engine.SYNCING:
		return &SubmissionError{Kind: SubmissionEngineSyncing, BlockNumber: blockNumber}
	case engine.INVALID, engine.INVALIDBLOCKHASH:
		validationError := ""
		if status.ValidationError != nil {
			validationError = *status.ValidationError
		}
		return &SubmissionError{Kind: SubmissionInvalidBlock, BlockNumber: blockNumber, ValidationError: validationError}
	default:
		return &SubmissionError{
			Kind:            SubmissionInvalidBlock,
			BlockNumber:     blockNumber,
			ValidationError: fmt.Sprintf("unrecognized payload status %q", status.Status),
		}
	}
}
