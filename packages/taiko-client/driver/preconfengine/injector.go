package preconfengine

import (
	"context"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/rpc"
)

// RPCExecutionPayloadInjector submits an already-built execution payload
// straight through steps 3 and 4 of the four-step protocol, skipping the
// priming/retrieval steps entirely: the caller built the payload itself and
// has no payload id to track.
type RPCExecutionPayloadInjector struct {
	engine  *rpc.EngineClient
	backend Backend
}

var _ ExecutionPayloadInjector = (*RPCExecutionPayloadInjector)(nil)

// NewRPCExecutionPayloadInjector constructs an ExecutionPayloadInjector.
func NewRPCExecutionPayloadInjector(engineClient *rpc.EngineClient, backend Backend) *RPCExecutionPayloadInjector {
	return &RPCExecutionPayloadInjector{engine: engineClient, backend: backend}
}

func (i *RPCExecutionPayloadInjector) ApplyExecutionPayload(
	ctx context.Context,
	payload *engine.ExecutableData,
	withdrawals types.Withdrawals,
	finalizedHash *common.Hash,
) (*EngineBlockOutcome, *SubmissionError) {
	status, err := i.engine.NewPayload(ctx, payload)
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	if submitErr := ensureValidPayloadStatus(payload.Number, status); submitErr != nil {
		return nil, submitErr
	}

	finalized := common.Hash{}
	if finalizedHash != nil {
		finalized = *finalizedHash
	}

	promoteState := &engine.ForkchoiceStateV1{
		HeadBlockHash:      payload.BlockHash,
		SafeBlockHash:      finalized,
		FinalizedBlockHash: finalized,
	}

	if _, err := i.engine.ForkchoiceUpdated(ctx, promoteState, nil); err != nil {
		return nil, &SubmissionError{Kind: SubmissionRpc, Err: err}
	}

	block, fetchErr := i.backend.L2BlockByNumber(ctx, payload.Number)
	if fetchErr != nil || block == nil || block.Hash() != payload.BlockHash {
		return nil, &SubmissionError{Kind: SubmissionMissingInsertedBlock, BlockNumber: payload.Number}
	}

	return &EngineBlockOutcome{Block: block, PayloadID: engine.PayloadID{}}, nil
}
