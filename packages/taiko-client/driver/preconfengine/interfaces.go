package preconfengine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/driver/anchor"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/rpc"
)

// Backend is re-exported from pkg/rpc so callers constructing an Engine only
// need to import this package.
type Backend = rpc.Backend

// AnchorBuilder is re-exported from driver/anchor for the same reason.
type AnchorBuilder = anchor.Builder

// PayloadApplier drives the four-step Engine API submission protocol for one
// built payload and, in AttributesToBlocks, for a batch of them submitted
// back to back.
type PayloadApplier interface {
	// ApplyPayload primes the engine with parentHash as the new head (and
	// finalizedHash, if known), asks it to build attributes, retrieves the
	// built payload, submits it, and promotes it to canonical.
	ApplyPayload(
		ctx context.Context,
		payload *PayloadAttributes,
		parentHash common.Hash,
		finalizedHash *common.Hash,
	) (*AppliedPayload, *SubmissionError)

	// AttributesToBlocks applies a batch of payloads back to back, chaining
	// each outcome's block hash into the next payload's parent hash, and
	// aborting the batch at the first failure.
	AttributesToBlocks(
		ctx context.Context,
		payloads []*PayloadAttributes,
	) ([]EngineBlockOutcome, *SubmissionError)
}

// SignerAdmission checks whether a commitment's recovered signer currently
// holds the whitelisted operator role for either the current or next epoch.
// *whitelist.Cache satisfies this.
type SignerAdmission interface {
	EnsureSignerAllowed(ctx context.Context, signer common.Address, now time.Time) error
}

// ExecutionPayloadInjector submits an already-built execution payload
// (steps 3-4 of the four-step protocol only), used by callers that built
// attributes independently of a commitment.
type ExecutionPayloadInjector interface {
	ApplyExecutionPayload(
		ctx context.Context,
		payload *engine.ExecutableData,
		withdrawals types.Withdrawals,
		finalizedHash *common.Hash,
	) (*EngineBlockOutcome, *SubmissionError)
}
