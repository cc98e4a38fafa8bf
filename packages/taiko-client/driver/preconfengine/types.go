package preconfengine

import (
	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// L1Origin is the record persisted alongside an inserted L2 block recording
// which L1 data it was derived from, mirroring rawdb.L1Origin's shape.
type L1Origin struct {
	BlockID            uint64
	L2BlockHash        common.Hash
	L1BlockHeight      uint64
	L1BlockHash        common.Hash
	BuildPayloadArgsID [8]byte
	ForcedInclusion    bool
	// Signature is not a real cryptographic signature: it is the prover
	// authorization blob zero-padded (or truncated) to 65 bytes, preserved
	// exactly as the upstream driver constructs it.
	Signature [65]byte
}

// PayloadAttributes is the built block's full attribute set: the Engine API
// payload attributes plus the Taiko-specific block metadata and the
// L1Origin record that will be persisted once the block lands.
type PayloadAttributes struct {
	Attributes *engine.PayloadAttributes
	L1Origin   L1Origin

	Beneficiary common.Address
	GasLimit    uint64
	Timestamp   uint64
	MixHash     common.Hash
	ExtraData   []byte
	TxListRLP   []byte
}

// PreconfPayloadBuild is the result of building a preconfirmation's
// payload: the attributes to submit, plus the parent hash they were built
// against.
type PreconfPayloadBuild struct {
	Payload    *PayloadAttributes
	ParentHash common.Hash
}

// EngineBlockOutcome is what one successful four-step submission produces.
type EngineBlockOutcome struct {
	Block     *types.Block
	PayloadID engine.PayloadID
}

// EngineHead identifies the engine's current canonical L2 head.
type EngineHead struct {
	BlockNumber uint64
	BlockHash   common.Hash
}

// AppliedPayload is the outcome of ApplyPayload: the inserted block and the
// payload id the engine returned while building it.
type AppliedPayload struct {
	Block     *types.Block
	PayloadID engine.PayloadID
}

// EngineApplyOutcome is the façade's return value for ApplyCommitment.
type EngineApplyOutcome struct {
	BlockNumber uint64
	BlockHash   common.Hash
}
