package encoding

import (
	"github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// buildPayloadArgs is the ordered tuple hashed to derive a deterministic
// payload build id, mirroring the shape `engine_forkchoiceUpdated`'s
// `PayloadAttributes` commits a caller to.
type buildPayloadArgs struct {
	ParentHash  common.Hash
	Timestamp   uint64
	Difficulty  common.Hash
	Coinbase    common.Address
	Withdrawals types.Withdrawals
	TxList      []byte
}

// ComputeBuildPayloadArgsID derives an 8-byte id identifying the exact set of
// payload-build arguments this driver asked the engine to build, by
// Keccak-256 hashing their RLP encoding and truncating to the low 8 bytes.
//
// The caller compares this against the `payloadId` the engine returns from
// `engine_forkchoiceUpdated` purely as a diagnostic: a mismatch does not by
// itself indicate incorrect block construction, so it is logged, not
// rejected.
func ComputeBuildPayloadArgsID(
	parentHash common.Hash,
	timestamp uint64,
	difficulty common.Hash,
	coinbase common.Address,
	withdrawals types.Withdrawals,
	txList []byte,
) (engine.PayloadID, error) {
	args := buildPayloadArgs{
		ParentHash:  parentHash,
		Timestamp:   timestamp,
		Difficulty:  difficulty,
		Coinbase:    coinbase,
		Withdrawals: withdrawals,
		TxList:      txList,
	}

	encoded, err := rlp.EncodeToBytes(&args)
	if err != nil {
		return engine.PayloadID{}, err
	}

	hash := crypto.Keccak256(encoded)

	var id engine.PayloadID
	copy(id[:], hash[:len(id)])

	return id, nil
}
