package encoding

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ABI argument marshaling shared by the difficulty hash, unchanged in shape
// from the Pacaya fork's own "TAIKO_DIFFICULTY" preimage.
var (
	stringType, _  = abi.NewType("string", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)

	shastaDifficultyInputArgs = abi.Arguments{
		{Name: "TAIKO_DIFFICULTY", Type: stringType},
		{Name: "block.number", Type: uint256Type},
	}
)

// CalculateShastaDifficulty derives the deterministic per-block difficulty value
// the Shasta fork uses in place of a real proof-of-work difficulty: the
// Keccak-256 hash of the ABI-packed tuple ("TAIKO_DIFFICULTY", blockNumber).
//
// The parent difficulty is accepted for call-site symmetry with the sibling
// forks' difficulty rules but, like Pacaya's, does not feed the hash.
func CalculateShastaDifficulty(parentDifficulty common.Hash, blockNumber uint64) (common.Hash, error) {
	packed, err := shastaDifficultyInputArgs.Pack("TAIKO_DIFFICULTY", new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to abi.encode shasta difficulty input: %w", err)
	}

	return crypto.Keccak256Hash(packed), nil
}
