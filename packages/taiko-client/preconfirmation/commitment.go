// Package preconfirmation defines the wire data model a preconfirmation
// commitment arrives in, and the integer-range checks the driver applies to
// it before building an L2 block from it.
package preconfirmation

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SignedCommitment is a single L1 sequencer's signed intent to include a
// transaction list at a given L2 height, ahead of that block being proposed
// to L1. Integer fields arrive as unsigned 256-bit values on the wire and are
// range-checked into Go's native widths by ToUint64 below.
type SignedCommitment struct {
	ProposalID           *big.Int
	BlockNumber          *big.Int
	Timestamp            *big.Int
	GasLimit             *big.Int
	Coinbase             common.Address
	AnchorBlockNumber    *big.Int
	RawTxListHash        common.Hash
	ParentCommitmentHash common.Hash
	SubmissionWindowEnd  *big.Int
	ProverAuth           []byte
	Slasher              common.Address
	Signature            []byte
	EOP                  bool
}

// ToUint64 converts a wire Uint256 field to a Go uint64, rejecting any value
// that does not round-trip: the original value is recovered by converting
// the result back to *big.Int and comparing, rather than merely checking
// BitLen, so that the check also rejects big.Int values built with excess
// leading words.
func ToUint64(v *big.Int) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("preconfirmation value is nil")
	}
	if v.Sign() < 0 {
		return 0, fmt.Errorf("preconfirmation value is negative")
	}

	u := v.Uint64()
	if new(big.Int).SetUint64(u).Cmp(v) != 0 {
		return 0, fmt.Errorf("preconfirmation value exceeds u64 range")
	}

	return u, nil
}

// IsRawTxListHashZero reports whether the commitment carries the all-zero
// sentinel hash used by an end-of-preconfirming terminator that omits a
// tx list entirely.
func (c *SignedCommitment) IsRawTxListHashZero() bool {
	return c.RawTxListHash == (common.Hash{})
}
