package preconfirmation

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// commitmentSigningPreimage mirrors SignedCommitment field for field, minus
// the Signature itself: this is what a sequencer actually signs over.
type commitmentSigningPreimage struct {
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
	EOP                  bool
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// SigningHash returns the hash a commitment's Signature is computed over:
// every other field, RLP-encoded and keccak-hashed.
func (c *SignedCommitment) SigningHash() (common.Hash, error) {
	preimage := &commitmentSigningPreimage{
		ProposalID:           bigOrZero(c.ProposalID),
		BlockNumber:          bigOrZero(c.BlockNumber),
		Timestamp:            bigOrZero(c.Timestamp),
		GasLimit:             bigOrZero(c.GasLimit),
		Coinbase:             c.Coinbase,
		AnchorBlockNumber:    bigOrZero(c.AnchorBlockNumber),
		RawTxListHash:        c.RawTxListHash,
		ParentCommitmentHash: c.ParentCommitmentHash,
		SubmissionWindowEnd:  bigOrZero(c.SubmissionWindowEnd),
		ProverAuth:           c.ProverAuth,
		Slasher:              c.Slasher,
		EOP:                  c.EOP,
	}

	encoded, err := rlp.EncodeToBytes(preimage)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode commitment signing preimage: %w", err)
	}

	return crypto.Keccak256Hash(encoded), nil
}

// RecoverSigner recovers the address that produced the commitment's 65-byte
// signature (r || s || v, v normalized to 0/1) over SigningHash, the same
// way go-ethereum recovers a transaction's sender from its signature.
func (c *SignedCommitment) RecoverSigner() (common.Address, error) {
	if len(c.Signature) != 65 {
		return common.Address{}, fmt.Errorf("commitment signature must be 65 bytes, got %d", len(c.Signature))
	}

	sig := make([]byte, 65)
	copy(sig, c.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash, err := c.SigningHash()
	if err != nil {
		return common.Address{}, err
	}

	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover commitment signer: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}
