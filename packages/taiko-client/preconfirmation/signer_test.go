package preconfirmation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestRecoverSignerRoundTrips(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	c := &SignedCommitment{
		ProposalID:        big.NewInt(1),
		BlockNumber:       big.NewInt(100),
		Timestamp:         big.NewInt(1000),
		GasLimit:          big.NewInt(30_000_000),
		Coinbase:          common.HexToAddress("0xbb"),
		AnchorBlockNumber: big.NewInt(7),
		RawTxListHash:     common.HexToHash("0xaa"),
		ProverAuth:        []byte{0xde, 0xad},
	}

	hash, err := c.SigningHash()
	require.NoError(t, err)

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	c.Signature = sig

	signer, err := c.RecoverSigner()
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer)
}

func TestRecoverSignerRejectsWrongLength(t *testing.T) {
	c := &SignedCommitment{Signature: []byte{0x01, 0x02}}
	_, err := c.RecoverSigner()
	require.Error(t, err)
}

func TestRecoverSignerDetectsTamperedFields(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	c := &SignedCommitment{
		BlockNumber:   big.NewInt(100),
		RawTxListHash: common.HexToHash("0xaa"),
	}
	hash, err := c.SigningHash()
	require.NoError(t, err)

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	c.Signature = sig

	// Tampering with a signed field after signing must change the
	// recovered address.
	c.BlockNumber = big.NewInt(101)
	signer, err := c.RecoverSigner()
	require.NoError(t, err)
	require.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), signer)
}
