package anchor

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var anchorV4Args = abi.Arguments{
	{Name: "anchorBlockId", Type: mustType("uint64")},
	{Name: "anchorBlockHash", Type: mustType("bytes32")},
	{Name: "anchorStateRoot", Type: mustType("bytes32")},
	{Name: "parentGasUsed", Type: mustType("uint32")},
	{Name: "proposalId", Type: mustType("uint64")},
	{Name: "proposer", Type: mustType("address")},
	{Name: "proverAuth", Type: mustType("bytes")},
}

var anchorV4Selector = crypto.Keccak256(
	[]byte("anchorV4(uint64,bytes32,bytes32,uint32,uint64,address,bytes)"),
)[:4]

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid abi type %q: %v", t, err))
	}
	return typ
}

// packAnchorV4Input ABI-encodes the anchorV4 call data.
func packAnchorV4Input(_ common.Hash, in Input) ([]byte, error) {
	packed, err := anchorV4Args.Pack(
		in.AnchorBlockNumber,
		in.AnchorBlockHash,
		in.AnchorStateRoot,
		uint32(in.ParentGasUsed),
		in.ProposalID,
		in.Proposer,
		in.ProverAuth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to abi.encode anchorV4 call: %w", err)
	}

	return append(append([]byte{}, anchorV4Selector...), packed...), nil
}
