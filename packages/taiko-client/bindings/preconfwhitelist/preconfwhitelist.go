// Package preconfwhitelist holds the hand-packed ABI call data for the
// PreconfWhitelist L1 contract's read-only views. The driver never submits a
// transaction to this contract, so a full abigen binding would carry methods
// this module never calls; only the four views the whitelist cache needs are
// wired up, packed directly with accounts/abi the same way the teacher's own
// generated bindings pack their calldata under the hood.
package preconfwhitelist

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)

	noArgs        = abi.Arguments{}
	addressArg    = abi.Arguments{{Name: "operator", Type: addressType}}
	uint256Arg    = abi.Arguments{{Name: "proposalId", Type: uint256Type}}
	addressReturn = abi.Arguments{{Name: "", Type: addressType}}
	uint256Return = abi.Arguments{{Name: "", Type: uint256Type}}

	currentOperatorOnce sync.Once
	currentOperatorData []byte

	nextOperatorOnce sync.Once
	nextOperatorData []byte

	epochStartOnce sync.Once
	epochStartData []byte
)

// selector returns the 4-byte Solidity function selector for the given
// canonical signature.
func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// GetOperatorForCurrentEpochCallData returns the calldata for
// `getOperatorForCurrentEpoch()`.
func GetOperatorForCurrentEpochCallData() []byte {
	currentOperatorOnce.Do(func() {
		currentOperatorData = selector("getOperatorForCurrentEpoch()")
	})
	return currentOperatorData
}

// GetOperatorForNextEpochCallData returns the calldata for
// `getOperatorForNextEpoch()`.
func GetOperatorForNextEpochCallData() []byte {
	nextOperatorOnce.Do(func() {
		nextOperatorData = selector("getOperatorForNextEpoch()")
	})
	return nextOperatorData
}

// EpochStartTimestampCallData returns the calldata for
// `epochStartTimestamp(uint256)`, called with a proposal id of zero: the
// whitelist contract treats the argument as informational only for this
// view, matching the original driver's call site.
func EpochStartTimestampCallData() []byte {
	epochStartOnce.Do(func() {
		packed, err := uint256Arg.Pack(new(big.Int))
		if err != nil {
			panic(fmt.Sprintf("failed to pack epochStartTimestamp args: %v", err))
		}
		epochStartData = append(selector("epochStartTimestamp(uint256)"), packed...)
	})
	return epochStartData
}

// OperatorsCallData returns the calldata for `operators(address)`.
func OperatorsCallData(operator common.Address) ([]byte, error) {
	packed, err := addressArg.Pack(operator)
	if err != nil {
		return nil, fmt.Errorf("failed to pack operators args: %w", err)
	}
	return append(selector("operators(address)"), packed...), nil
}

// DecodeAddressReturn decodes a single `address` Solidity return value.
func DecodeAddressReturn(data []byte) (common.Address, error) {
	values, err := addressReturn.Unpack(data)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode address return: %w", err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("unexpected address return arity: %d", len(values))
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address return type")
	}
	return addr, nil
}

// DecodeUint256Return decodes a single `uint256` Solidity return value.
func DecodeUint256Return(data []byte) (*big.Int, error) {
	values, err := uint256Return.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode uint256 return: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected uint256 return arity: %d", len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected uint256 return type")
	}
	return v, nil
}
