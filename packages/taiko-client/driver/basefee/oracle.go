// Package basefee computes the next Taiko L2 block's base fee under the
// Shasta fork's EIP-4396-flavored rule: the same gas-target-tracking
// mechanism as EIP-1559, but evaluated once per elapsed second of parent
// block time rather than once per block, so that slow blocks see the fee
// move further than fast ones.
package basefee

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/rpc"
)

// ShastaInitialBaseFee is the base fee assigned to the fork's genesis block,
// before any parent block exists to derive one from.
var ShastaInitialBaseFee = uint256.NewInt(10_000_000) // 0.01 gwei

// Config carries the gas-target parameters the EIP-4396 rule is evaluated
// against.
type Config struct {
	GasTarget              uint64
	AdjustmentQuotient     uint64
	MinGasExcess           uint64
	MaxGasIssuancePerBlock uint64
}

// NextBlockBaseFee derives the base fee the engine should be asked to build
// the next block with, given the current parent header.
func NextBlockBaseFee(ctx context.Context, backend rpc.Backend, cfg Config, parent *types.Header) (*uint256.Int, error) {
	if parent.Number.Sign() == 0 {
		return new(uint256.Int).Set(ShastaInitialBaseFee), nil
	}

	grandparent, err := backend.L2HeaderByNumber(ctx, parent.Number.Uint64()-1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch grandparent header for base fee calc: %w", err)
	}

	parentBlockTime := uint64(0)
	if parent.Time > grandparent.Time {
		parentBlockTime = parent.Time - grandparent.Time
	}

	return calculateNextBlockEIP4396BaseFee(cfg, parent, parentBlockTime), nil
}

// calculateNextBlockEIP4396BaseFee applies the gas-target adjustment once
// per second of elapsed parent block time: a one-second block behaves
// exactly like standard EIP-1559, while a multi-second block compounds the
// adjustment that many times, and a sub-second block is treated as a single
// second (it cannot compound a fractional number of times).
func calculateNextBlockEIP4396BaseFee(cfg Config, parent *types.Header, parentBlockTime uint64) *uint256.Int {
	parentBaseFee := uint256.MustFromBig(parent.BaseFee)
	parentGasUsed := parent.GasUsed

	seconds := parentBlockTime
	if seconds == 0 {
		seconds = 1
	}

	baseFee := new(uint256.Int).Set(parentBaseFee)
	gasTarget := cfg.GasTarget
	if gasTarget == 0 {
		gasTarget = parent.GasLimit / 2
	}
	adjustmentQuotient := cfg.AdjustmentQuotient
	if adjustmentQuotient == 0 {
		adjustmentQuotient = 8
	}

	for i := uint64(0); i < seconds; i++ {
		baseFee = adjustOnce(baseFee, parentGasUsed, gasTarget, adjustmentQuotient)
		// Only the first second sees the block's actual gas usage; the
		// remaining (idle) seconds converge toward the target as if the
		// block had been empty.
		parentGasUsed = gasTarget
	}

	if baseFee.IsZero() {
		baseFee = new(uint256.Int).SetUint64(1)
	}

	return baseFee
}

func adjustOnce(baseFee *uint256.Int, gasUsed, gasTarget, adjustmentQuotient uint64) *uint256.Int {
	if gasUsed == gasTarget {
		return baseFee
	}

	delta := new(uint256.Int)
	if gasUsed > gasTarget {
		gasDelta := gasUsed - gasTarget
		delta.Mul(baseFee, uint256.NewInt(gasDelta))
		delta.Div(delta, uint256.NewInt(gasTarget))
		delta.Div(delta, uint256.NewInt(adjustmentQuotient))
		if delta.IsZero() {
			delta = uint256.NewInt(1)
		}
		return new(uint256.Int).Add(baseFee, delta)
	}

	gasDelta := gasTarget - gasUsed
	delta.Mul(baseFee, uint256.NewInt(gasDelta))
	delta.Div(delta, uint256.NewInt(gasTarget))
	delta.Div(delta, uint256.NewInt(adjustmentQuotient))

	if delta.Cmp(baseFee) >= 0 {
		return new(uint256.Int)
	}

	return new(uint256.Int).Sub(baseFee, delta)
}
