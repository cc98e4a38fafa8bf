package whitelist

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/bindings/preconfwhitelist"
	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/rpc"
)

// snapshotFetchMaxAttempts bounds the retry loop: a failure is retried
// exactly once, and only when its message shape indicates the L1 batches
// observed two different chain states.
const snapshotFetchMaxAttempts = 2

// Snapshot is one consistent read of the whitelist contract's current and
// next epoch operators, pinned to a single L1 block.
type Snapshot struct {
	Current                    common.Address
	Next                       common.Address
	CurrentEpochStartTimestamp uint64
	BlockTimestamp             uint64
}

// SnapshotFetcher fetches a pinned whitelist snapshot over L1 JSON-RPC.
type SnapshotFetcher struct {
	caller           rpc.BatchCaller
	whitelistAddress common.Address
}

// NewSnapshotFetcher constructs a SnapshotFetcher against the given L1 batch
// caller and whitelist contract address.
func NewSnapshotFetcher(caller rpc.BatchCaller, whitelistAddress common.Address) *SnapshotFetcher {
	return &SnapshotFetcher{caller: caller, whitelistAddress: whitelistAddress}
}

// FetchWithRetry fetches a snapshot, retrying once if the failure's message
// shape indicates the two batches observed inconsistent L1 state.
func (f *SnapshotFetcher) FetchWithRetry(ctx context.Context) (*Snapshot, error) {
	var (
		snap    *Snapshot
		lastErr error
	)

	err := backoff.Retry(func() error {
		var fetchErr error
		snap, fetchErr = f.fetch(ctx)
		if fetchErr == nil {
			return nil
		}

		lastErr = fetchErr
		if !shouldRetrySnapshotFetch(fetchErr) {
			return backoff.Permanent(fetchErr)
		}
		return fetchErr
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(0), snapshotFetchMaxAttempts-1))

	if err != nil {
		return nil, lookupError("failed to fetch whitelist snapshot", lastErr)
	}

	return snap, nil
}

// fetch performs the two-batch protocol: batch A reads the latest L1 block
// header plus the current-operator/next-operator/epoch-start-timestamp
// views, all evaluated at "latest"; batch B re-reads both operators'
// `operators()` mapping entries and the same block by number, both pinned to
// batch A's observed block number, to verify the chain did not move between
// batches.
func (f *SnapshotFetcher) fetch(ctx context.Context) (*Snapshot, error) {
	to := f.whitelistAddress.Hex()

	currentOpElem := rpc.CallEth(to, preconfwhitelist.GetOperatorForCurrentEpochCallData(), "latest")
	nextOpElem := rpc.CallEth(to, preconfwhitelist.GetOperatorForNextEpochCallData(), "latest")
	epochStartElem := rpc.CallEth(to, preconfwhitelist.EpochStartTimestampCallData(), "latest")
	blockElem := rpc.GetBlockByNumber("latest")

	batchA := []gethrpc.BatchElem{currentOpElem, nextOpElem, epochStartElem, blockElem}
	if err := rpc.RunBatch(ctx, f.caller, batchA); err != nil {
		return nil, fmt.Errorf("whitelist batch A failed: %w", err)
	}

	currentOpRaw, err := decodeHexStringResult(currentOpElem.Result)
	if err != nil {
		return nil, err
	}
	currentOperator, err := preconfwhitelist.DecodeAddressReturn(currentOpRaw)
	if err != nil {
		return nil, err
	}

	nextOpRaw, err := decodeHexStringResult(nextOpElem.Result)
	if err != nil {
		return nil, err
	}
	nextOperator, err := preconfwhitelist.DecodeAddressReturn(nextOpRaw)
	if err != nil {
		return nil, err
	}

	epochStartRaw, err := decodeHexStringResult(epochStartElem.Result)
	if err != nil {
		return nil, err
	}
	epochStartBig, err := preconfwhitelist.DecodeUint256Return(epochStartRaw)
	if err != nil {
		return nil, err
	}

	blockMap, ok := blockElem.Result.(*map[string]interface{})
	if !ok || blockMap == nil {
		return nil, fmt.Errorf("missing pinned block in batch A")
	}

	blockNumber, err := parseHexFieldU64(*blockMap, "number")
	if err != nil {
		return nil, err
	}
	blockHash, err := parseHexFieldString(*blockMap, "hash")
	if err != nil {
		return nil, err
	}
	blockTimestamp, err := parseHexFieldU64(*blockMap, "timestamp")
	if err != nil {
		return nil, err
	}

	blockHex := "0x" + strconv.FormatUint(blockNumber, 16)

	currentOperatorsData, err := preconfwhitelist.OperatorsCallData(currentOperator)
	if err != nil {
		return nil, err
	}
	nextOperatorsData, err := preconfwhitelist.OperatorsCallData(nextOperator)
	if err != nil {
		return nil, err
	}

	currentOperatorsElem := rpc.CallEth(to, currentOperatorsData, blockHex)
	nextOperatorsElem := rpc.CallEth(to, nextOperatorsData, blockHex)
	pinnedBlockElem := rpc.GetBlockByNumber(blockHex)

	batchB := []gethrpc.BatchElem{currentOperatorsElem, nextOperatorsElem, pinnedBlockElem}
	if err := rpc.RunBatch(ctx, f.caller, batchB); err != nil {
		return nil, fmt.Errorf("whitelist batch B failed: %w", err)
	}

	pinnedBlockMap, ok := pinnedBlockElem.Result.(*map[string]interface{})
	if !ok || pinnedBlockMap == nil || *pinnedBlockMap == nil {
		return nil, fmt.Errorf("missing pinned block %d", blockNumber)
	}

	pinnedHash, err := parseHexFieldString(*pinnedBlockMap, "hash")
	if err != nil {
		return nil, err
	}

	if pinnedHash != blockHash {
		return nil, fmt.Errorf("block hash changed between whitelist batches at block %d", blockNumber)
	}

	if currentOperator == (common.Address{}) || nextOperator == (common.Address{}) {
		return nil, fmt.Errorf("received zero address for whitelist sequencer")
	}

	return &Snapshot{
		Current:                    currentOperator,
		Next:                       nextOperator,
		CurrentEpochStartTimestamp: epochStartBig.Uint64(),
		BlockTimestamp:             blockTimestamp,
	}, nil
}

// shouldRetrySnapshotFetch reports whether a failed fetch is worth retrying
// once: only the two specific inconsistency shapes the two-batch protocol
// can produce are retried, never an arbitrary transport failure.
func shouldRetrySnapshotFetch(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "block hash changed between whitelist batches") ||
		strings.Contains(msg, "missing pinned block")
}

func decodeHexStringResult(result interface{}) ([]byte, error) {
	strPtr, ok := result.(*string)
	if !ok || strPtr == nil {
		return nil, fmt.Errorf("unexpected eth_call result type")
	}
	return parseHexU64Bytes(*strPtr)
}

func parseHexU64Bytes(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	if len(trimmed)%2 != 0 {
		trimmed = "0" + trimmed
	}
	return hex.DecodeString(trimmed)
}

func parseHexFieldString(m map[string]interface{}, field string) (string, error) {
	v, ok := m[field]
	if !ok {
		return "", fmt.Errorf("missing field %q", field)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field %q is empty", field)
	}
	return s, nil
}

func parseHexFieldU64(m map[string]interface{}, field string) (uint64, error) {
	s, err := parseHexFieldString(m, field)
	if err != nil {
		return 0, err
	}
	return parseHexU64(s)
}

func parseHexU64(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex string")
	}
	return strconv.ParseUint(trimmed, 16, 64)
}
