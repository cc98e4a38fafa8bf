package rpc

import (
	"context"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// BatchCaller is the minimal surface the whitelist cache needs from an L1
// JSON-RPC client: a single batched round trip, matching the way
// `execution.Service.ExecutionBlocksByHashes` in the broader Engine API
// ecosystem batches `eth_getBlockByHash` calls with `gethrpc.BatchElem`.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []gethrpc.BatchElem) error
}

// CallEth builds an `eth_call` BatchElem against the given pinned block tag
// ("latest" or a 0x-prefixed hex block number), with the result decoded into
// a hex string.
func CallEth(to string, data []byte, blockTag string) gethrpc.BatchElem {
	return gethrpc.BatchElem{
		Method: "eth_call",
		Args: []interface{}{
			map[string]interface{}{"to": to, "data": hexBytes(data)},
			blockTag,
		},
		Result: new(string),
	}
}

// GetBlockByNumber builds a BatchElem for `eth_getBlockByNumber`, with
// `fullTx` always false: only the header fields (number, hash, timestamp)
// are needed.
func GetBlockByNumber(blockTag string) gethrpc.BatchElem {
	return gethrpc.BatchElem{
		Method: "eth_getBlockByNumber",
		Args:   []interface{}{blockTag, false},
		Result: new(map[string]interface{}),
	}
}

func hexBytes(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2+len(b)*2)
	out[0], out[1] = '0', 'x'
	for i, v := range b {
		out[2+i*2] = hextable[v>>4]
		out[2+i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}

// RunBatch executes a batch and returns the first per-element error it
// finds, if any, wrapped with the failing method name.
func RunBatch(ctx context.Context, caller BatchCaller, elems []gethrpc.BatchElem) error {
	if err := caller.BatchCallContext(ctx, elems); err != nil {
		return fmt.Errorf("batch call failed: %w", err)
	}

	for _, elem := range elems {
		if elem.Error != nil {
			return fmt.Errorf("batch element %s failed: %w", elem.Method, elem.Error)
		}
	}

	return nil
}
