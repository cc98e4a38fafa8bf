package rpc

import "math/big"

// newBlockNumber converts a block height into the *big.Int the ethclient
// block-fetching methods expect, where nil means "latest".
func newBlockNumber(number uint64) *big.Int {
	return new(big.Int).SetUint64(number)
}
