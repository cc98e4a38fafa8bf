package encoding

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// EncodeTransactions RLP-encodes a transaction list the same way the L2
// execution client encodes the `txList` payload embedded in a proposal.
func EncodeTransactions(txs types.Transactions) ([]byte, error) {
	b, err := rlp.EncodeToBytes(txs)
	if err != nil {
		return nil, fmt.Errorf("failed to rlp.Encode transactions: %w", err)
	}

	return b, nil
}

// DecodeTransactions is the inverse of EncodeTransactions.
func DecodeTransactions(data []byte) (types.Transactions, error) {
	var txs types.Transactions
	if err := rlp.DecodeBytes(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to rlp.Decode transactions: %w", err)
	}

	return txs, nil
}

// CompressTxList zlib-compresses an RLP-encoded transaction list, matching
// the compression the L2 execution client applies before proposing a txList.
func CompressTxList(txListBytes []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := zlib.NewWriter(&buf)
	if _, err := w.Write(txListBytes); err != nil {
		return nil, fmt.Errorf("failed to zlib compress tx list: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DecompressTxList inflates a zlib-compressed transaction list.
func DecompressTxList(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to open zlib reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to zlib decompress tx list: %w", err)
	}

	return out, nil
}
