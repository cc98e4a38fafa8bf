// Package rpc wraps the L1/L2 Ethereum JSON-RPC clients and the L2 Engine
// API client this driver talks to, the same layering the teacher's own
// `rpc.Client` uses to hold `L1`, `L2` and `L2Engine` side by side.
package rpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the read-only L1/L2 chain-state surface the preconf engine
// needs. It deliberately excludes write paths: block production happens
// exclusively through the Engine API client, never through this interface.
type Backend interface {
	L2Head(ctx context.Context) (*types.Block, error)
	L2BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
	L2HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error)
	L1HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error)
	L2ChainID(ctx context.Context) (uint64, error)
	L2SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error)
}

// Client is the RPC-backed Backend implementation, holding one ethclient per
// layer.
type Client struct {
	L1 *ethclient.Client
	L2 *ethclient.Client
}

var _ Backend = (*Client)(nil)

func (c *Client) L2Head(ctx context.Context) (*types.Block, error) {
	block, err := c.L2.BlockByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L2 head: %w", err)
	}
	return block, nil
}

func (c *Client) L2BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	block, err := c.L2.BlockByNumber(ctx, newBlockNumber(number))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L2 block %d: %w", number, err)
	}
	return block, nil
}

func (c *Client) L2HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	header, err := c.L2.HeaderByNumber(ctx, newBlockNumber(number))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L2 header %d: %w", number, err)
	}
	return header, nil
}

func (c *Client) L1HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	header, err := c.L1.HeaderByNumber(ctx, newBlockNumber(number))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L1 header %d: %w", number, err)
	}
	return header, nil
}

func (c *Client) L2ChainID(ctx context.Context) (uint64, error) {
	id, err := c.L2.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch L2 chain id: %w", err)
	}
	return id.Uint64(), nil
}

func (c *Client) L2SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	progress, err := c.L2.SyncProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch L2 sync progress: %w", err)
	}
	return progress, nil
}
