package rpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/beacon/engine"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/taikoxyz/preconf-driver/packages/taiko-client/pkg/jwt"
)

// Engine API JSON-RPC method names. Only the V2 variants are used: the
// Taiko execution-data sidecar rides inside the V2 `ExecutableData` the same
// way upstream's withdrawals field does.
const (
	methodForkchoiceUpdatedV2 = "engine_forkchoiceUpdatedV2"
	methodGetPayloadV2        = "engine_getPayloadV2"
	methodNewPayloadV2        = "engine_newPayloadV2"
)

// EngineClient drives the Engine API's authenticated JSON-RPC endpoint.
type EngineClient struct {
	rpc    *gethrpc.Client
	secret []byte
}

// NewEngineClient dials the Engine API endpoint and attaches a JWT secret to
// every call via a per-request Authorization header.
func NewEngineClient(ctx context.Context, url string, secret []byte) (*EngineClient, error) {
	client, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial engine endpoint: %w", err)
	}

	return &EngineClient{rpc: client, secret: secret}, nil
}

func (e *EngineClient) authedContext(ctx context.Context) (context.Context, error) {
	token, err := jwt.NewToken(e.secret)
	if err != nil {
		return nil, err
	}
	return gethrpc.WithHeader(ctx, "Authorization", "Bearer "+token), nil
}

// ForkchoiceUpdated primes the execution engine with a new head and,
// optionally, a payload-building request.
func (e *EngineClient) ForkchoiceUpdated(
	ctx context.Context,
	state *engine.ForkchoiceStateV1,
	attributes *engine.PayloadAttributes,
) (*engine.ForkChoiceResponse, error) {
	authed, err := e.authedContext(ctx)
	if err != nil {
		return nil, err
	}

	var resp engine.ForkChoiceResponse
	if err := e.rpc.CallContext(authed, &resp, methodForkchoiceUpdatedV2, state, attributes); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", methodForkchoiceUpdatedV2, err)
	}

	return &resp, nil
}

// GetPayload retrieves the execution payload the engine built for the given
// payload id.
func (e *EngineClient) GetPayload(ctx context.Context, payloadID engine.PayloadID) (*engine.ExecutionPayloadEnvelope, error) {
	authed, err := e.authedContext(ctx)
	if err != nil {
		return nil, err
	}

	var resp engine.ExecutionPayloadEnvelope
	if err := e.rpc.CallContext(authed, &resp, methodGetPayloadV2, payloadID); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", methodGetPayloadV2, err)
	}

	return &resp, nil
}

// NewPayload submits an execution payload to the engine for validation and
// insertion.
func (e *EngineClient) NewPayload(
	ctx context.Context,
	payload *engine.ExecutableData,
) (*engine.PayloadStatusV1, error) {
	authed, err := e.authedContext(ctx)
	if err != nil {
		return nil, err
	}

	var resp engine.PayloadStatusV1
	if err := e.rpc.CallContext(authed, &resp, methodNewPayloadV2, payload); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", methodNewPayloadV2, err)
	}

	return &resp, nil
}
