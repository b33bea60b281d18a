package sol

import (
	"context"
	"fmt"
	"sync/atomic"

	"dlmmroute/pkg"
)

// RPCPool spreads gateway calls across multiple RPC endpoints in
// round-robin order. It implements pkg.Gateway itself, so a pool can be
// dropped in anywhere a single Client is accepted.
type RPCPool struct {
	clients []*Client
	index   uint64
}

// NewRPCPool creates one gateway client per endpoint, all targeting the
// same quoter program with the same per-endpoint rate limit.
func NewRPCPool(ctx context.Context, endpoints []string, programID string, reqLimitPerSecond int) (*RPCPool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("rpc pool needs at least one endpoint")
	}

	pool := &RPCPool{clients: make([]*Client, 0, len(endpoints))}
	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, programID, reqLimitPerSecond)
		if err != nil {
			return nil, err
		}
		pool.clients = append(pool.clients, client)
	}
	return pool, nil
}

// Next returns the next client in round-robin order.
func (p *RPCPool) Next() *Client {
	if len(p.clients) == 1 {
		return p.clients[0]
	}
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// SimulateCall delegates to the next client in the rotation.
func (p *RPCPool) SimulateCall(ctx context.Context, entry string, typeArgs, args []string) (*pkg.RawCallResult, error) {
	return p.Next().SimulateCall(ctx, entry, typeArgs, args)
}

// Size returns the number of clients in the pool.
func (p *RPCPool) Size() int {
	return len(p.clients)
}
