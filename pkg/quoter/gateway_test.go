package quoter

import (
	"context"
	"sync"

	"dlmmroute/pkg"
)

// fakeGateway serves canned positional results per token pair. The key
// is "tokenIn->tokenOut"; pairs without an entry behave like a quoting
// call that ran and found nothing.
type fakeGateway struct {
	mu      sync.Mutex
	results map[string][]string
	errs    map[string]error
	calls   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		results: make(map[string][]string),
		errs:    make(map[string]error),
	}
}

func pairKey(tokenIn, tokenOut string) string {
	return tokenIn + "->" + tokenOut
}

func (f *fakeGateway) set(tokenIn, tokenOut string, values ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[pairKey(tokenIn, tokenOut)] = values
}

func (f *fakeGateway) fail(tokenIn, tokenOut string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[pairKey(tokenIn, tokenOut)] = err
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGateway) SimulateCall(ctx context.Context, entry string, typeArgs, args []string) (*pkg.RawCallResult, error) {
	key := pairKey(typeArgs[0], typeArgs[1])

	f.mu.Lock()
	f.calls = append(f.calls, key)
	err := f.errs[key]
	values, ok := f.results[key]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return &pkg.RawCallResult{}, nil
	}
	return &pkg.RawCallResult{Values: values}, nil
}
