package subscription

import (
	"context"
	"log"
	"sync"
)

// QuoteInvalidator is the slice of the quote cache the watcher needs.
type QuoteInvalidator interface {
	Invalidate(tokenA, tokenB string)
}

type watchedPair struct {
	tokenA string
	tokenB string
}

// Watcher invalidates cached quotes for a token pair whenever one of
// the pair's pool accounts changes on chain.
type Watcher struct {
	ws    *WSClient
	cache QuoteInvalidator

	mu    sync.RWMutex
	pairs map[string]watchedPair // account -> pair
}

// NewWatcher connects to the WebSocket endpoint and starts watching.
func NewWatcher(ctx context.Context, wsURL string, cache QuoteInvalidator) (*Watcher, error) {
	ws, err := NewWSClient(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		ws:    ws,
		cache: cache,
		pairs: make(map[string]watchedPair),
	}, nil
}

// WatchPool subscribes to a pool account and maps its updates to the
// token pair it prices. Watching the same account twice is a no-op.
func (w *Watcher) WatchPool(account, tokenA, tokenB string) error {
	w.mu.Lock()
	if _, exists := w.pairs[account]; exists {
		w.mu.Unlock()
		return nil
	}
	w.pairs[account] = watchedPair{tokenA: tokenA, tokenB: tokenB}
	w.mu.Unlock()

	return w.ws.SubscribeAccount(account, w.onAccountUpdate)
}

func (w *Watcher) onAccountUpdate(account string, slot uint64) {
	w.mu.RLock()
	pair, ok := w.pairs[account]
	w.mu.RUnlock()
	if !ok {
		return
	}

	log.Printf("Pool %s updated (slot %d), invalidating cached quotes for %s/%s",
		short(account), slot, short(pair.tokenA), short(pair.tokenB))
	w.cache.Invalidate(pair.tokenA, pair.tokenB)
}

// Size returns the number of watched pool accounts.
func (w *Watcher) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.pairs)
}

// IsConnected reports whether the underlying stream is live.
func (w *Watcher) IsConnected() bool { return w.ws.IsConnected() }

// Close stops the watcher and its connection.
func (w *Watcher) Close() error { return w.ws.Close() }

func short(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
