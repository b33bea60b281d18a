// Package subscription keeps cached quotes honest between TTL expiries:
// it watches pool accounts over a WebSocket account-subscription stream
// and invalidates the quote cache for the affected token pair whenever a
// watched account changes.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AccountUpdateHandler is invoked when a watched account changes.
type AccountUpdateHandler func(account string, slot uint64)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	Params  *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
		} `json:"result"`
	} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountSub struct {
	requestID uint64
	account   string
	serverID  uint64 // assigned by the node once confirmed
	handler   AccountUpdateHandler
}

// WSClient is a minimal JSON-RPC account-subscription client with
// automatic reconnect and resubscribe.
type WSClient struct {
	url            string
	reconnectDelay time.Duration

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	nextID    uint64
	byRequest map[uint64]*accountSub
	byServer  map[uint64]*accountSub

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWSClient connects to a WebSocket RPC endpoint and starts the read
// and reconnect loops.
func NewWSClient(ctx context.Context, wsURL string) (*WSClient, error) {
	clientCtx, cancel := context.WithCancel(ctx)
	c := &WSClient{
		url:            wsURL,
		reconnectDelay: 5 * time.Second,
		nextID:         1,
		byRequest:      make(map[uint64]*accountSub),
		byServer:       make(map[uint64]*accountSub),
		ctx:            clientCtx,
		cancel:         cancel,
	}

	if err := c.connect(); err != nil {
		cancel()
		return nil, err
	}

	go c.readLoop()
	go c.reconnectLoop()
	return c, nil
}

func (c *WSClient) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	log.Printf("WebSocket connected to %s", c.url)
	return nil
}

// SubscribeAccount registers a handler for updates to one account.
func (c *WSClient) SubscribeAccount(account string, handler AccountUpdateHandler) error {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	sub := &accountSub{requestID: id, account: account, handler: handler}
	c.byRequest[id] = sub
	c.mu.Unlock()

	return c.send(subscribeRequest(id, account))
}

func subscribeRequest(id uint64, account string) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountSubscribe",
		Params: []interface{}{
			account,
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		},
	}
}

func (c *WSClient) send(req rpcRequest) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	return conn.WriteJSON(req)
}

func (c *WSClient) readLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
			}
			log.Printf("WebSocket read error: %v", err)
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			time.Sleep(100 * time.Millisecond)
			continue
		}

		c.handleMessage(message)
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg rpcResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WebSocket: unparseable message: %v", err)
		return
	}

	if msg.Method == "accountNotification" && msg.Params != nil {
		c.mu.RLock()
		sub := c.byServer[msg.Params.Subscription]
		c.mu.RUnlock()
		if sub != nil && sub.handler != nil {
			sub.handler(sub.account, msg.Params.Result.Context.Slot)
		}
		return
	}

	if msg.Error != nil {
		log.Printf("WebSocket RPC error for request %d: %s", msg.ID, msg.Error.Message)
		return
	}

	// Subscription confirmation: result carries the server-side id.
	var serverID uint64
	if err := json.Unmarshal(msg.Result, &serverID); err != nil {
		return
	}
	c.mu.Lock()
	if sub, ok := c.byRequest[msg.ID]; ok {
		sub.serverID = serverID
		c.byServer[serverID] = sub
	}
	c.mu.Unlock()
}

func (c *WSClient) reconnectLoop() {
	ticker := time.NewTicker(c.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			connected := c.connected
			c.mu.RUnlock()
			if connected {
				continue
			}

			log.Printf("Attempting WebSocket reconnect...")
			if err := c.connect(); err != nil {
				log.Printf("Reconnect failed: %v", err)
				continue
			}
			c.resubscribeAll()
		}
	}
}

func (c *WSClient) resubscribeAll() {
	c.mu.Lock()
	subs := make([]*accountSub, 0, len(c.byRequest))
	for _, sub := range c.byRequest {
		sub.serverID = 0
		subs = append(subs, sub)
	}
	c.byServer = make(map[uint64]*accountSub)
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.send(subscribeRequest(sub.requestID, sub.account)); err != nil {
			log.Printf("Resubscribe to %s failed: %v", sub.account, err)
		}
	}
}

// IsConnected reports whether the client currently holds a live
// connection.
func (c *WSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close shuts down the client and its background loops.
func (c *WSClient) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
