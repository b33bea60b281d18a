package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dlmmroute/pkg"
	"dlmmroute/pkg/config"
	"dlmmroute/pkg/quoter"
	"dlmmroute/pkg/sol"
	"dlmmroute/pkg/subscription"
)

var (
	rpcEndpoints = flag.String("rpc", "", "Comma-separated RPC endpoints (falls back to RPC_ENDPOINTS)")
	programID    = flag.String("program", "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo", "DLMM quoter program ID")
	registry     = flag.String("registry", quoter.DefaultRegistry, "Pool registry object")
	port         = flag.Int("port", 8080, "HTTP server port")
	rateLimit    = flag.Int("ratelimit", 20, "RPC requests per second per endpoint")
	cacheTTL     = flag.Int("ttl", 10, "Quote cache TTL in seconds")
)

var (
	engine    *quoter.Engine
	watcher   *subscription.Watcher
	startTime time.Time
)

// httpToWsURL converts an HTTP(S) RPC URL to its WebSocket form.
func httpToWsURL(httpURL string) string {
	wsURL := strings.Replace(httpURL, "https://", "wss://", 1)
	return strings.Replace(wsURL, "http://", "ws://", 1)
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	flag.Parse()
	startTime = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var endpoints []string
	if *rpcEndpoints != "" {
		for _, e := range strings.Split(*rpcEndpoints, ",") {
			endpoints = append(endpoints, strings.TrimSpace(e))
		}
	} else {
		endpoints = config.GetRPCEndpoints()
		if len(endpoints) == 0 {
			log.Fatalf("No RPC endpoints configured. Set RPC_ENDPOINTS in .env or use -rpc flag")
		}
	}

	ttl := time.Duration(*cacheTTL) * time.Second
	if envTTL := config.GetQuoteTTL(); envTTL > 0 {
		ttl = envTTL
	}

	log.Printf("Starting DLMM quote service")
	log.Printf("Port: %d", *port)
	log.Printf("RPC endpoints: %d", len(endpoints))
	log.Printf("Quote TTL: %s", ttl)

	var gateway pkg.Gateway
	if len(endpoints) > 1 {
		pool, err := sol.NewRPCPool(ctx, endpoints, *programID, *rateLimit)
		if err != nil {
			log.Fatalf("Failed to create RPC pool: %v", err)
		}
		gateway = pool
		log.Printf("Initialized RPC pool with %d endpoints", pool.Size())
	} else {
		client, err := sol.NewClient(ctx, endpoints[0], *programID, *rateLimit)
		if err != nil {
			log.Fatalf("Failed to create gateway client: %v", err)
		}
		gateway = client
	}

	engine = quoter.NewEngine(gateway,
		quoter.WithRegistry(*registry),
		quoter.WithCacheTTL(ttl),
		quoter.WithIntermediates(config.GetIntermediateMints()),
	)

	// Optional cache invalidation: watch configured pool accounts over
	// WebSocket and drop stale quotes before their TTL.
	if watched := config.GetWatchedPools(); len(watched) > 0 {
		wsURL := httpToWsURL(endpoints[0])
		w, err := subscription.NewWatcher(ctx, wsURL, engine.Cache())
		if err != nil {
			log.Printf("Warning: pool watcher unavailable, relying on TTL alone: %v", err)
		} else {
			watcher = w
			for _, p := range watched {
				if err := w.WatchPool(p.Account, p.TokenA, p.TokenB); err != nil {
					log.Printf("Warning: failed to watch pool %s: %v", p.Account, err)
				}
			}
			log.Printf("Watching %d pool accounts for cache invalidation", w.Size())
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", handleQuote)
	mux.HandleFunc("/quote/detailed", handleDetailedQuote)
	mux.HandleFunc("/compare", handleCompare)
	mux.HandleFunc("/simulate", handleSimulate)
	mux.HandleFunc("/health", handleHealth)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: corsMiddleware(mux),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if watcher != nil {
			watcher.Close()
		}
		cancel()
	}()

	log.Printf("Server listening on http://localhost:%d", *port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /quote?input=<mint>&output=<mint>&amount=<amount>&slippageBps=<bps>&maxHops=<1|2>")
	log.Printf("  GET  /quote/detailed?input=<mint>&output=<mint>&amount=<amount>")
	log.Printf("  GET  /compare?input=<mint>&output=<mint>&amounts=<a1,a2,...>")
	log.Printf("  GET  /simulate?input=<mint>&output=<mint>&amount=<amount>")
	log.Printf("  GET  /health")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

func parseQuoteParams(r *http.Request) (quoter.QuoteParams, bool) {
	params := quoter.QuoteParams{
		TokenIn:  r.URL.Query().Get("input"),
		TokenOut: r.URL.Query().Get("output"),
		AmountIn: r.URL.Query().Get("amount"),
	}
	return params, params.TokenIn != "" && params.TokenOut != "" && params.AmountIn != ""
}

func handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, ok := parseQuoteParams(r)
	if !ok {
		writeError(w, "Missing required parameters: input, output, amount", http.StatusBadRequest)
		return
	}

	opts := quoter.DefaultQuoteOptions()
	if raw := r.URL.Query().Get("slippageBps"); raw != "" {
		bps, err := strconv.Atoi(raw)
		if err != nil || bps < 0 || bps > 10000 {
			writeError(w, "Invalid slippageBps parameter (must be 0-10000)", http.StatusBadRequest)
			return
		}
		opts.SlippageBps = bps
	}
	if raw := r.URL.Query().Get("maxHops"); raw != "" {
		hops, err := strconv.Atoi(raw)
		if err != nil || hops < 1 {
			writeError(w, "Invalid maxHops parameter", http.StatusBadRequest)
			return
		}
		opts.MaxHops = hops
	}

	quote, err := engine.GetBestQuote(r.Context(), params, &opts)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to calculate quote: %v", err), quoteStatus(err))
		return
	}

	writeJSON(w, quote)
}

func handleDetailedQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, ok := parseQuoteParams(r)
	if !ok {
		writeError(w, "Missing required parameters: input, output, amount", http.StatusBadRequest)
		return
	}

	detailed, err := engine.GetDetailedQuote(r.Context(), params)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to calculate quote: %v", err), quoteStatus(err))
		return
	}

	writeJSON(w, detailed)
}

func handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	input := r.URL.Query().Get("input")
	output := r.URL.Query().Get("output")
	amountsParam := r.URL.Query().Get("amounts")
	if input == "" || output == "" || amountsParam == "" {
		writeError(w, "Missing required parameters: input, output, amounts", http.StatusBadRequest)
		return
	}

	var amounts []string
	for _, a := range strings.Split(amountsParam, ",") {
		if trimmed := strings.TrimSpace(a); trimmed != "" {
			amounts = append(amounts, trimmed)
		}
	}

	quotes, err := engine.GetQuoteComparison(r.Context(), input, output, amounts)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to compare quotes: %v", err), quoteStatus(err))
		return
	}

	writeJSON(w, quotes)
}

func handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, ok := parseQuoteParams(r)
	if !ok {
		writeError(w, "Missing required parameters: input, output, amount", http.StatusBadRequest)
		return
	}

	result, err := engine.SimulateSwap(r.Context(), params)
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to simulate swap: %v", err), quoteStatus(err))
		return
	}

	writeJSON(w, result)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	health := healthResponse{
		Status:       "healthy",
		CachedQuotes: engine.Cache().Len(),
		StartedAt:    startTime,
		Uptime:       time.Since(startTime).Round(time.Second).String(),
	}
	if watcher != nil {
		health.WatchedPools = watcher.Size()
		health.WatcherOnline = watcher.IsConnected()
	}

	writeJSON(w, health)
}

// quoteStatus maps engine errors onto HTTP statuses: bad input is the
// caller's fault, transport failures are upstream trouble.
func quoteStatus(err error) int {
	var de *pkg.DomainError
	if errors.As(err, &de) {
		return http.StatusBadRequest
	}
	if pkg.IsTransport(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(quoteError{Error: message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
