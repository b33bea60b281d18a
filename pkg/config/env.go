// Package config loads quoting-service configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv loads KEY=VALUE pairs from a .env file if it exists. Values
// already present in the environment win.
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		// .env file is optional
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

// GetRPCEndpoints returns the RPC endpoint list from RPC_ENDPOINTS
// (comma-separated), or nil when unset.
func GetRPCEndpoints() []string {
	return getList("RPC_ENDPOINTS")
}

// GetIntermediateMints returns the candidate intermediate tokens for
// two-hop routing from INTERMEDIATE_MINTS, or nil to use the built-in
// defaults.
func GetIntermediateMints() []string {
	return getList("INTERMEDIATE_MINTS")
}

// GetQuoteTTL returns the quote cache TTL from QUOTE_TTL_SECONDS, or
// zero to use the default.
func GetQuoteTTL() time.Duration {
	raw := os.Getenv("QUOTE_TTL_SECONDS")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// WatchedPool names an on-chain pool account and the token pair it
// prices, for WebSocket cache invalidation.
type WatchedPool struct {
	Account string
	TokenA  string
	TokenB  string
}

// GetWatchedPools parses WATCH_POOLS, a comma-separated list of
// account:tokenA:tokenB triples. Malformed entries are skipped.
func GetWatchedPools() []WatchedPool {
	var pools []WatchedPool
	for _, entry := range getList("WATCH_POOLS") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			continue
		}
		pools = append(pools, WatchedPool{
			Account: strings.TrimSpace(parts[0]),
			TokenA:  strings.TrimSpace(parts[1]),
			TokenB:  strings.TrimSpace(parts[2]),
		})
	}
	return pools
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
