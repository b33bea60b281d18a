package main

import (
	"time"
)

type quoteError struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status        string    `json:"status"`
	CachedQuotes  int       `json:"cachedQuotes"`
	WatchedPools  int       `json:"watchedPools"`
	WatcherOnline bool      `json:"watcherOnline"`
	StartedAt     time.Time `json:"startedAt"`
	Uptime        string    `json:"uptime"`
}
