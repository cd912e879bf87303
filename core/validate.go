package core

import (
	"fmt"
	"strings"
)

// HeaderAPIKey is the header name every request is checked against.
const HeaderAPIKey = "tycho-orderbook-web-api-key"

// Prevalidation errors. ErrNotInitialised (and the unnamed stream-status
// error) only ever come out of PrevalidateCompute; both compute and read
// paths can return ErrBadAPIKey.
var (
	ErrNotInitialised = fmt.Errorf("API is not yet initialised")
	ErrBadAPIKey      = fmt.Errorf("invalid orderbook API key")
)

// PrevalidateCompute runs the full three-step gate a POST endpoint
// requires, in order: the per-network initialised flag, the stream status
// read back from the cache, then the API key header. A caller gets the
// first failure that applies.
func PrevalidateCompute(initialised bool, status StreamStatus, configuredKey, gotKey string) error {
	if !initialised {
		return ErrNotInitialised
	}
	if status != StatusRunning {
		return fmt.Errorf("stream is %s, expected %s", status, StatusRunning)
	}
	return PrevalidateRead(configuredKey, gotKey)
}

// PrevalidateRead runs the single check every GET endpoint shares: the
// request's API key header, compared case-insensitively, must match the
// configured key. An empty configured key disables the check.
func PrevalidateRead(configuredKey, gotKey string) error {
	if configuredKey != "" && !strings.EqualFold(configuredKey, gotKey) {
		return ErrBadAPIKey
	}
	return nil
}
