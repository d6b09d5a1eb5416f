package indexer

import (
	"errors"
	"strings"
)

var (
	ErrIndexerUnavailable = errors.New("indexer url not configured")
	ErrRateLimited        = errors.New("indexer rate limited")
)

// Rate limiting is only visible in the error text
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}
