package report

import (
	"go.uber.org/atomic"
)

type IndexerErrors struct {
	Requests    atomic.Uint64 `json:"requests"`
	RateLimited atomic.Uint64 `json:"rate_limited"`
}

type IndexerState struct {
	Requests                     atomic.Uint64 `json:"requests"`
	CachedResponses              atomic.Uint64 `json:"cached_responses"`
	RecordsFetched               atomic.Uint64 `json:"records_fetched"`
	LastSuccessfulFetchTimestamp atomic.Int64  `json:"last_successful_fetch_timestamp"`
	CooldownUntilTimestamp       atomic.Int64  `json:"cooldown_until_timestamp"`
}

type IndexerReport struct {
	State  IndexerState  `json:"state"`
	Errors IndexerErrors `json:"errors"`
}
