package report

import (
	"go.uber.org/atomic"
)

type ChainErrors struct {
	Reads      atomic.Uint64 `json:"reads"`
	Polls      atomic.Uint64 `json:"polls"`
	Decoding   atomic.Uint64 `json:"decoding"`
	BlockTimes atomic.Uint64 `json:"block_times"`
}

type ChainState struct {
	Reads              atomic.Uint64 `json:"reads"`
	LogsFetched        atomic.Uint64 `json:"logs_fetched"`
	LastPolledBlock    atomic.Uint64 `json:"last_polled_block"`
	ActiveWatchers     atomic.Int64  `json:"active_watchers"`
	BlockTimeCacheHits atomic.Uint64 `json:"block_time_cache_hits"`
}

type ChainReport struct {
	State  ChainState  `json:"state"`
	Errors ChainErrors `json:"errors"`
}
