package report

import (
	"go.uber.org/atomic"
)

// Shared by every snapshot fan-out (Redis, AppSync)
type PublisherReport struct {
	State struct {
		SnapshotsPublished     atomic.Uint64 `json:"snapshots_published"`
		BytesPublished         atomic.Uint64 `json:"bytes_published"`
		LastPublishedTimestamp atomic.Int64  `json:"last_published_timestamp"`
	} `json:"state"`
	Errors struct {
		Marshal atomic.Uint64 `json:"marshal"`
		Publish atomic.Uint64 `json:"publish"`
		GaveUp  atomic.Uint64 `json:"gave_up"`
	} `json:"errors"`
}
