package report

import (
	"go.uber.org/atomic"
)

type ReconcilerErrors struct {
	HydrationFailures atomic.Uint64 `json:"hydration_failures"`
	DroppedChanges    atomic.Uint64 `json:"dropped_changes"`
}

type ReconcilerState struct {
	Records                 atomic.Int64   `json:"records"`
	PatchesApplied          atomic.Uint64  `json:"patches_applied"`
	EventsProcessed         atomic.Uint64  `json:"events_processed"`
	EventsDropped           atomic.Uint64  `json:"events_dropped"`
	RecordsSynthesized      atomic.Uint64  `json:"records_synthesized"`
	Refreshes               atomic.Uint64  `json:"refreshes"`
	Hydrations              atomic.Uint64  `json:"hydrations"`
	ViewerChanges           atomic.Uint64  `json:"viewer_changes"`
	AveragePatchesPerMinute atomic.Float64 `json:"average_patches_per_minute"`
	AverageEventsPerMinute  atomic.Float64 `json:"average_events_per_minute"`
}

type ReconcilerReport struct {
	State  ReconcilerState  `json:"state"`
	Errors ReconcilerErrors `json:"errors"`
}
