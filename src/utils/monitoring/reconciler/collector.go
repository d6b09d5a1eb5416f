package monitor_reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp                      *prometheus.Desc
	UpForSeconds                        *prometheus.Desc
	IndexerRequests                     *prometheus.Desc
	IndexerCachedResponses              *prometheus.Desc
	IndexerRecordsFetched               *prometheus.Desc
	IndexerLastSuccessfulFetchTimestamp *prometheus.Desc
	IndexerCooldownUntilTimestamp       *prometheus.Desc
	ChainReads                          *prometheus.Desc
	ChainLogsFetched                    *prometheus.Desc
	ChainLastPolledBlock                *prometheus.Desc
	ChainActiveWatchers                 *prometheus.Desc
	ChainBlockTimeCacheHits             *prometheus.Desc
	Records                             *prometheus.Desc
	PatchesApplied                      *prometheus.Desc
	EventsProcessed                     *prometheus.Desc
	EventsDropped                       *prometheus.Desc
	RecordsSynthesized                  *prometheus.Desc
	Refreshes                           *prometheus.Desc
	Hydrations                          *prometheus.Desc
	ViewerChanges                       *prometheus.Desc
	AveragePatchesPerMinute             *prometheus.Desc
	AverageEventsPerMinute              *prometheus.Desc
	NotesCreated                        *prometheus.Desc
	NotesOpenStatesSet                  *prometheus.Desc
	AdminRefreshes                      *prometheus.Desc
	AdminInvoices                       *prometheus.Desc
	RedisSnapshotsPublished             *prometheus.Desc
	AppSyncSnapshotsPublished           *prometheus.Desc

	// Errors
	IndexerRequestErrors *prometheus.Desc
	IndexerRateLimited   *prometheus.Desc
	ChainReadErrors      *prometheus.Desc
	ChainPollErrors      *prometheus.Desc
	ChainDecodingErrors  *prometheus.Desc
	ChainBlockTimeErrors *prometheus.Desc
	HydrationFailures    *prometheus.Desc
	DroppedChanges       *prometheus.Desc
	NotesCreateErrors    *prometheus.Desc
	NotesOpenStateErrors *prometheus.Desc
	AdminEmptyRefreshes  *prometheus.Desc
	RedisPublishErrors   *prometheus.Desc
	RedisGaveUp          *prometheus.Desc
	AppSyncPublishErrors *prometheus.Desc
	AppSyncGaveUp        *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "invoice-syncer",
	}

	return &Collector{
		StartTimestamp:                      prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:                        prometheus.NewDesc("up_for_seconds", "", nil, labels),
		IndexerRequests:                     prometheus.NewDesc("indexer_requests", "", nil, labels),
		IndexerCachedResponses:              prometheus.NewDesc("indexer_cached_responses", "", nil, labels),
		IndexerRecordsFetched:               prometheus.NewDesc("indexer_records_fetched", "", nil, labels),
		IndexerLastSuccessfulFetchTimestamp: prometheus.NewDesc("indexer_last_successful_fetch_timestamp", "", nil, labels),
		IndexerCooldownUntilTimestamp:       prometheus.NewDesc("indexer_cooldown_until_timestamp", "", nil, labels),
		ChainReads:                          prometheus.NewDesc("chain_reads", "", nil, labels),
		ChainLogsFetched:                    prometheus.NewDesc("chain_logs_fetched", "", nil, labels),
		ChainLastPolledBlock:                prometheus.NewDesc("chain_last_polled_block", "", nil, labels),
		ChainActiveWatchers:                 prometheus.NewDesc("chain_active_watchers", "", nil, labels),
		ChainBlockTimeCacheHits:             prometheus.NewDesc("chain_block_time_cache_hits", "", nil, labels),
		Records:                             prometheus.NewDesc("records", "", nil, labels),
		PatchesApplied:                      prometheus.NewDesc("patches_applied", "", nil, labels),
		EventsProcessed:                     prometheus.NewDesc("events_processed", "", nil, labels),
		EventsDropped:                       prometheus.NewDesc("events_dropped", "", nil, labels),
		RecordsSynthesized:                  prometheus.NewDesc("records_synthesized", "", nil, labels),
		Refreshes:                           prometheus.NewDesc("refreshes", "", nil, labels),
		Hydrations:                          prometheus.NewDesc("hydrations", "", nil, labels),
		ViewerChanges:                       prometheus.NewDesc("viewer_changes", "", nil, labels),
		AveragePatchesPerMinute:             prometheus.NewDesc("average_patches_per_minute", "", nil, labels),
		AverageEventsPerMinute:              prometheus.NewDesc("average_events_per_minute", "", nil, labels),
		NotesCreated:                        prometheus.NewDesc("notes_created", "", nil, labels),
		NotesOpenStatesSet:                  prometheus.NewDesc("notes_open_states_set", "", nil, labels),
		AdminRefreshes:                      prometheus.NewDesc("admin_refreshes", "", nil, labels),
		AdminInvoices:                       prometheus.NewDesc("admin_invoices", "", nil, labels),
		RedisSnapshotsPublished:             prometheus.NewDesc("redis_snapshots_published", "", nil, labels),
		AppSyncSnapshotsPublished:           prometheus.NewDesc("appsync_snapshots_published", "", nil, labels),

		// Errors
		IndexerRequestErrors: prometheus.NewDesc("error_indexer_requests", "", nil, labels),
		IndexerRateLimited:   prometheus.NewDesc("error_indexer_rate_limited", "", nil, labels),
		ChainReadErrors:      prometheus.NewDesc("error_chain_reads", "", nil, labels),
		ChainPollErrors:      prometheus.NewDesc("error_chain_polls", "", nil, labels),
		ChainDecodingErrors:  prometheus.NewDesc("error_chain_decoding", "", nil, labels),
		ChainBlockTimeErrors: prometheus.NewDesc("error_chain_block_times", "", nil, labels),
		HydrationFailures:    prometheus.NewDesc("error_hydrations", "", nil, labels),
		DroppedChanges:       prometheus.NewDesc("error_dropped_changes", "", nil, labels),
		NotesCreateErrors:    prometheus.NewDesc("error_notes_create", "", nil, labels),
		NotesOpenStateErrors: prometheus.NewDesc("error_notes_open_state", "", nil, labels),
		AdminEmptyRefreshes:  prometheus.NewDesc("error_admin_empty_refreshes", "", nil, labels),
		RedisPublishErrors:   prometheus.NewDesc("error_redis_publish", "", nil, labels),
		RedisGaveUp:          prometheus.NewDesc("error_redis_gave_up", "", nil, labels),
		AppSyncPublishErrors: prometheus.NewDesc("error_appsync_publish", "", nil, labels),
		AppSyncGaveUp:        prometheus.NewDesc("error_appsync_gave_up", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.IndexerRequests
	ch <- self.IndexerCachedResponses
	ch <- self.IndexerRecordsFetched
	ch <- self.IndexerLastSuccessfulFetchTimestamp
	ch <- self.IndexerCooldownUntilTimestamp
	ch <- self.ChainReads
	ch <- self.ChainLogsFetched
	ch <- self.ChainLastPolledBlock
	ch <- self.ChainActiveWatchers
	ch <- self.ChainBlockTimeCacheHits
	ch <- self.Records
	ch <- self.PatchesApplied
	ch <- self.EventsProcessed
	ch <- self.EventsDropped
	ch <- self.RecordsSynthesized
	ch <- self.Refreshes
	ch <- self.Hydrations
	ch <- self.ViewerChanges
	ch <- self.AveragePatchesPerMinute
	ch <- self.AverageEventsPerMinute
	ch <- self.NotesCreated
	ch <- self.NotesOpenStatesSet
	ch <- self.AdminRefreshes
	ch <- self.AdminInvoices
	ch <- self.RedisSnapshotsPublished
	ch <- self.AppSyncSnapshotsPublished

	// Errors
	ch <- self.IndexerRequestErrors
	ch <- self.IndexerRateLimited
	ch <- self.ChainReadErrors
	ch <- self.ChainPollErrors
	ch <- self.ChainDecodingErrors
	ch <- self.ChainBlockTimeErrors
	ch <- self.HydrationFailures
	ch <- self.DroppedChanges
	ch <- self.NotesCreateErrors
	ch <- self.NotesOpenStateErrors
	ch <- self.AdminEmptyRefreshes
	ch <- self.RedisPublishErrors
	ch <- self.RedisGaveUp
	ch <- self.AppSyncPublishErrors
	ch <- self.AppSyncGaveUp
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerRequests, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.Requests.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerCachedResponses, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.CachedResponses.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerRecordsFetched, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.RecordsFetched.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerLastSuccessfulFetchTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.LastSuccessfulFetchTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerCooldownUntilTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Indexer.State.CooldownUntilTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainReads, prometheus.CounterValue, float64(self.monitor.Report.Chain.State.Reads.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainLogsFetched, prometheus.CounterValue, float64(self.monitor.Report.Chain.State.LogsFetched.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainLastPolledBlock, prometheus.GaugeValue, float64(self.monitor.Report.Chain.State.LastPolledBlock.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainActiveWatchers, prometheus.GaugeValue, float64(self.monitor.Report.Chain.State.ActiveWatchers.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainBlockTimeCacheHits, prometheus.CounterValue, float64(self.monitor.Report.Chain.State.BlockTimeCacheHits.Load()))
	ch <- prometheus.MustNewConstMetric(self.Records, prometheus.GaugeValue, float64(self.monitor.Report.Reconciler.State.Records.Load()))
	ch <- prometheus.MustNewConstMetric(self.PatchesApplied, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.PatchesApplied.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsProcessed, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.EventsProcessed.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsDropped, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.EventsDropped.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsSynthesized, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.RecordsSynthesized.Load()))
	ch <- prometheus.MustNewConstMetric(self.Refreshes, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.Refreshes.Load()))
	ch <- prometheus.MustNewConstMetric(self.Hydrations, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.Hydrations.Load()))
	ch <- prometheus.MustNewConstMetric(self.ViewerChanges, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.State.ViewerChanges.Load()))
	ch <- prometheus.MustNewConstMetric(self.AveragePatchesPerMinute, prometheus.GaugeValue, float64(self.monitor.Report.Reconciler.State.AveragePatchesPerMinute.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageEventsPerMinute, prometheus.GaugeValue, float64(self.monitor.Report.Reconciler.State.AverageEventsPerMinute.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotesCreated, prometheus.CounterValue, float64(self.monitor.Report.Notes.State.Created.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotesOpenStatesSet, prometheus.CounterValue, float64(self.monitor.Report.Notes.State.OpenStatesSet.Load()))
	ch <- prometheus.MustNewConstMetric(self.AdminRefreshes, prometheus.CounterValue, float64(self.monitor.Report.Admin.State.Refreshes.Load()))
	ch <- prometheus.MustNewConstMetric(self.AdminInvoices, prometheus.GaugeValue, float64(self.monitor.Report.Admin.State.Invoices.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisSnapshotsPublished, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.State.SnapshotsPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.AppSyncSnapshotsPublished, prometheus.CounterValue, float64(self.monitor.Report.AppSyncPublisher.State.SnapshotsPublished.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.IndexerRequestErrors, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.Requests.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerRateLimited, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.RateLimited.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainReadErrors, prometheus.CounterValue, float64(self.monitor.Report.Chain.Errors.Reads.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainPollErrors, prometheus.CounterValue, float64(self.monitor.Report.Chain.Errors.Polls.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainDecodingErrors, prometheus.CounterValue, float64(self.monitor.Report.Chain.Errors.Decoding.Load()))
	ch <- prometheus.MustNewConstMetric(self.ChainBlockTimeErrors, prometheus.CounterValue, float64(self.monitor.Report.Chain.Errors.BlockTimes.Load()))
	ch <- prometheus.MustNewConstMetric(self.HydrationFailures, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.Errors.HydrationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.DroppedChanges, prometheus.CounterValue, float64(self.monitor.Report.Reconciler.Errors.DroppedChanges.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotesCreateErrors, prometheus.CounterValue, float64(self.monitor.Report.Notes.Errors.Create.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotesOpenStateErrors, prometheus.CounterValue, float64(self.monitor.Report.Notes.Errors.OpenState.Load()))
	ch <- prometheus.MustNewConstMetric(self.AdminEmptyRefreshes, prometheus.CounterValue, float64(self.monitor.Report.Admin.Errors.EmptyRefreshes.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPublishErrors, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisGaveUp, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.GaveUp.Load()))
	ch <- prometheus.MustNewConstMetric(self.AppSyncPublishErrors, prometheus.CounterValue, float64(self.monitor.Report.AppSyncPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.AppSyncGaveUp, prometheus.CounterValue, float64(self.monitor.Report.AppSyncPublisher.Errors.GaveUp.Load()))
}
