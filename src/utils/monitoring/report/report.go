package report

type Report struct {
	Run              *RunReport        `json:"run,omitempty"`
	Indexer          *IndexerReport    `json:"indexer,omitempty"`
	Chain            *ChainReport      `json:"chain,omitempty"`
	Reconciler       *ReconcilerReport `json:"reconciler,omitempty"`
	Notes            *NotesReport      `json:"notes,omitempty"`
	Admin            *AdminReport      `json:"admin,omitempty"`
	RedisPublisher   *PublisherReport  `json:"redis_publisher,omitempty"`
	AppSyncPublisher *PublisherReport  `json:"appsync_publisher,omitempty"`
}
